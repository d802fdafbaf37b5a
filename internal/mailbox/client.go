package mailbox

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

var errClosed = errors.New("imap: session closed")

// Client is the subset of an IMAP session the starred feed needs.
type Client interface {
	Connect(addr string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	SearchFlagged() ([]uint32, error)
	FetchMessages(uids []uint32) ([]*imap.Message, error)
	Close() error
}

// StandardClient talks to a real server over TLS. Close may be called from
// another goroutine to interrupt a fetch in flight.
type StandardClient struct {
	mu      sync.Mutex
	client  *client.Client
	closed  bool
	timeout time.Duration
}

// NewStandardClient creates a client whose commands time out after timeout.
func NewStandardClient(timeout time.Duration) *StandardClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StandardClient{timeout: timeout}
}

// Connect dials addr over TLS. A session that is closed while dialing is
// logged out before Connect returns.
func (c *StandardClient) Connect(addr string) error {
	cl, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("imap connect %s: %w", addr, err)
	}
	cl.Timeout = c.timeout

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		closeSession(cl)
		return errClosed
	}
	c.client = cl
	return nil
}

func (c *StandardClient) session() (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return nil, errClosed
	case c.client == nil:
		return nil, errNotConnected
	}
	return c.client, nil
}

func (c *StandardClient) Login(user, password string) error {
	cl, err := c.session()
	if err != nil {
		return err
	}
	if err := cl.Login(user, password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	return nil
}

// SelectMailbox opens name read-only so the fetch never alters flags.
func (c *StandardClient) SelectMailbox(name string) error {
	cl, err := c.session()
	if err != nil {
		return err
	}
	if _, err := cl.Select(name, true); err != nil {
		return fmt.Errorf("imap select %s: %w", name, err)
	}
	return nil
}

// SearchFlagged returns the UIDs of starred messages.
func (c *StandardClient) SearchFlagged() ([]uint32, error) {
	cl, err := c.session()
	if err != nil {
		return nil, err
	}
	criteria := imap.NewSearchCriteria()
	criteria.WithFlags = []string{imap.FlaggedFlag}
	uids, err := cl.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search flagged: %w", err)
	}
	return uids, nil
}

// FetchMessages retrieves the full raw body of every uid without marking it seen.
func (c *StandardClient) FetchMessages(uids []uint32) ([]*imap.Message, error) {
	cl, err := c.session()
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate, imap.FetchUid}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- cl.UidFetch(seqSet, items, messages)
	}()

	out := make([]*imap.Message, 0, len(uids))
	for m := range messages {
		out = append(out, m)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return out, nil
}

// Close logs out. It is safe to call more than once and before Connect.
func (c *StandardClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.client == nil {
		return nil
	}
	return closeSession(c.client)
}

// closeSession logs out, dropping the connection if the server does not answer.
func closeSession(cl *client.Client) error {
	if err := cl.Logout(); err != nil {
		_ = cl.Terminate()
		return err
	}
	return nil
}
