package mailbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-imap"

	"github.com/slidexpress/workflow-service/internal/config"
)

type fakeClient struct {
	mu       sync.Mutex
	calls    []string
	uids     []uint32
	messages []*imap.Message
	loginErr error
	block    chan struct{}
	closes   int
	closed   chan struct{}
}

func (c *fakeClient) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *fakeClient) Connect(addr string) error {
	c.record("connect " + addr)
	return nil
}

func (c *fakeClient) Login(user, _ string) error {
	c.record("login " + user)
	return c.loginErr
}

func (c *fakeClient) SelectMailbox(name string) error {
	c.record("select " + name)
	return nil
}

func (c *fakeClient) SearchFlagged() ([]uint32, error) {
	if c.block != nil {
		<-c.block
	}
	return c.uids, nil
}

func (c *fakeClient) FetchMessages(uids []uint32) ([]*imap.Message, error) {
	c.record("fetch")
	return c.messages, nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.calls = append(c.calls, "close")
	if c.closed != nil {
		c.closed <- struct{}{}
	}
	return nil
}

func (c *fakeClient) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func testMailboxConfig() config.MailboxConfig {
	return config.MailboxConfig{Addr: "imap.test:993", User: "desk@example.com", Password: "pw", Mailbox: "INBOX"}
}

func TestFetchStarred(t *testing.T) {
	client := &fakeClient{
		uids: []uint32{1, 2},
		messages: []*imap.Message{
			rawMessage(1, sampleMessage),
			imap.NewMessage(2, nil),
		},
	}
	feed := newStarredFeed(testMailboxConfig(), nil, func() Client { return client })

	emails, err := feed.FetchStarred(context.Background())
	if err != nil {
		t.Fatalf("FetchStarred() error = %v", err)
	}
	if len(emails) != 1 || emails[0].MessageID != "<abc123@mail.example>" {
		t.Fatalf("FetchStarred() = %+v", emails)
	}
	want := []string{"connect imap.test:993", "login desk@example.com", "select INBOX"}
	for i, call := range want {
		if i >= len(client.calls) || client.calls[i] != call {
			t.Fatalf("calls = %v, want prefix %v", client.calls, want)
		}
	}
	if client.closeCount() != 1 {
		t.Errorf("closes = %d, want 1", client.closeCount())
	}
}

func TestFetchStarredNoneFlagged(t *testing.T) {
	client := &fakeClient{}
	feed := newStarredFeed(testMailboxConfig(), nil, func() Client { return client })
	emails, err := feed.FetchStarred(context.Background())
	if err != nil || len(emails) != 0 {
		t.Errorf("FetchStarred() = %v, %v", emails, err)
	}
}

func TestFetchStarredErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		feed := newStarredFeed(config.MailboxConfig{}, nil, func() Client { return &fakeClient{} })
		if _, err := feed.FetchStarred(context.Background()); err == nil {
			t.Error("expected error without credentials")
		}
	})

	t.Run("login", func(t *testing.T) {
		loginErr := errors.New("bad credentials")
		client := &fakeClient{loginErr: loginErr}
		feed := newStarredFeed(testMailboxConfig(), nil, func() Client { return client })
		if _, err := feed.FetchStarred(context.Background()); !errors.Is(err, loginErr) {
			t.Errorf("FetchStarred() error = %v, want %v", err, loginErr)
		}
		if client.closeCount() != 1 {
			t.Error("session not closed after failure")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		client := &fakeClient{uids: []uint32{1}, block: make(chan struct{}), closed: make(chan struct{}, 2)}
		feed := newStarredFeed(testMailboxConfig(), nil, func() Client { return client })
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := feed.FetchStarred(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("FetchStarred() error = %v, want deadline exceeded", err)
		}
		<-client.closed

		// The abandoned fetch closes its own session once it unblocks.
		close(client.block)
		select {
		case <-client.closed:
		case <-time.After(time.Second):
			t.Fatal("session not closed after the fetch finished")
		}
		client.mu.Lock()
		last := client.calls[len(client.calls)-1]
		client.mu.Unlock()
		if last != "close" {
			t.Errorf("last call = %q, want close after fetch", last)
		}
	})
}

func TestStandardClientClose(t *testing.T) {
	c := NewStandardClient(0)
	if err := c.Login("desk", "pw"); !errors.Is(err, errNotConnected) {
		t.Errorf("Login() before Connect error = %v, want %v", err, errNotConnected)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() before Connect error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{name: "login", call: func() error { return c.Login("desk", "pw") }},
		{name: "select", call: func() error { return c.SelectMailbox("INBOX") }},
		{name: "search", call: func() error { _, err := c.SearchFlagged(); return err }},
		{name: "fetch", call: func() error { _, err := c.FetchMessages([]uint32{1}); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, errClosed) {
				t.Errorf("error = %v, want %v", err, errClosed)
			}
		})
	}
}
