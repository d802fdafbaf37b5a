package mailbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/config"
	"github.com/slidexpress/workflow-service/internal/domain"
)

var errNotConnected = errors.New("imap: not connected")

// StarredFeed reads starred (IMAP \Flagged) messages from the coordinator mailbox.
type StarredFeed struct {
	cfg       config.MailboxConfig
	newClient func() Client
	logger    *zap.Logger
	now       func() time.Time
}

// NewStarredFeed builds a feed that opens a fresh TLS session per fetch.
func NewStarredFeed(cfg config.MailboxConfig, logger *zap.Logger) *StarredFeed {
	return newStarredFeed(cfg, logger, func() Client { return NewStandardClient(cfg.Timeout()) })
}

func newStarredFeed(cfg config.MailboxConfig, logger *zap.Logger, newClient func() Client) *StarredFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StarredFeed{cfg: cfg, newClient: newClient, logger: logger, now: time.Now}
}

type fetchResult struct {
	emails []domain.Email
	err    error
}

// FetchStarred returns every starred message in the configured mailbox.
// Messages that cannot be parsed are logged and skipped. Cancelling ctx
// returns ctx.Err() at once and closes the session.
func (f *StarredFeed) FetchStarred(ctx context.Context) ([]domain.Email, error) {
	if !f.cfg.Configured() {
		return nil, errors.New("mailbox credentials not configured")
	}
	c := f.newClient()
	done := make(chan fetchResult, 1)
	go func() {
		emails, err := f.fetch(c)
		if cerr := c.Close(); cerr != nil {
			f.logger.Debug("imap logout", zap.Error(cerr))
		}
		done <- fetchResult{emails: emails, err: err}
	}()

	select {
	case res := <-done:
		return res.emails, res.err
	case <-ctx.Done():
		// Interrupts the fetch; the goroutine still closes its own session.
		_ = c.Close()
		return nil, ctx.Err()
	}
}

func (f *StarredFeed) fetch(c Client) ([]domain.Email, error) {
	if err := c.Connect(f.cfg.Addr); err != nil {
		return nil, err
	}
	if err := c.Login(f.cfg.User, f.cfg.Password); err != nil {
		return nil, err
	}
	if err := c.SelectMailbox(f.cfg.Mailbox); err != nil {
		return nil, err
	}
	uids, err := c.SearchFlagged()
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return []domain.Email{}, nil
	}
	messages, err := c.FetchMessages(uids)
	if err != nil {
		return nil, err
	}

	emails := make([]domain.Email, 0, len(messages))
	for _, msg := range messages {
		email, err := ParseMessage(msg)
		if err != nil {
			f.logger.Warn("skipping unparsable message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		if email.Date.IsZero() {
			email.Date = f.now()
		}
		emails = append(emails, email)
	}
	f.logger.Info("fetched starred mail",
		zap.String("mailbox", f.cfg.Mailbox),
		zap.Int("flagged", len(uids)),
		zap.Int("parsed", len(emails)))
	return emails, nil
}
