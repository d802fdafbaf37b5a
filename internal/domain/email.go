package domain

import (
	"strings"
	"time"
)

// Email is a message ingested from the coordinator mailbox.
type Email struct {
	ID          string
	MessageID   string
	From        Address
	To          []Address
	Cc          []Address
	Subject     string
	Body        EmailBody
	Attachments []EmailAttachment
	Date        time.Time
	IsStarred   bool
	WorkspaceID string
	FetchedBy   *string
	JobID       *string
	CreatedAt   time.Time
}

// Address is a display name and mailbox pair.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// EmailBody holds both renderings of a message.
type EmailBody struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// EmailAttachment is a MIME part stored alongside its message. Index is its
// position in the message as ingested and doubles as the download handle.
type EmailAttachment struct {
	Index       int
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
	ContentID   string
}

// Inline reports whether the part is referenced from the HTML body by content-ID.
func (a EmailAttachment) Inline() bool {
	return strings.TrimSpace(a.ContentID) != ""
}
