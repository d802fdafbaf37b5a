package mailview

import (
	"strings"
	"time"

	"github.com/slidexpress/workflow-service/internal/domain"
)

const (
	unknownAddress = "Unknown"
	noSubject      = "No Subject"
	noContent      = "No content"
)

// EmailView is an email projected for a ticket's correlated-mail panel.
type EmailView struct {
	ID          string           `json:"_id"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	BodyHTML    *string          `json:"bodyHtml"`
	Date        time.Time        `json:"date"`
	Attachments []AttachmentView `json:"attachments"`
}

// AttachmentView is downloadable attachment metadata. Index addresses the
// attachment within the stored message, not within this filtered list.
type AttachmentView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Index       int    `json:"index"`
}

// Project builds the display record for email.
func Project(email *domain.Email) EmailView {
	html, downloadable := InlineImages(email.Body.HTML, email.Attachments)

	view := EmailView{
		ID:          email.ID,
		From:        addressDisplay(email.From, unknownAddress),
		To:          recipientsDisplay(email.To),
		Subject:     fallback(email.Subject, noSubject),
		Body:        fallback(email.Body.Text, noContent),
		Date:        email.Date,
		Attachments: make([]AttachmentView, 0, len(downloadable)),
	}
	if html != "" {
		view.BodyHTML = &html
	}
	for _, att := range downloadable {
		view.Attachments = append(view.Attachments, AttachmentView{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.Size,
			Index:       att.Index,
		})
	}
	return view
}

// ProjectAll projects emails preserving order.
func ProjectAll(emails []domain.Email) []EmailView {
	views := make([]EmailView, 0, len(emails))
	for i := range emails {
		views = append(views, Project(&emails[i]))
	}
	return views
}

func addressDisplay(addr domain.Address, def string) string {
	if addr.Address != "" {
		return addr.Address
	}
	if addr.Name != "" {
		return addr.Name
	}
	return def
}

func recipientsDisplay(recipients []domain.Address) string {
	parts := make([]string, 0, len(recipients))
	for _, r := range recipients {
		parts = append(parts, addressDisplay(r, ""))
	}
	joined := strings.Join(parts, ", ")
	if joined == "" {
		return unknownAddress
	}
	return joined
}

func fallback(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
