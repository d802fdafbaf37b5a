package mailbox

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/mailview"
)

var errNoBody = errors.New("message has no body")

// ParseMessage decodes a fetched IMAP message. The internal date stands in
// for a missing Date header.
func ParseMessage(msg *imap.Message) (domain.Email, error) {
	r := msg.GetBody(&imap.BodySectionName{})
	if r == nil {
		return domain.Email{}, errNoBody
	}
	email, err := Parse(r)
	if err != nil {
		return domain.Email{}, err
	}
	if email.Date.IsZero() {
		email.Date = msg.InternalDate
	}
	return email, nil
}

// Parse reads an RFC 5322 message into an Email. Text parts without a
// Content-ID become the body; every other part is kept as an attachment in
// the order it appears.
func Parse(r io.Reader) (domain.Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return domain.Email{}, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	header := mr.Header
	email := domain.Email{
		To:          addresses(header, "To"),
		Cc:          addresses(header, "Cc"),
		Attachments: []domain.EmailAttachment{},
	}
	if id, err := header.MessageID(); err == nil && id != "" {
		email.MessageID = "<" + id + ">"
	}
	if from := addresses(header, "From"); len(from) > 0 {
		email.From = from[0]
	}
	if subject, err := header.Subject(); err == nil {
		email.Subject = subject
	}
	if date, err := header.Date(); err == nil {
		email.Date = date.UTC()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return email, fmt.Errorf("read part: %w", err)
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return email, fmt.Errorf("read part body: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, _ := h.ContentType()
			contentID := mailview.NormalizeContentID(h.Get("Content-Id"))
			filename := params["name"]
			if filename == "" {
				_, dispParams, _ := h.ContentDisposition()
				filename = dispParams["filename"]
			}
			if contentID == "" && filename == "" {
				switch contentType {
				case "text/html":
					email.Body.HTML += string(body)
					continue
				case "text/plain":
					email.Body.Text += string(body)
					continue
				}
			}
			email.Attachments = append(email.Attachments, attachment(len(email.Attachments), filename, contentType, contentID, body))
		case *mail.AttachmentHeader:
			contentType, _, _ := h.ContentType()
			filename, _ := h.Filename()
			contentID := mailview.NormalizeContentID(h.Get("Content-Id"))
			email.Attachments = append(email.Attachments, attachment(len(email.Attachments), filename, contentType, contentID, body))
		}
	}
	return email, nil
}

func attachment(index int, filename, contentType, contentID string, content []byte) domain.EmailAttachment {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if filename == "" {
		filename = fmt.Sprintf("attachment-%d", index+1)
	}
	return domain.EmailAttachment{
		Index:       index,
		Filename:    filename,
		ContentType: strings.ToLower(contentType),
		Size:        int64(len(content)),
		Content:     content,
		ContentID:   contentID,
	}
}

func addresses(h mail.Header, key string) []domain.Address {
	list, err := h.AddressList(key)
	if err != nil {
		return []domain.Address{}
	}
	out := make([]domain.Address, 0, len(list))
	for _, a := range list {
		out = append(out, domain.Address{Name: a.Name, Address: a.Address})
	}
	return out
}
