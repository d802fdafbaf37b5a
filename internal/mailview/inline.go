// Package mailview turns stored emails into standalone, display-ready records.
package mailview

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// InlineImages rewrites cid: references to image attachments as data URIs and
// returns the attachments that remain downloadable. Any attachment carrying a
// content-ID is treated as inline and dropped from the downloadable list, image
// or not. Downloadable attachments keep their original position in Index.
func InlineImages(html string, attachments []domain.EmailAttachment) (string, []domain.EmailAttachment) {
	downloadable := make([]domain.EmailAttachment, 0, len(attachments))
	for i, att := range attachments {
		if att.Inline() {
			continue
		}
		att.Index = i
		downloadable = append(downloadable, att)
	}

	if html == "" {
		return html, downloadable
	}
	for _, att := range attachments {
		if !att.Inline() || !strings.HasPrefix(att.ContentType, "image/") {
			continue
		}
		cid := NormalizeContentID(att.ContentID)
		if cid == "" {
			continue
		}
		html = cidPattern(cid).ReplaceAllLiteralString(html, DataURI(att.ContentType, att.Content))
	}
	return html, downloadable
}

// NormalizeContentID strips the angle brackets a Content-ID header carries.
func NormalizeContentID(contentID string) string {
	contentID = strings.TrimSpace(contentID)
	contentID = strings.TrimPrefix(contentID, "<")
	return strings.TrimSuffix(contentID, ">")
}

// DataURI renders content as a base64 data URI.
func DataURI(contentType string, content []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

func cidPattern(cid string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)cid:` + regexp.QuoteMeta(cid))
}
