package mailview

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/slidexpress/workflow-service/internal/domain"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

func TestInlineImagesRewritesCID(t *testing.T) {
	attachments := []domain.EmailAttachment{
		{Filename: "logo.png", ContentType: "image/png", Content: pngBytes, ContentID: "<img1>"},
	}
	html, downloadable := InlineImages(`<img src="cid:img1">`, attachments)

	want := `<img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngBytes) + `">`
	if html != want {
		t.Errorf("html = %q, want %q", html, want)
	}
	if len(downloadable) != 0 {
		t.Errorf("downloadable = %v, want none", downloadable)
	}
}

func TestInlineImagesCaseInsensitiveAndRepeated(t *testing.T) {
	attachments := []domain.EmailAttachment{
		{ContentType: "image/gif", Content: []byte("GIF"), ContentID: "Logo@Mail"},
	}
	html, _ := InlineImages(`<img src="CID:logo@mail"><img src="cid:Logo@Mail">`, attachments)

	if strings.Contains(strings.ToLower(html), "cid:") {
		t.Fatalf("cid reference left in %q", html)
	}
	if got := strings.Count(html, "data:image/gif;base64,"); got != 2 {
		t.Errorf("data URI count = %d, want 2", got)
	}
}

func TestInlineImagesIdempotent(t *testing.T) {
	attachments := []domain.EmailAttachment{
		{ContentType: "image/png", Content: pngBytes, ContentID: "<img1>"},
	}
	once, _ := InlineImages(`<p><img src="cid:img1"></p>`, attachments)
	twice, _ := InlineImages(once, attachments)
	if once != twice {
		t.Errorf("second pass changed html:\n%q\n%q", once, twice)
	}
}

func TestInlineImagesKeepsPositionsOfDownloadables(t *testing.T) {
	attachments := []domain.EmailAttachment{
		{Filename: "inline.png", ContentType: "image/png", ContentID: "<a>"},
		{Filename: "report.pdf", ContentType: "application/pdf"},
		{Filename: "sig.txt", ContentType: "text/plain", ContentID: "<sig>"},
		{Filename: "brief.docx", ContentType: "application/msword"},
	}
	html, downloadable := InlineImages(`<p>cid:sig</p>`, attachments)

	if html != `<p>cid:sig</p>` {
		t.Errorf("non-image content-ID should not be rewritten, got %q", html)
	}
	if len(downloadable) != 2 {
		t.Fatalf("len(downloadable) = %d, want 2", len(downloadable))
	}
	if downloadable[0].Filename != "report.pdf" || downloadable[0].Index != 1 {
		t.Errorf("downloadable[0] = %+v, want report.pdf at 1", downloadable[0])
	}
	if downloadable[1].Filename != "brief.docx" || downloadable[1].Index != 3 {
		t.Errorf("downloadable[1] = %+v, want brief.docx at 3", downloadable[1])
	}
}

func TestInlineImagesWithoutHTML(t *testing.T) {
	attachments := []domain.EmailAttachment{
		{ContentType: "image/png", Content: pngBytes, ContentID: "<img1>"},
		{Filename: "a.pdf", ContentType: "application/pdf"},
	}
	html, downloadable := InlineImages("", attachments)
	if html != "" {
		t.Errorf("html = %q, want empty", html)
	}
	if len(downloadable) != 1 {
		t.Errorf("len(downloadable) = %d, want 1", len(downloadable))
	}
}

func TestInlineImagesEscapesPattern(t *testing.T) {
	attachments := []domain.EmailAttachment{
		{ContentType: "image/png", Content: pngBytes, ContentID: "<a.b>"},
	}
	html, _ := InlineImages(`cid:aXb`, attachments)
	if html != `cid:aXb` {
		t.Errorf("content-ID must match literally, got %q", html)
	}
}

func TestNormalizeContentID(t *testing.T) {
	tests := map[string]string{
		"<img1>":    "img1",
		"img1":      "img1",
		" <x@y.z> ": "x@y.z",
		"<>":        "",
	}
	for in, want := range tests {
		if got := NormalizeContentID(in); got != want {
			t.Errorf("NormalizeContentID(%q) = %q, want %q", in, got, want)
		}
	}
}
