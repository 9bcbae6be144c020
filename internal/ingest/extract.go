package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
)

// ExtractPages returns per-page text for a local document. PDF pages are
// extracted with the pdf reader; plain text and markdown files are treated as
// form-feed-separated pages. Pages that fail extraction come back as empty
// strings so page numbering stays aligned with the document.
func ExtractPages(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		return extractPlain(path)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unreadable page, keep the slot so page ranges stay correct.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, cleanPage(text))
	}
	return pages, nil
}

func extractPlain(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	parts := strings.Split(string(raw), "\f")
	pages := make([]string, 0, len(parts))
	for _, p := range parts {
		pages = append(pages, cleanPage(p))
	}
	return pages, nil
}

// cleanPage collapses whitespace runs the same way for every document type so
// chunk boundaries do not depend on the extraction backend. A single blank
// line is kept because the chunker cuts on paragraph boundaries.
func cleanPage(text string) string {
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
