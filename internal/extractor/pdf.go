package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func ExtractPDF(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	pages := pageTexts(reader)
	if len(pages) == 0 {
		return "", fmt.Errorf("no text could be extracted from PDF")
	}
	return strings.Join(pages, "\n"), nil
}

// pageTexts returns the non-empty text of each page. Pages whose content
// stream cannot be decoded are skipped; scanned invoices often mix image-only
// pages with text pages.
func pageTexts(reader *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return pages
}
