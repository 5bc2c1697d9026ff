package extractor

import (
	"path/filepath"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extract returns the plain text of an uploaded document. The filename
// extension decides the format first, then the reported content type; anything
// that is neither PDF nor DOCX is read as text.
func Extract(filename, contentType string, data []byte) (string, error) {
	switch DetectFormat(filename, contentType) {
	case ContentTypePDF:
		return ExtractPDF(data)
	case ContentTypeDOCX:
		return ExtractDOCX(data)
	default:
		if err := ValidateTXT(data); err != nil {
			return "", err
		}
		return ExtractTXT(data)
	}
}

// DetectFormat maps a filename and reported content type to the canonical MIME
// type used by Extract.
func DetectFormat(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ContentTypePDF
	case ".docx":
		return ContentTypeDOCX
	case ".txt", ".csv", ".md":
		return "text/plain"
	}

	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch {
	case contentType == ContentTypePDF:
		return ContentTypePDF
	case isDOCXContentType(contentType):
		return ContentTypeDOCX
	}
	return "text/plain"
}

// isDOCXContentType handles the DOCX MIME variations browsers send.
func isDOCXContentType(contentType string) bool {
	switch contentType {
	case ContentTypeDOCX,
		"application/vnd.openxmlformats-officedocument.wordprocessingml",
		"application/docx",
		"application/x-docx":
		return true
	}
	return false
}
