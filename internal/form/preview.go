package form

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// PreviewFunc encodes a document for inline display. A failing PreviewFunc
// leaves the slot without a preview and nothing else happens: no error is
// shown and submission is unaffected.
type PreviewFunc func(Document) (string, error)

// DataURI encodes the document as data:<type>;base64,<payload>. Documents
// without a type are labelled application/octet-stream; a type that does not
// parse is an error.
func DataURI(doc Document) (string, error) {
	contentType := strings.TrimSpace(doc.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", doc.ContentType, err)
	}

	var sb strings.Builder
	sb.WriteString("data:")
	sb.WriteString(mime.FormatMediaType(mediaType, params))
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(doc.Data))
	return sb.String(), nil
}
