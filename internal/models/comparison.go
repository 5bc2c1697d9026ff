package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes the two document columns of the form.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindPO      Kind = "po"
)

// SlotsPerKind is the fixed number of documents accepted per kind.
const SlotsPerKind = 3

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindInvoice:
		return KindInvoice, nil
	case KindPO, "purchaseorder", "purchase_order":
		return KindPO, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// FieldName is the multipart field for the 0-based slot index: invoice1..invoice3, po1..po3.
func (k Kind) FieldName(index int) string {
	return fmt.Sprintf("%s%d", k, index+1)
}

// IsUploadField reports whether field names one of the upload slots.
func IsUploadField(field string) bool {
	for _, kind := range []Kind{KindInvoice, KindPO} {
		for i := range SlotsPerKind {
			if field == kind.FieldName(i) {
				return true
			}
		}
	}
	return false
}

func (k Kind) Label() string {
	if k == KindPO {
		return "PO"
	}
	return "Invoice"
}

// Upload is one file part of a comparison request.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Identifier is an invoice or PO number. Models return these as strings or
// numbers; both decode to the same text.
type Identifier string

func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = Identifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = Identifier(n.String())
	return nil
}

func (id Identifier) String() string {
	return string(id)
}

// ComparisonResult is one invoice/PO pair as returned by POST /api/compare/.
type ComparisonResult struct {
	InvoiceNumber    Identifier `json:"invoice_number"`
	PONumber         Identifier `json:"po_number"`
	Match            bool       `json:"match"`
	Vendor           string     `json:"vendor,omitempty"`
	TotalAmount      *float64   `json:"total_amount,omitempty"`
	VendorMatch      *bool      `json:"vendor_match,omitempty"`
	TotalAmountMatch *bool      `json:"total_amount_match,omitempty"`
	ItemsMatch       *bool      `json:"items_match,omitempty"`
	Mismatches       []string   `json:"mismatches,omitempty"`
	Status           string     `json:"status"`
	Details          string     `json:"details"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExtractedFields is what the LLM pulls out of a single document.
type ExtractedFields struct {
	InvoiceNumber Identifier `json:"invoice_number"`
	PONumber      Identifier `json:"po_number"`
	Vendor        string     `json:"vendor"`
	Items         []Item     `json:"items"`
	TotalAmount   Amount     `json:"total_amount"`
}

// Item is a line item description. Models sometimes return objects instead of
// strings; those are kept as their compact JSON text.
type Item string

func (it *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*it = Item(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*it = Item(buf.String())
	return nil
}

// Amount is a total as the model reported it: a number, a numeric string, or
// missing. Present is false when the key was absent from the reply; a null or
// unparseable value is present but not Valid.
type Amount struct {
	Raw     string
	Value   float64
	Valid   bool
	Present bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = Amount{Raw: string(data), Present: true}
	if bytes.Equal(data, []byte("null")) {
		a.Raw = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		a.Raw = text
		a.Value, a.Valid = parseAmount(text)
		return nil
	}

	// JSON numbers, exponents included, need no cleanup.
	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		a.Value, a.Valid = v, true
	}
	return nil
}

// Float is the total used for comparison. A missing total counts as zero.
func (a Amount) Float() (float64, bool) {
	if !a.Present {
		return 0, true
	}
	return a.Value, a.Valid
}

// parseAmount reads a total written as text. It tolerates the decorations
// invoices carry: currency symbols or codes, spaces and thousands separators.
// An e or E is kept only as an exponent between a mantissa and its digits.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			b.WriteRune(r)
		case (r == 'e' || r == 'E') && isExponent(runes, i):
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isExponent(runes []rune, i int) bool {
	if i == 0 || i+1 >= len(runes) {
		return false
	}
	prev, next := runes[i-1], runes[i+1]
	if !(prev >= '0' && prev <= '9') && prev != '.' {
		return false
	}
	if next == '+' || next == '-' {
		if i+2 >= len(runes) {
			return false
		}
		next = runes[i+2]
	}
	return next >= '0' && next <= '9'
}

// Comparison is a persisted run of POST /api/compare/.
type Comparison struct {
	ID               string             `json:"id" db:"id"`
	InvoiceFilenames []string           `json:"invoice_filenames"`
	POFilenames      []string           `json:"po_filenames"`
	Results          []ComparisonResult `json:"results"`
	Error            *string            `json:"error,omitempty" db:"error"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty" db:"completed_at"`
}
