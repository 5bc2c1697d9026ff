package form

import (
	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

// Document is a selected file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// SlotView describes one slot for rendering.
type SlotView struct {
	Kind        models.Kind
	Index       int
	Field       string
	Selected    bool
	Filename    string
	ContentType string
	Size        int
	Preview     string
}

// Label is the human name of the slot, e.g. "Invoice 2" or "PO 1".
func (v SlotView) Label() string {
	return v.Kind.Label() + " " + string(rune('1'+v.Index))
}

func (s *slot) view(kind models.Kind, index int) SlotView {
	v := SlotView{
		Kind:    kind,
		Index:   index,
		Field:   kind.FieldName(index),
		Preview: s.preview,
	}
	if s.doc != nil {
		v.Selected = true
		v.Filename = s.doc.Name
		v.ContentType = s.doc.ContentType
		v.Size = len(s.doc.Data)
	}
	return v
}

// State is a point-in-time copy of a Form.
type State struct {
	Invoices [models.SlotsPerKind]SlotView
	POs      [models.SlotsPerKind]SlotView
	Results  []models.ComparisonResult
	Loading  bool
	Error    string
}

// HasPreviews reports whether any slot has a finished preview.
func (s State) HasPreviews() bool {
	for i := range models.SlotsPerKind {
		if s.Invoices[i].Preview != "" || s.POs[i].Preview != "" {
			return true
		}
	}
	return false
}

// SelectedCount is how many slots, of either kind, hold a document.
func (s State) SelectedCount() int {
	n := 0
	for i := range models.SlotsPerKind {
		if s.Invoices[i].Selected {
			n++
		}
		if s.POs[i].Selected {
			n++
		}
	}
	return n
}
