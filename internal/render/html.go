package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/BerylCAtieno/invoice-checker/internal/form"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// RefreshSeconds is how often a page rendered during a comparison reloads.
const RefreshSeconds = 2

type previewView struct {
	Label       string
	ContentType string
	// Source is trusted: it is produced by form.DataURI or another
	// form.PreviewFunc, never taken from request input as-is.
	Source template.URL
}

type slotView struct {
	form.SlotView
	Action string
}

type pageData struct {
	Invoices       []slotView
	POs            []slotView
	Loading        bool
	RefreshSeconds int
	HasPreviews    bool
	InvoicePreview []previewView
	POPreview      []previewView
	Error          string
	Results        []ResultView
}

// HTML writes the full page for st.
func HTML(w io.Writer, st form.State) error {
	data := pageData{
		Loading:        st.Loading,
		RefreshSeconds: RefreshSeconds,
		HasPreviews:    st.HasPreviews(),
		Error:          st.Error,
		Results:        NewResultViews(st.Results),
	}

	for _, s := range st.Invoices {
		data.Invoices = append(data.Invoices, newSlotView(s))
		if s.Preview != "" {
			data.InvoicePreview = append(data.InvoicePreview, newPreviewView(s))
		}
	}
	for _, s := range st.POs {
		data.POs = append(data.POs, newSlotView(s))
		if s.Preview != "" {
			data.POPreview = append(data.POPreview, newPreviewView(s))
		}
	}

	return pageTemplate.Execute(w, data)
}

// SelectPath is the upload route for a slot, with a 1-based index.
func SelectPath(s form.SlotView) string {
	return "/select/" + string(s.Kind) + "/" + string(rune('1'+s.Index))
}

func newSlotView(s form.SlotView) slotView {
	return slotView{SlotView: s, Action: SelectPath(s)}
}

func newPreviewView(s form.SlotView) previewView {
	contentType := s.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return previewView{
		Label:       s.Label(),
		ContentType: contentType,
		Source:      template.URL(s.Preview),
	}
}
