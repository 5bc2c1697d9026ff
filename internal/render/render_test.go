package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/invoice-checker/internal/form"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

func boolPtr(b bool) *bool          { return &b }
func floatPtr(f float64) *float64 { return &f }

func matchedResult() models.ComparisonResult {
	return models.ComparisonResult{
		InvoiceNumber: "INV-1",
		PONumber:      "PO-7",
		Match:         true,
		Vendor:        "Acme",
		TotalAmount:   floatPtr(1250.5),
		Status:        "APPROVED - No issues found!",
		Details:       "✓ Perfect Match!",
	}
}

func mismatchedResult() models.ComparisonResult {
	return models.ComparisonResult{
		InvoiceNumber:    "INV-2",
		PONumber:         "PO-8",
		VendorMatch:      boolPtr(true),
		TotalAmountMatch: boolPtr(false),
		ItemsMatch:       boolPtr(false),
		Mismatches:       []string{"Price difference of $10.00!", "Items do not match. Unmatched invoice items: ['bolts']"},
		Status:           "NEEDS REVIEW - Price difference of $10.00!",
		Details:          "✗ Mismatch",
	}
}

func TestNewResultView_Matched(t *testing.T) {
	v := NewResultView(matchedResult())

	assert.True(t, v.Match)
	assert.Equal(t, "✓ Perfect Match!", v.Headline)
	assert.Equal(t, "Invoice #INV-1 matches PO #PO-7", v.Pairing)
	assert.Equal(t, []string{
		"Vendor matches: Acme ✓",
		"Total amount matches: $1250.50 ✓",
		"All items match ✓",
	}, v.Checks)
	assert.Empty(t, v.Mismatches)
	assert.Equal(t, "→ Status: APPROVED - No issues found!", v.Status)
}

func TestNewResultView_Mismatched(t *testing.T) {
	v := NewResultView(mismatchedResult())

	assert.False(t, v.Match)
	assert.Equal(t, []string{
		"Vendor matches: ✓",
		"Total amount matches: ✗",
		"All items match: ✗",
	}, v.Checks)
	assert.Len(t, v.Mismatches, 2)
	assert.Equal(t, "→ Status: NEEDS REVIEW - Price difference of $10.00!", v.Status)
}

func TestNewResultView_MissingFlagsRenderAsFailed(t *testing.T) {
	v := NewResultView(models.ComparisonResult{InvoiceNumber: "1", PONumber: "2"})
	assert.Equal(t, "Vendor matches: ✗", v.Checks[0])
}

func TestHTML_EmptyState(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, form.State{}))
	page := buf.String()

	assert.Contains(t, page, `action="/select/invoice/1"`)
	assert.Contains(t, page, `action="/select/po/3"`)
	assert.Contains(t, page, ">Compare</button>")
	assert.NotContains(t, page, "File Previews")
	assert.NotContains(t, page, `class="error"`)
	assert.NotContains(t, page, `id="results"`)
	assert.NotContains(t, page, "http-equiv")
}

func TestHTML_Loading(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, form.State{Loading: true}))
	page := buf.String()

	assert.Contains(t, page, "<button type=\"submit\" disabled>Comparing...</button>")
	assert.Contains(t, page, `http-equiv="refresh"`)
}

func TestHTML_PreviewsUseDocumentType(t *testing.T) {
	st := form.State{}
	st.Invoices[0] = form.SlotView{
		Kind: models.KindInvoice, Index: 0, Field: "invoice1", Selected: true,
		Filename: "a.png", ContentType: "image/png", Preview: "data:image/png;base64,AAAA",
	}
	st.POs[2] = form.SlotView{
		Kind: models.KindPO, Index: 2, Field: "po3", Selected: true,
		Filename: "b.pdf", ContentType: "application/pdf", Preview: "data:application/pdf;base64,JVBERg==",
	}

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, st))
	page := buf.String()

	assert.Contains(t, page, "File Previews")
	assert.Contains(t, page, `src="data:image/png;base64,AAAA" type="image/png"`)
	assert.Contains(t, page, `src="data:application/pdf;base64,JVBERg==" type="application/pdf"`)
	assert.Contains(t, page, "<small>b.pdf</small>")
}

func TestHTML_ErrorAndResults(t *testing.T) {
	st := form.State{
		Error:   "Error reading file: <bad>",
		Results: []models.ComparisonResult{matchedResult(), mismatchedResult()},
	}

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, st))
	page := buf.String()

	assert.Contains(t, page, "Error reading file: &lt;bad&gt;")
	assert.Contains(t, page, `<section id="results">`)
	assert.Contains(t, page, "scrollIntoView")
	assert.Contains(t, page, "Invoice #INV-1 matches PO #PO-7")
	assert.Contains(t, page, "Total amount matches: $1250.50 ✓")
	assert.Contains(t, page, "<h4>Mismatches:</h4>")
	assert.Contains(t, page, "<li>Price difference of $10.00!</li>")
	assert.Equal(t, 1, strings.Count(page, "<h4>Mismatches:</h4>"))
}

func plainRenderer(buf *bytes.Buffer) *TextRenderer {
	r := lipgloss.NewRenderer(buf)
	r.SetColorProfile(termenv.Ascii)
	return NewTextRendererWithStyles(buf, NewTextStyles(r))
}

func TestTextRenderer_State(t *testing.T) {
	var buf bytes.Buffer
	tr := plainRenderer(&buf)

	require.NoError(t, tr.State(form.State{Results: []models.ComparisonResult{matchedResult(), mismatchedResult()}}))
	out := buf.String()

	assert.Contains(t, out, "Comparison Results")
	assert.Contains(t, out, "✓ Perfect Match!\n")
	assert.Contains(t, out, "Vendor matches: Acme ✓\n")
	assert.Contains(t, out, "All items match: ✗\n")
	assert.Contains(t, out, "Mismatches:\n")
	assert.Contains(t, out, "• Price difference of $10.00!")
	assert.Contains(t, out, "→ Status: NEEDS REVIEW - Price difference of $10.00!\n")
	assert.Less(t, strings.Index(out, "INV-1"), strings.Index(out, "INV-2"))
}

func TestTextRenderer_ErrorOnly(t *testing.T) {
	var buf bytes.Buffer
	tr := plainRenderer(&buf)

	require.NoError(t, tr.State(form.State{Error: "An error occurred during comparison. Please try again."}))
	assert.Equal(t, "An error occurred during comparison. Please try again.\n", buf.String())
}

func TestTextRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainRenderer(&buf).State(form.State{}))
	assert.Empty(t, buf.String())
}

func TestTextRenderer_Selection(t *testing.T) {
	st := form.State{}
	st.POs[1] = form.SlotView{
		Kind: models.KindPO, Index: 1, Field: "po2", Selected: true,
		Filename: "po.txt", ContentType: "text/plain", Size: 4, Preview: "data:text/plain;base64,AAAA",
	}

	var buf bytes.Buffer
	require.NoError(t, plainRenderer(&buf).Selection(st))
	assert.Equal(t, "PO 2: po.txt (text/plain, 4 bytes) [preview]\n", buf.String())
}

func TestTextRenderer_EmptySelection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainRenderer(&buf).Selection(form.State{}))
	assert.Equal(t, "No documents selected.\n", buf.String())
}
