// Package render turns form state into output: an HTML page for the browser
// front end and styled text for the terminal. Both share ResultView so the
// wording of a result is identical everywhere.
package render

import (
	"fmt"

	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// ResultView is one comparison result laid out as display lines.
type ResultView struct {
	Match      bool
	Headline   string
	Pairing    string
	Checks     []string
	Mismatches []string
	Status     string
}

func NewResultView(r models.ComparisonResult) ResultView {
	v := ResultView{
		Match:      r.Match,
		Headline:   r.Details,
		Pairing:    fmt.Sprintf("Invoice #%s matches PO #%s", r.InvoiceNumber, r.PONumber),
		Mismatches: r.Mismatches,
		Status:     "→ Status: " + r.Status,
	}

	if r.Match {
		var total float64
		if r.TotalAmount != nil {
			total = *r.TotalAmount
		}
		v.Checks = []string{
			fmt.Sprintf("Vendor matches: %s %s", r.Vendor, checkMark),
			fmt.Sprintf("Total amount matches: $%.2f %s", total, checkMark),
			"All items match " + checkMark,
		}
		return v
	}

	v.Checks = []string{
		"Vendor matches: " + mark(r.VendorMatch),
		"Total amount matches: " + mark(r.TotalAmountMatch),
		"All items match: " + mark(r.ItemsMatch),
	}
	return v
}

func NewResultViews(results []models.ComparisonResult) []ResultView {
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		views = append(views, NewResultView(r))
	}
	return views
}

func mark(ok *bool) string {
	if ok != nil && *ok {
		return checkMark
	}
	return crossMark
}
