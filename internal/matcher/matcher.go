// Package matcher decides whether an invoice agrees with its purchase order.
//
// Three checks run on the extracted fields: the vendor names must be equal
// ignoring case and surrounding space, the totals must be equal to the cent,
// and every invoice line item must be found inside a distinct PO line item
// with both documents listing the same number of items.
package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/BerylCAtieno/invoice-checker/internal/models"
)

const (
	DetailsMatch    = "✓ Perfect Match!"
	DetailsMismatch = "✗ Mismatch"
	StatusApproved  = "APPROVED - No issues found!"
	statusReview    = "NEEDS REVIEW - "
)

// Compare builds the result for one invoice/PO pair.
func Compare(invoice, po *models.ExtractedFields) models.ComparisonResult {
	vendorMatch := normalizeVendor(invoice.Vendor) == normalizeVendor(po.Vendor)

	invoiceTotal, poTotal, totalMatch := compareTotals(invoice.TotalAmount, po.TotalAmount)

	invoiceItems := lowerItems(invoice.Items)
	poItems := lowerItems(po.Items)
	unmatched := UnmatchedItems(invoiceItems, poItems)
	itemsMatch := len(unmatched) == 0 && len(invoiceItems) == len(poItems)

	if vendorMatch && totalMatch && itemsMatch {
		total := invoiceTotal
		return models.ComparisonResult{
			InvoiceNumber: invoice.InvoiceNumber,
			PONumber:      po.PONumber,
			Match:         true,
			Vendor:        invoice.Vendor,
			TotalAmount:   &total,
			Details:       DetailsMatch,
			Status:        StatusApproved,
		}
	}

	var mismatches []string
	if !vendorMatch {
		mismatches = append(mismatches, fmt.Sprintf("Vendor mismatch: Invoice ('%s') vs PO ('%s')", vendorLabel(invoice.Vendor), vendorLabel(po.Vendor)))
	}
	if !totalMatch {
		mismatches = append(mismatches, fmt.Sprintf("Price difference of $%.2f!", math.Abs(invoiceTotal-poTotal)))
	}
	if !itemsMatch {
		mismatches = append(mismatches, fmt.Sprintf("Items do not match. Unmatched invoice items: %s", formatList(unmatched)))
	}

	return models.ComparisonResult{
		InvoiceNumber:    invoice.InvoiceNumber,
		PONumber:         po.PONumber,
		Match:            false,
		VendorMatch:      &vendorMatch,
		TotalAmountMatch: &totalMatch,
		ItemsMatch:       &itemsMatch,
		Mismatches:       mismatches,
		Details:          DetailsMismatch,
		Status:           statusReview + mismatches[0],
	}
}

func normalizeVendor(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// vendorLabel is the vendor as quoted in a mismatch line; a vendor the model
// did not report reads None.
func vendorLabel(v string) string {
	if v == "" {
		return "None"
	}
	return v
}

// compareTotals returns both totals and whether they agree. A missing total is
// zero. When either side could not be parsed both totals are reported as zero
// and the check fails.
func compareTotals(invoice, po models.Amount) (float64, float64, bool) {
	invoiceTotal, invoiceOK := invoice.Float()
	poTotal, poOK := po.Float()
	if !invoiceOK || !poOK {
		return 0, 0, false
	}
	return invoiceTotal, poTotal, toCents(invoiceTotal) == toCents(poTotal)
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func lowerItems(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, strings.ToLower(string(it)))
	}
	return out
}

// UnmatchedItems returns the invoice items, in order, for which no PO item
// contains them. Each PO item can satisfy at most one invoice item.
func UnmatchedItems(invoiceItems, poItems []string) []string {
	remaining := append([]string(nil), poItems...)
	var unmatched []string

	for _, item := range invoiceItems {
		found := false
		for i, candidate := range remaining {
			if strings.Contains(candidate, item) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, item)
		}
	}

	return unmatched
}

// formatList renders items as a bracketed, quoted list: ['a', 'b'].
func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		if strings.Contains(it, "'") && !strings.Contains(it, `"`) {
			quoted[i] = `"` + strings.ReplaceAll(it, `\`, `\\`) + `"`
			continue
		}
		escaped := strings.ReplaceAll(it, `\`, `\\`)
		quoted[i] = "'" + strings.ReplaceAll(escaped, "'", `\'`) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
