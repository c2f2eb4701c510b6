// Package shared holds small helpers used across the document modules.
package shared

// LineTotal derives a line total from quantity and unit price. Totals are
// always recomputed server-side; caller-supplied values are ignored.
func LineTotal(quantity int, unitPrice float64) float64 {
	return float64(quantity) * unitPrice
}

// InvoiceAmounts derives the HT/TVA/TTC amounts of an invoice from the sum
// of its line totals, the discount and the VAT rate (percent).
func InvoiceAmounts(lineSum, remise, tauxTVA float64) (ht, tva, ttc float64) {
	ht = lineSum - remise
	if ht < 0 {
		ht = 0
	}
	tva = ht * (tauxTVA / 100)
	ttc = ht + tva
	return
}
