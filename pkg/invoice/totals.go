package invoice

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidItem reports a line item with a negative quantity or price.
var ErrInvalidItem = errors.New("invalid line item")

// Totals holds the computed invoice amounts. Subtotal, TaxAmount and
// Total are each rounded to two decimal places independently, so
// Subtotal+TaxAmount can differ from Total by one paisa. Callers depend
// on the existing figures; do not re-round one from the others.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	TaxRatePercent float64 `json:"tax_rate_percent"`
	Total          float64 `json:"total"`
}

// CalculateTotals sums the items and applies a single uniform tax rate
// (a fraction, e.g. 0.18) to the whole subtotal.
func CalculateTotals(items []LineItem, taxRate float64) (Totals, error) {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity < 0 {
			return Totals{}, errors.Wrapf(ErrInvalidItem, "item %q has negative quantity %d", it.Name, it.Quantity)
		}
		if it.UnitPrice < 0 {
			return Totals{}, errors.Wrapf(ErrInvalidItem, "item %q has negative price %v", it.Name, it.UnitPrice)
		}
		line := decimal.NewFromInt(int64(it.Quantity)).Mul(decimal.NewFromFloat(it.UnitPrice))
		subtotal = subtotal.Add(line)
	}

	rate := decimal.NewFromFloat(taxRate)
	tax := subtotal.Mul(rate)
	total := subtotal.Add(tax)

	return Totals{
		Subtotal:       subtotal.Round(2).InexactFloat64(),
		TaxAmount:      tax.Round(2).InexactFloat64(),
		TaxRatePercent: rate.Mul(decimal.NewFromInt(100)).InexactFloat64(),
		Total:          total.Round(2).InexactFloat64(),
	}, nil
}

// LineAmount returns quantity × unit price rounded to two decimals, as
// shown in the rendered items table.
func (it LineItem) LineAmount() float64 {
	return decimal.NewFromInt(int64(it.Quantity)).
		Mul(decimal.NewFromFloat(it.UnitPrice)).
		Round(2).InexactFloat64()
}
