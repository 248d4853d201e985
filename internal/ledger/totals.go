package ledger

import (
	"github.com/shopspring/decimal"

	"mercado/internal/models"
)

// Totals is one deterministic computation over the ledger. It is recomputed
// on demand and never served from a cache.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	GrandTotal  float64 `json:"grandTotal"`
}

// LineTotal computes unitPrice × quantity with decimal arithmetic, rounded to
// cents. Weight takes precedence: on a weight-averaged line both sides are
// set and the store charges by the kilogram.
func LineTotal(unitPrice float64, weightKg *float64, unitCount *int) float64 {
	price := decimal.NewFromFloat(unitPrice)

	var qty decimal.Decimal
	switch {
	case weightKg != nil:
		qty = decimal.NewFromFloat(*weightKg)
	case unitCount != nil:
		qty = decimal.NewFromInt(int64(*unitCount))
	default:
		return 0
	}

	total, _ := price.Mul(qty).Round(2).Float64()
	return total
}

// Compute sums line totals and adds the delivery fee, all in decimal.
func Compute(lines []models.OrderLine, deliveryFee float64) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(line.LineTotal))
	}
	subtotal = subtotal.Round(2)
	fee := decimal.NewFromFloat(deliveryFee).Round(2)

	subtotalF, _ := subtotal.Float64()
	feeF, _ := fee.Float64()
	grandF, _ := subtotal.Add(fee).Round(2).Float64()

	return Totals{Subtotal: subtotalF, DeliveryFee: feeF, GrandTotal: grandF}
}
