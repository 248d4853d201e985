// Package convert turns informal quantity expressions (piece counts, explicit
// weights, monetary amounts) into canonical order-line quantities using the
// static conversion table.
package convert

import (
	"fmt"
	"math"

	"mercado/internal/models"
	"mercado/internal/normalize"
	"mercado/internal/refdata"
)

// Unit is the quantity unit the customer made explicit, if any.
type Unit string

const (
	UnitNone  Unit = ""      // bare number
	UnitKg    Unit = "kg"    // explicit weight
	UnitMoney Unit = "money" // monetary amount ("5 reais de …")
)

// Input carries everything a conversion needs. UnitPrice must be the
// resolver-validated price; this package never fetches one.
type Input struct {
	Term           string
	RawQuantity    float64
	ExplicitUnit   Unit
	UnitPrice      float64
	IsBulkByWeight bool
}

// Quantity is the canonical (weightKg, unitCount) pair. At least one side is
// always set on a successful conversion.
type Quantity struct {
	WeightKg  *float64
	UnitCount *int
}

// ConversionError marks a quantity that cannot be put on an order line.
type ConversionError struct {
	Term   string
	Reason string
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("cannot convert quantity for %q: %s", e.Term, e.Reason)
}

// Convert applies the conversion rules:
//   - bare number on a weight-averaged category: piece count, weight from the
//     table's average unit weight;
//   - bare number otherwise: unit count;
//   - explicit weight: taken as kilograms directly;
//   - monetary amount on a bulk-priced product: weight = amount / price-per-kg.
//
// A zero or negative computed quantity is a ConversionError.
func Convert(in Input, ref *refdata.Data) (Quantity, error) {
	if in.RawQuantity <= 0 {
		return Quantity{}, ConversionError{Term: in.Term, Reason: "quantity must be positive"}
	}

	switch in.ExplicitUnit {
	case UnitKg:
		weight := roundKg(in.RawQuantity)
		if weight <= 0 {
			return Quantity{}, ConversionError{Term: in.Term, Reason: "weight rounds to zero"}
		}
		return Quantity{WeightKg: &weight}, nil

	case UnitMoney:
		if !in.IsBulkByWeight {
			return Quantity{}, ConversionError{Term: in.Term, Reason: "monetary amount requires a weight-priced product"}
		}
		if in.UnitPrice <= 0 {
			return Quantity{}, ConversionError{Term: in.Term, Reason: "no validated price per kg"}
		}
		weight := roundKg(in.RawQuantity / in.UnitPrice)
		if weight <= 0 {
			return Quantity{}, ConversionError{Term: in.Term, Reason: "amount too small for one weighing"}
		}
		return Quantity{WeightKg: &weight}, nil

	default:
		count := int(in.RawQuantity)
		if float64(count) != in.RawQuantity || count <= 0 {
			return Quantity{}, ConversionError{Term: in.Term, Reason: "piece count must be a whole number"}
		}

		folded := normalize.Fold(in.Term)
		if entry, ok := ref.Entry(folded); ok && entry.DefaultUnit == refdata.UnitPiece && entry.AverageUnitWeightKg > 0 {
			weight := roundKg(float64(count) * entry.AverageUnitWeightKg)
			if weight <= 0 {
				return Quantity{}, ConversionError{Term: in.Term, Reason: "missing average weight for category"}
			}
			return Quantity{WeightKg: &weight, UnitCount: &count}, nil
		}

		return Quantity{UnitCount: &count}, nil
	}
}

// ClassifyPackaging applies the static packaging rule: flexible bagged or
// bulk-grain categories sell as packs, everything else as a single unit. The
// term never overrides this.
func ClassifyPackaging(name string, isBulkByWeight bool, ref *refdata.Data) models.PackagingKind {
	if isBulkByWeight {
		return models.PackagingBulk
	}
	if ref.PackCategory(normalize.Fold(name)) {
		return models.PackagingPack
	}
	return models.PackagingUnit
}

func roundKg(v float64) float64 {
	return math.Round(v*1000) / 1000
}
