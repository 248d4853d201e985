package convert

import (
	"errors"
	"testing"

	"mercado/internal/models"
	"mercado/internal/refdata"
)

func testRef() *refdata.Data {
	return &refdata.Data{
		Conversions: []refdata.ConversionEntry{
			{Category: "frutas pequenas", Keywords: []string{"laranja", "banana"}, AverageUnitWeightKg: 0.200, DefaultUnit: refdata.UnitPiece},
			{Category: "pao frances", Keywords: []string{"pao"}, AverageUnitWeightKg: 0.050, DefaultUnit: refdata.UnitPiece},
			{Category: "frios fatiados", Keywords: []string{"presunto"}, DefaultUnit: refdata.UnitKg},
		},
		PackCategories: []string{"arroz", "feijao"},
	}
}

func TestConvertPieceCountWithAverageWeight(t *testing.T) {
	qty, err := Convert(Input{Term: "laranjas", RawQuantity: 6}, testRef())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if qty.WeightKg == nil || *qty.WeightKg != 1.200 {
		t.Fatalf("expected 1.200 kg, got %v", qty.WeightKg)
	}
	if qty.UnitCount == nil || *qty.UnitCount != 6 {
		t.Fatalf("expected 6 units, got %v", qty.UnitCount)
	}
}

func TestConvertPlainUnitCount(t *testing.T) {
	qty, err := Convert(Input{Term: "leite integral", RawQuantity: 2}, testRef())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if qty.WeightKg != nil {
		t.Fatalf("expected no weight for a non-averaged category, got %v", *qty.WeightKg)
	}
	if qty.UnitCount == nil || *qty.UnitCount != 2 {
		t.Fatalf("expected 2 units, got %v", qty.UnitCount)
	}
}

func TestConvertExplicitWeight(t *testing.T) {
	qty, err := Convert(Input{Term: "carne moida", RawQuantity: 1.5, ExplicitUnit: UnitKg}, testRef())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if qty.WeightKg == nil || *qty.WeightKg != 1.5 {
		t.Fatalf("expected 1.5 kg, got %v", qty.WeightKg)
	}
	if qty.UnitCount != nil {
		t.Fatal("explicit weight must not produce a unit count")
	}
}

func TestConvertMonetaryAmount(t *testing.T) {
	qty, err := Convert(Input{
		Term:           "presunto",
		RawQuantity:    5,
		ExplicitUnit:   UnitMoney,
		UnitPrice:      40,
		IsBulkByWeight: true,
	}, testRef())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if qty.WeightKg == nil || *qty.WeightKg != 0.125 {
		t.Fatalf("expected 0.125 kg for 5 reais at 40/kg, got %v", qty.WeightKg)
	}
}

func TestConvertMonetaryRequiresBulkPricing(t *testing.T) {
	_, err := Convert(Input{
		Term:         "coca 2l",
		RawQuantity:  10,
		ExplicitUnit: UnitMoney,
		UnitPrice:    9.5,
	}, testRef())
	var convErr ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
}

func TestConvertMonetaryRequiresPrice(t *testing.T) {
	_, err := Convert(Input{
		Term:           "presunto",
		RawQuantity:    5,
		ExplicitUnit:   UnitMoney,
		IsBulkByWeight: true,
	}, testRef())
	var convErr ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError without a validated price, got %v", err)
	}
}

func TestConvertRejectsBadQuantities(t *testing.T) {
	if _, err := Convert(Input{Term: "laranja", RawQuantity: 0}, testRef()); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if _, err := Convert(Input{Term: "laranja", RawQuantity: -2}, testRef()); err == nil {
		t.Fatal("expected error for negative quantity")
	}
	if _, err := Convert(Input{Term: "leite", RawQuantity: 2.5}, testRef()); err == nil {
		t.Fatal("expected error for fractional piece count")
	}
}

func TestClassifyPackaging(t *testing.T) {
	ref := testRef()

	if got := ClassifyPackaging("Presunto Fatiado", true, ref); got != models.PackagingBulk {
		t.Fatalf("expected bulk, got %v", got)
	}
	if got := ClassifyPackaging("Arroz Tio João 5kg", false, ref); got != models.PackagingPack {
		t.Fatalf("expected pack, got %v", got)
	}
	if got := ClassifyPackaging("Leite Integral 1L", false, ref); got != models.PackagingUnit {
		t.Fatalf("expected unit, got %v", got)
	}
}
