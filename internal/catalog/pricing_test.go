package catalog

import "testing"

func TestEffectivePriceUsesSalePriceWhenOnSale(t *testing.T) {
	if got := EffectivePrice(100, true, 75); got != 75 {
		t.Fatalf("expected sale price 75, got %v", got)
	}
	if got := EffectivePrice(100, false, 75); got != 100 {
		t.Fatalf("expected regular price 100 when sale disabled, got %v", got)
	}
}

func TestEffectivePriceIgnoresInvertedSalePrice(t *testing.T) {
	if got := EffectivePrice(100, true, 120); got != 100 {
		t.Fatalf("sale price above regular price must not apply, got %v", got)
	}
	if got := EffectivePrice(100, true, 0); got != 100 {
		t.Fatalf("zero sale price must not apply, got %v", got)
	}
}

func TestValidateSaleFields(t *testing.T) {
	if err := ValidateSaleFields(100, false, 0); err != nil {
		t.Fatalf("disabled sale should not validate sale price: %v", err)
	}
	if err := ValidateSaleFields(100, true, 0); err == nil {
		t.Fatal("expected error for missing sale price")
	}
	for _, salePrice := range []float64{100, 120} {
		if err := ValidateSaleFields(100, true, salePrice); err == nil {
			t.Fatalf("expected error for salePrice=%v", salePrice)
		}
	}
	if err := ValidateSaleFields(100, true, 80); err != nil {
		t.Fatalf("valid sale rejected: %v", err)
	}
}

func TestTokenOverlap(t *testing.T) {
	if got := TokenOverlap("arroz tio joao 5kg", "ARROZ TIO JOAO TIPO 1 5KG"); got != 1 {
		t.Fatalf("expected full overlap, got %v", got)
	}
	if got := TokenOverlap("arroz tio joao", "FEIJAO CARIOCA CAMIL 1KG"); got != 0 {
		t.Fatalf("expected zero overlap, got %v", got)
	}
}
