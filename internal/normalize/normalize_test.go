package normalize

import (
	"reflect"
	"testing"
)

func TestFoldStripsAccentsAndCase(t *testing.T) {
	if got := Fold("  Pão   Francês "); got != "pao frances" {
		t.Fatalf("expected %q, got %q", "pao frances", got)
	}
	if got := Fold("AÇÚCAR"); got != "acucar" {
		t.Fatalf("expected %q, got %q", "acucar", got)
	}
}

func TestCanonicalizeUnits(t *testing.T) {
	tests := map[string]string{
		"coca 2 lts":        "coca 2l",
		"coca 2 litros":     "coca 2l",
		"1 quilo de arroz":  "1kg de arroz",
		"guarana 600 ml":    "guarana 600ml",
		"presunto 200 gr":   "presunto 200g",
		"arroz sem tamanho": "arroz sem tamanho",
	}
	for in, want := range tests {
		if got := CanonicalizeUnits(in); got != want {
			t.Fatalf("CanonicalizeUnits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnitToken(t *testing.T) {
	if got := UnitToken("coca 2l"); got != "2l" {
		t.Fatalf("expected 2l, got %q", got)
	}
	if got := UnitToken("arroz tio joao 5kg"); got != "5kg" {
		t.Fatalf("expected 5kg, got %q", got)
	}
	if got := UnitToken("arroz"); got != "" {
		t.Fatalf("expected no unit token, got %q", got)
	}
}

func TestHasUnitToleratesSpacing(t *testing.T) {
	if !HasUnit("Coca-Cola 2 L", "2l") {
		t.Fatal("expected 2 L to match token 2l")
	}
	if !HasUnit("Coca-Cola 2L Retornável", "2l") {
		t.Fatal("expected 2L to match token 2l")
	}
	if HasUnit("Coca-Cola 600ml", "2l") {
		t.Fatal("600ml must not match token 2l")
	}
	if HasUnit("Coca-Cola 12l", "2l") {
		t.Fatal("12l must not match token 2l")
	}
}

func TestMonetaryAmount(t *testing.T) {
	amount, rest, ok := MonetaryAmount("5 reais de presunto")
	if !ok || amount != 5 || rest != "presunto" {
		t.Fatalf("expected (5, presunto, true), got (%v, %q, %v)", amount, rest, ok)
	}

	amount, rest, ok = MonetaryAmount("R$ 10 reais de carne moida")
	if !ok || amount != 10 || rest != "carne moida" {
		t.Fatalf("expected (10, carne moida, true), got (%v, %q, %v)", amount, rest, ok)
	}

	if _, _, ok := MonetaryAmount("presunto fatiado"); ok {
		t.Fatal("term without monetary prefix must not parse as monetary")
	}
}

func TestSubstituteDropsStopwordsAndTranslates(t *testing.T) {
	translations := map[string]string{"danone": "iogurte"}
	if got := Substitute("danone de morango", translations); got != "iogurte morango" {
		t.Fatalf("expected %q, got %q", "iogurte morango", got)
	}
}

func TestQueriesDedupesAndBounds(t *testing.T) {
	// No translation, not bulk: substituted form equals the base, collapses
	// to a single query.
	got := Queries("arroz", nil, false)
	if !reflect.DeepEqual(got, []string{"arroz"}) {
		t.Fatalf("expected [arroz], got %v", got)
	}

	got = Queries("danone de morango", map[string]string{"danone": "iogurte"}, false)
	want := []string{"danone de morango", "iogurte morango"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Queries("laranja", nil, true)
	want = []string{"laranja", "laranja kg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Queries("danone de morango gelado", map[string]string{"danone": "iogurte"}, true)
	if len(got) > MaxQueries {
		t.Fatalf("expected at most %d queries, got %v", MaxQueries, got)
	}
}

func TestQueriesEmptyTerm(t *testing.T) {
	if got := Queries("   ", nil, false); got != nil {
		t.Fatalf("expected nil for blank term, got %v", got)
	}
}

func TestContentTokens(t *testing.T) {
	got := ContentTokens("6 laranjas de presente")
	want := []string{"laranjas", "presente"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
