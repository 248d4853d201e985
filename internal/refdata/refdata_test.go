package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
conversions:
  - category: frutas pequenas
    keywords: [laranja, banana, maçã]
    averageUnitWeightKg: 0.200
    defaultUnit: piece
  - category: pão francês
    keywords: [pao, paozinho]
    averageUnitWeightKg: 0.050
    defaultUnit: piece
  - category: frios fatiados
    keywords: [presunto, mussarela]
    defaultUnit: kg
termTranslations:
  Danone: iogurte
brands: [Tio João]
packCategories: [arroz, feijão]
`

func writeTestData(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatalf("writing test data: %v", err)
	}
	return path
}

func TestLoadFoldsKeys(t *testing.T) {
	data, err := Load(writeTestData(t))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if data.Conversions[0].Category != "frutas pequenas" {
		t.Fatalf("unexpected category %q", data.Conversions[0].Category)
	}
	if data.Conversions[0].Keywords[2] != "maca" {
		t.Fatalf("expected folded keyword maca, got %q", data.Conversions[0].Keywords[2])
	}
	if got := data.TermTranslations["danone"]; got != "iogurte" {
		t.Fatalf("expected folded translation key, got %q", got)
	}
	if data.Brands[0] != "tio joao" {
		t.Fatalf("expected folded brand, got %q", data.Brands[0])
	}
}

func TestLoadRejectsEmptyConversions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	if err := os.WriteFile(path, []byte("brands: [x]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for reference data without conversions")
	}
}

func TestEntryMatchesKeywordAndPlural(t *testing.T) {
	data, err := Load(writeTestData(t))
	if err != nil {
		t.Fatal(err)
	}

	entry, ok := data.Entry("6 laranjas")
	if !ok || entry.AverageUnitWeightKg != 0.200 {
		t.Fatalf("expected laranjas to match frutas pequenas, got %+v ok=%v", entry, ok)
	}

	entry, ok = data.Entry("presunto fatiado")
	if !ok || entry.DefaultUnit != UnitKg {
		t.Fatalf("expected presunto to default to kg, got %+v ok=%v", entry, ok)
	}

	if _, ok := data.Entry("laranjada"); ok {
		t.Fatal("laranjada must not match the laranja keyword")
	}
}

func TestWeightAveraged(t *testing.T) {
	data, err := Load(writeTestData(t))
	if err != nil {
		t.Fatal(err)
	}

	if !data.WeightAveraged("laranja") {
		t.Fatal("laranja is sold by piece with an average weight")
	}
	if data.WeightAveraged("presunto") {
		t.Fatal("presunto has no average weight, must not be weight-averaged")
	}
}

func TestPackCategory(t *testing.T) {
	data, err := Load(writeTestData(t))
	if err != nil {
		t.Fatal(err)
	}

	if !data.PackCategory("arroz branco tipo 1") {
		t.Fatal("arroz is a pack category")
	}
	if data.PackCategory("leite integral") {
		t.Fatal("leite is not a pack category")
	}
}
