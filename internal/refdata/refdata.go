// Package refdata holds the static reference tables the engine loads once at
// startup: average unit weights per category, the term-translation
// dictionary, brand/flavor vocabularies and packaging classification rules.
// Everything is read-only after Load.
package refdata

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mercado/internal/normalize"
)

type Unit string

const (
	UnitPiece Unit = "piece"
	UnitKg    Unit = "kg"
)

// ConversionEntry maps a product category to its average unit weight. A term
// or product name matches the entry when it contains one of the keywords.
type ConversionEntry struct {
	Category            string   `yaml:"category"`
	Keywords            []string `yaml:"keywords"`
	AverageUnitWeightKg float64  `yaml:"averageUnitWeightKg"`
	DefaultUnit         Unit     `yaml:"defaultUnit"`
}

type Data struct {
	Conversions      []ConversionEntry `yaml:"conversions"`
	TermTranslations map[string]string `yaml:"termTranslations"`
	Brands           []string          `yaml:"brands"`
	Flavors          []string          `yaml:"flavors"`
	Variants         []string          `yaml:"variants"`
	PackWords        []string          `yaml:"packWords"`
	BulkWords        []string          `yaml:"bulkWords"`
	OptionWords      []string          `yaml:"optionWords"`
	PackCategories   []string          `yaml:"packCategories"`
}

// Load reads the reference file and folds every key so lookups work on
// accent-free lowercase text. The file is required: shipping without the
// weight table would silently break piece-to-weight conversion.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}

	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}
	data.fold()

	if len(data.Conversions) == 0 {
		return nil, fmt.Errorf("reference data: no conversion entries in %s", path)
	}
	return &data, nil
}

func (d *Data) fold() {
	for i := range d.Conversions {
		d.Conversions[i].Category = normalize.Fold(d.Conversions[i].Category)
		for j, kw := range d.Conversions[i].Keywords {
			d.Conversions[i].Keywords[j] = normalize.Fold(kw)
		}
		if d.Conversions[i].DefaultUnit == "" {
			d.Conversions[i].DefaultUnit = UnitPiece
		}
	}

	folded := make(map[string]string, len(d.TermTranslations))
	for k, v := range d.TermTranslations {
		folded[normalize.Fold(k)] = normalize.Fold(v)
	}
	d.TermTranslations = folded

	foldAll(d.Brands)
	foldAll(d.Flavors)
	foldAll(d.Variants)
	foldAll(d.PackWords)
	foldAll(d.BulkWords)
	foldAll(d.OptionWords)
	foldAll(d.PackCategories)
}

// PackCategory reports whether the text names a flexible bagged / bulk-grain
// category, which is sold as a pack rather than a single manufactured unit.
func (d *Data) PackCategory(foldedText string) bool {
	singular := depluralize(foldedText)
	for _, cat := range d.PackCategories {
		if containsWord(foldedText, cat) || containsWord(singular, cat) {
			return true
		}
	}
	return false
}

func foldAll(values []string) {
	for i, v := range values {
		values[i] = normalize.Fold(v)
	}
}

// Entry finds the conversion entry whose category name or keywords appear in
// the given folded text (a term or a product name). Matching tolerates plain
// plurals so "6 laranjas" still hits the "laranja" keyword.
func (d *Data) Entry(foldedText string) (ConversionEntry, bool) {
	singular := depluralize(foldedText)
	for _, entry := range d.Conversions {
		if entry.Category != "" && (containsWord(foldedText, entry.Category) || containsWord(singular, entry.Category)) {
			return entry, true
		}
		for _, kw := range entry.Keywords {
			if containsWord(foldedText, kw) || containsWord(singular, kw) {
				return entry, true
			}
		}
	}
	return ConversionEntry{}, false
}

func depluralize(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		if len(tok) > 3 && strings.HasSuffix(tok, "s") {
			tokens[i] = strings.TrimSuffix(tok, "s")
		}
	}
	return strings.Join(tokens, " ")
}

// WeightAveraged reports whether the text names a category sold by piece but
// priced by weight (fruit, bakery, butchery by piece).
func (d *Data) WeightAveraged(foldedText string) bool {
	entry, ok := d.Entry(foldedText)
	return ok && entry.DefaultUnit == UnitPiece && entry.AverageUnitWeightKg > 0
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		i += from
		before := i == 0 || text[i-1] == ' '
		after := i+len(word) == len(text) || text[i+len(word)] == ' '
		if before && after {
			return true
		}
		from = i + 1
	}
	return false
}
