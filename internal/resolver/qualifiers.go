package resolver

import (
	"strings"

	"mercado/internal/models"
	"mercado/internal/normalize"
	"mercado/internal/refdata"
)

// Qualifiers are the hard constraints explicitly present in a term. A
// qualifier that is absent never eliminates anything — absence is not a
// constraint.
type Qualifiers struct {
	SizeToken    string
	Brand        string
	Flavor       string
	Variants     []string
	WantsPack    bool
	WantsBulk    bool
	WantsOptions bool
	Monetary     float64
	SearchTerm   string // term with the monetary prefix stripped
}

// Generic reports whether the term declares neither brand nor size, which
// switches ranking to lowest-price.
func (q Qualifiers) Generic() bool {
	return q.Brand == "" && q.SizeToken == ""
}

// ExtractQualifiers parses the explicit constraints out of a raw term using
// the reference vocabularies.
func ExtractQualifiers(term string, ref *refdata.Data) Qualifiers {
	q := Qualifiers{SearchTerm: term}

	if amount, rest, ok := normalize.MonetaryAmount(term); ok {
		q.Monetary = amount
		q.WantsBulk = true
		q.SearchTerm = rest
	}

	folded := normalize.CanonicalizeUnits(normalize.Fold(q.SearchTerm))
	q.SizeToken = normalize.UnitToken(folded)
	q.Brand = longestMatch(folded, ref.Brands)
	q.Flavor = longestMatch(folded, ref.Flavors)
	for _, v := range ref.Variants {
		if strings.Contains(folded, v) {
			q.Variants = append(q.Variants, v)
		}
	}
	for _, w := range ref.PackWords {
		if strings.Contains(folded, w) {
			q.WantsPack = true
			break
		}
	}
	for _, w := range ref.BulkWords {
		if strings.Contains(folded, w) {
			q.WantsBulk = true
			break
		}
	}
	for _, w := range ref.OptionWords {
		if strings.Contains(folded, w) {
			q.WantsOptions = true
			break
		}
	}
	return q
}

func longestMatch(folded string, vocabulary []string) string {
	best := ""
	for _, entry := range vocabulary {
		if len(entry) > len(best) && strings.Contains(folded, entry) {
			best = entry
		}
	}
	return best
}

// Candidate is a transient scoring wrapper, produced and discarded within one
// resolution call.
type Candidate struct {
	Product models.Product
	Score   float64
	Tags    []string
}

// Eliminate applies the hard filters: a candidate conflicting with any
// explicit qualifier is discarded. Survivors carry tags naming the filters
// they passed, for auditability of the resolution reason.
func Eliminate(products []models.Product, q Qualifiers) []Candidate {
	survivors := make([]Candidate, 0, len(products))
	for _, p := range products {
		name := normalize.Fold(p.Name + " " + p.Description)

		var tags []string
		if q.SizeToken != "" {
			if !normalize.HasUnit(p.Name, q.SizeToken) && !normalize.HasUnit(p.Description, q.SizeToken) {
				continue
			}
			tags = append(tags, "size:"+q.SizeToken)
		}
		if q.Brand != "" {
			if !strings.Contains(name, q.Brand) {
				continue
			}
			tags = append(tags, "brand:"+q.Brand)
		}
		if q.Flavor != "" {
			if !strings.Contains(name, q.Flavor) {
				continue
			}
			tags = append(tags, "flavor:"+q.Flavor)
		}
		conflicted := false
		for _, v := range q.Variants {
			if !strings.Contains(name, v) {
				conflicted = true
				break
			}
		}
		if conflicted {
			continue
		}
		if len(q.Variants) > 0 {
			tags = append(tags, "variant:"+strings.Join(q.Variants, "+"))
		}

		survivors = append(survivors, Candidate{Product: p, Tags: tags})
	}
	return survivors
}
