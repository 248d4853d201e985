// Package resolver turns an ambiguous free-text item reference into a
// validated, priced catalog entry. It owns the elimination filters, the
// ranking policy, the query budget and the price-validation walk; it never
// invents a price.
package resolver

import (
	"context"
	"fmt"
	"log"
	"sort"

	"mercado/internal/catalog"
	"mercado/internal/models"
	"mercado/internal/normalize"
	"mercado/internal/refdata"
)

type Resolver struct {
	index       catalog.Index
	prices      catalog.PriceStore
	ref         *refdata.Data
	queryBudget int
	searchLimit int
}

func New(index catalog.Index, prices catalog.PriceStore, ref *refdata.Data, queryBudget, searchLimit int) *Resolver {
	if queryBudget <= 0 {
		queryBudget = 3
	}
	if searchLimit <= 0 {
		searchLimit = 15
	}
	return &Resolver{index: index, prices: prices, ref: ref, queryBudget: queryBudget, searchLimit: searchLimit}
}

// Resolve maps a term to exactly one of Resolved, Ambiguous or NotFound.
// At most queryBudget index queries are issued per call, across all
// normalized query variants.
func (r *Resolver) Resolve(ctx context.Context, term string) Result {
	q := ExtractQualifiers(term, r.ref)

	folded := normalize.Fold(q.SearchTerm)
	bulkLikely := q.WantsBulk || r.ref.WeightAveraged(folded)
	queries := normalize.Queries(q.SearchTerm, r.ref.TermTranslations, bulkLikely)
	if len(queries) == 0 {
		return NotFound("termo de busca vazio")
	}
	if len(queries) > r.queryBudget {
		queries = queries[:r.queryBudget]
	}

	var survivors []Candidate
	seen := make(map[string]bool)
	for _, query := range queries {
		products, err := r.index.Search(ctx, query, r.searchLimit)
		if err != nil {
			log.Printf("[RESOLVE] [WARN] index query %q failed: %v", query, err)
			continue
		}
		fresh := make([]models.Product, 0, len(products))
		for _, p := range products {
			if seen[p.EAN] {
				continue
			}
			seen[p.EAN] = true
			fresh = append(fresh, p)
		}
		survivors = append(survivors, Eliminate(fresh, q)...)
		if len(survivors) > 0 {
			break
		}
	}

	if len(survivors) == 0 {
		return NotFound(fmt.Sprintf("nenhum produto compativel com %q", term))
	}

	for i := range survivors {
		survivors[i].Score = catalog.TokenOverlap(q.SearchTerm, survivors[i].Product.Name)
	}

	if q.WantsOptions {
		return Ambiguous(toOptions(survivors))
	}

	ranked, reason, ambiguous := rank(survivors, q)
	if ambiguous {
		return Ambiguous(toOptions(ranked))
	}

	return r.validate(ctx, ranked, q, reason, term)
}

// rank orders survivors by the selection policy. It reports ambiguity when no
// rule discriminates between the top candidates.
func rank(survivors []Candidate, q Qualifiers) (ranked []Candidate, reason string, ambiguous bool) {
	ranked = survivors

	switch {
	case !q.Generic():
		// Declared brand/size wins over every other rule, monetary intent
		// included. Ties broken by the longest token overlap with the term,
		// then the shorter name; a tie on both is a genuine ambiguity, not a
		// guess.
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return len(ranked[i].Product.Name) < len(ranked[j].Product.Name)
		})
		if len(ranked) > 1 &&
			ranked[0].Score == ranked[1].Score &&
			len(ranked[0].Product.Name) == len(ranked[1].Product.Name) {
			return ranked, "", true
		}
		return ranked, "marca/tamanho exatos", false

	case q.Monetary > 0 || q.WantsBulk:
		// Monetary or explicit bulk purchase: weight-priced listings first,
		// cheapest within each group.
		sort.SliceStable(ranked, func(i, j int) bool {
			bi, bj := ranked[i].Product.IsBulkByWeight, ranked[j].Product.IsBulkByWeight
			if bi != bj {
				return bi
			}
			return effective(ranked[i].Product) < effective(ranked[j].Product)
		})
		return ranked, "granel por peso", false

	default:
		// Generic term: lowest effective price wins.
		sort.SliceStable(ranked, func(i, j int) bool {
			return effective(ranked[i].Product) < effective(ranked[j].Product)
		})
		if len(ranked) > 1 &&
			effective(ranked[0].Product) == effective(ranked[1].Product) &&
			ranked[0].Score == ranked[1].Score {
			return ranked, "", true
		}
		return ranked, "menor preco entre as opcoes", false
	}
}

// packFallback handles pack requests. Pack listings move ahead of unitary
// ones when any survived; when none did, the unitary equivalent is offered
// instead, with the reason saying so.
func packFallback(ranked []Candidate, q Qualifiers) (reordered []Candidate, note string) {
	if !q.WantsPack {
		return ranked, ""
	}

	hasPack := false
	for _, c := range ranked {
		if c.Product.PackagingKind == models.PackagingPack {
			hasPack = true
			break
		}
	}
	if !hasPack {
		return ranked, "fardo indisponivel, unidade equivalente"
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		pi := ranked[i].Product.PackagingKind == models.PackagingPack
		pj := ranked[j].Product.PackagingKind == models.PackagingPack
		return pi && !pj
	})
	return ranked, ""
}

// validate walks the ranked survivors and returns the first candidate whose
// price survives an authoritative read. Stale, zero, inactive, out-of-stock
// and timed-out lookups all advance to the next candidate.
func (r *Resolver) validate(ctx context.Context, ranked []Candidate, q Qualifiers, reason, term string) Result {
	ranked, note := packFallback(ranked, q)
	if note != "" {
		reason = note
	}

	for _, candidate := range ranked {
		info, err := r.prices.Lookup(ctx, candidate.Product.EAN)
		if err != nil {
			log.Printf("[RESOLVE] [WARN] price lookup %s failed: %v", candidate.Product.EAN, err)
			continue
		}
		if info.Price <= 0 || !info.Active || !info.InStock {
			continue
		}
		log.Printf("[RESOLVE] [INFO] %q -> %s (%s) R$ %.2f", term, candidate.Product.Name, reason, info.Price)
		return Resolved(candidate.Product, info.Price, reason)
	}

	return NotFound(fmt.Sprintf("nenhum preco valido para %q", term))
}

func effective(p models.Product) float64 {
	return catalog.EffectivePrice(p.UnitPrice, p.SaleEnabled, p.SalePrice)
}

func toOptions(survivors []Candidate) []Option {
	options := make([]Option, 0, len(survivors))
	for _, c := range survivors {
		options = append(options, Option{Nome: c.Product.Name, Preco: effective(c.Product)})
	}
	return options
}
