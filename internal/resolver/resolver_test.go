package resolver

import (
	"context"
	"testing"

	"mercado/internal/catalog"
	"mercado/internal/models"
	"mercado/internal/refdata"
)

type fakeIndex struct {
	products []models.Product
	queries  int
}

func (f *fakeIndex) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	f.queries++
	return f.products, nil
}

type fakePrices struct {
	overrides map[string]catalog.PriceInfo
}

func (f *fakePrices) Lookup(ctx context.Context, ean string) (catalog.PriceInfo, error) {
	if info, ok := f.overrides[ean]; ok {
		return info, nil
	}
	return catalog.PriceInfo{}, catalog.ErrNotFound
}

func product(ean, name string, price float64) models.Product {
	return models.Product{EAN: ean, Name: name, UnitPrice: price, Stock: 10, IsActive: true}
}

func pricesFor(products ...models.Product) *fakePrices {
	overrides := make(map[string]catalog.PriceInfo, len(products))
	for _, p := range products {
		overrides[p.EAN] = catalog.PriceInfo{
			EAN:     p.EAN,
			Price:   catalog.EffectivePrice(p.UnitPrice, p.SaleEnabled, p.SalePrice),
			InStock: p.InStock(),
			Active:  p.IsActive,
		}
	}
	return &fakePrices{overrides: overrides}
}

func emptyRef() *refdata.Data {
	return &refdata.Data{
		Conversions: []refdata.ConversionEntry{
			{Category: "frutas pequenas", Keywords: []string{"laranja"}, AverageUnitWeightKg: 0.200, DefaultUnit: refdata.UnitPiece},
		},
	}
}

func TestResolveGenericTermPicksLowestPrice(t *testing.T) {
	cheap := product("111", "Arroz Branco 5kg", 19.90)
	pricey := product("222", "Arroz Integral 5kg", 24.50)
	index := &fakeIndex{products: []models.Product{pricey, cheap}}

	r := New(index, pricesFor(cheap, pricey), emptyRef(), 3, 15)
	result := r.Resolve(context.Background(), "arroz")

	if result.Kind != KindResolved {
		t.Fatalf("expected resolved, got kind %v reason %q", result.Kind, result.Reason)
	}
	if result.Product.EAN != "111" {
		t.Fatalf("expected the cheapest product, got %s", result.Product.Name)
	}
	if result.Price != 19.90 {
		t.Fatalf("expected validated price 19.90, got %v", result.Price)
	}
}

func TestResolveSizeQualifierEliminates(t *testing.T) {
	twoLiters := product("111", "Coca-Cola 2L", 9.50)
	small := product("222", "Coca-Cola 600ml", 5.00)
	index := &fakeIndex{products: []models.Product{small, twoLiters}}

	r := New(index, pricesFor(twoLiters, small), emptyRef(), 3, 15)

	result := r.Resolve(context.Background(), "coca 2l")
	if result.Kind != KindResolved || result.Product.EAN != "111" {
		t.Fatalf("expected the 2L listing, got kind %v product %s", result.Kind, result.Product.Name)
	}

	// No product carries the declared size: must be NotFound, never a guess.
	result = r.Resolve(context.Background(), "coca 3l")
	if result.Kind != KindNotFound {
		t.Fatalf("expected not found for a size nothing matches, got kind %v", result.Kind)
	}
}

func TestResolveBrandQualifierEliminates(t *testing.T) {
	branded := product("111", "Arroz Tio João 5kg", 24.99)
	other := product("222", "Arroz Camil 5kg", 19.90)
	index := &fakeIndex{products: []models.Product{other, branded}}

	ref := emptyRef()
	ref.Brands = []string{"tio joao", "camil"}

	r := New(index, pricesFor(branded, other), ref, 3, 15)
	result := r.Resolve(context.Background(), "arroz tio joão")

	if result.Kind != KindResolved || result.Product.EAN != "111" {
		t.Fatalf("expected the branded product despite higher price, got kind %v product %s", result.Kind, result.Product.Name)
	}
}

func TestResolvePriceValidationWalksToNextCandidate(t *testing.T) {
	cheap := product("111", "Feijão Carioca 1kg", 6.90)
	next := product("222", "Feijão Preto 1kg", 7.50)
	index := &fakeIndex{products: []models.Product{cheap, next}}

	prices := pricesFor(cheap, next)
	// Cheapest candidate is out of stock at validation time.
	info := prices.overrides["111"]
	info.InStock = false
	prices.overrides["111"] = info

	r := New(index, prices, emptyRef(), 3, 15)
	result := r.Resolve(context.Background(), "feijao")

	if result.Kind != KindResolved || result.Product.EAN != "222" {
		t.Fatalf("expected the next candidate after a failed validation, got kind %v product %s", result.Kind, result.Product.Name)
	}
}

func TestResolveAllCandidatesFailValidation(t *testing.T) {
	only := product("111", "Feijão Carioca 1kg", 6.90)
	index := &fakeIndex{products: []models.Product{only}}

	// Price store has no entry at all: the lookup errors, the walk exhausts.
	r := New(index, &fakePrices{}, emptyRef(), 3, 15)
	result := r.Resolve(context.Background(), "feijao")

	if result.Kind != KindNotFound {
		t.Fatalf("expected not found when no candidate validates, got kind %v", result.Kind)
	}
}

func TestResolveOptionWordListsSurvivors(t *testing.T) {
	a := product("111", "Suco de Uva 1L", 8.00)
	b := product("222", "Suco de Laranja 1L", 7.00)
	index := &fakeIndex{products: []models.Product{a, b}}

	ref := emptyRef()
	ref.OptionWords = []string{"quais", "opcoes"}

	r := New(index, pricesFor(a, b), ref, 3, 15)
	result := r.Resolve(context.Background(), "quais sucos")

	if result.Kind != KindAmbiguous {
		t.Fatalf("expected ambiguous with options, got kind %v", result.Kind)
	}
	if len(result.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(result.Options))
	}
}

func TestResolveMonetaryPrefersBulkListing(t *testing.T) {
	bulk := product("111", "Presunto Cozido Fatiado", 40.00)
	bulk.IsBulkByWeight = true
	packaged := product("222", "Presunto Defumado 200g", 12.00)
	index := &fakeIndex{products: []models.Product{packaged, bulk}}

	r := New(index, pricesFor(bulk, packaged), emptyRef(), 3, 15)
	result := r.Resolve(context.Background(), "5 reais de presunto")

	if result.Kind != KindResolved || result.Product.EAN != "111" {
		t.Fatalf("expected the weight-priced listing for a monetary term, got kind %v product %s", result.Kind, result.Product.Name)
	}
}

func TestResolveBrandedMonetaryTermUsesExactMatch(t *testing.T) {
	bulk := product("111", "Presunto Sadia Fatiado", 40.00)
	bulk.IsBulkByWeight = true
	packaged := product("222", "Presunto Sadia 200g", 12.00)
	index := &fakeIndex{products: []models.Product{bulk, packaged}}

	ref := emptyRef()
	ref.Brands = []string{"sadia"}

	// A declared brand outranks the monetary bulk preference.
	r := New(index, pricesFor(bulk, packaged), ref, 3, 15)
	result := r.Resolve(context.Background(), "5 reais de presunto sadia")

	if result.Kind != KindResolved || result.Product.EAN != "222" {
		t.Fatalf("expected the exact branded match, got kind %v product %s", result.Kind, result.Product.Name)
	}
	if result.Reason != "marca/tamanho exatos" {
		t.Fatalf("expected exact-match reason, got %q", result.Reason)
	}
}

func TestResolvePackRequestPrefersPackListing(t *testing.T) {
	unit := product("111", "Agua Mineral Sem Gas", 2.50)
	unit.PackagingKind = models.PackagingUnit
	pack := product("222", "Agua Mineral Fardo 12un", 24.00)
	pack.PackagingKind = models.PackagingPack
	index := &fakeIndex{products: []models.Product{unit, pack}}

	ref := emptyRef()
	ref.PackWords = []string{"fardo"}

	r := New(index, pricesFor(unit, pack), ref, 3, 15)
	result := r.Resolve(context.Background(), "fardo de agua")

	if result.Kind != KindResolved || result.Product.EAN != "222" {
		t.Fatalf("expected the pack listing despite its higher price, got kind %v product %s", result.Kind, result.Product.Name)
	}
}

func TestResolvePackRequestFallsBackToUnit(t *testing.T) {
	unit := product("111", "Agua Mineral Sem Gas", 2.50)
	unit.PackagingKind = models.PackagingUnit
	index := &fakeIndex{products: []models.Product{unit}}

	ref := emptyRef()
	ref.PackWords = []string{"fardo"}

	r := New(index, pricesFor(unit), ref, 3, 15)
	result := r.Resolve(context.Background(), "fardo de agua")

	if result.Kind != KindResolved || result.Product.EAN != "111" {
		t.Fatalf("expected the unitary equivalent, got kind %v product %s", result.Kind, result.Product.Name)
	}
	if result.Reason != "fardo indisponivel, unidade equivalente" {
		t.Fatalf("expected the fallback reason, got %q", result.Reason)
	}
}

func TestResolveQueryBudget(t *testing.T) {
	index := &fakeIndex{} // never returns anything
	ref := emptyRef()
	ref.TermTranslations = map[string]string{"danone": "iogurte"}

	r := New(index, &fakePrices{}, ref, 3, 15)
	result := r.Resolve(context.Background(), "danone de laranja")

	if result.Kind != KindNotFound {
		t.Fatalf("expected not found, got kind %v", result.Kind)
	}
	if index.queries > 3 {
		t.Fatalf("expected at most 3 index queries, got %d", index.queries)
	}
	if index.queries == 0 {
		t.Fatal("expected the index to be queried at least once")
	}
}

func TestResolveStopsQueryingAfterSurvivors(t *testing.T) {
	only := product("111", "Laranja Pera", 4.99)
	index := &fakeIndex{products: []models.Product{only}}

	r := New(index, pricesFor(only), emptyRef(), 3, 15)
	result := r.Resolve(context.Background(), "laranja")

	if result.Kind != KindResolved {
		t.Fatalf("expected resolved, got kind %v", result.Kind)
	}
	if index.queries != 1 {
		t.Fatalf("expected a single index query once survivors exist, got %d", index.queries)
	}
}

func TestResolveEmptyTerm(t *testing.T) {
	r := New(&fakeIndex{}, &fakePrices{}, emptyRef(), 3, 15)
	if result := r.Resolve(context.Background(), "   "); result.Kind != KindNotFound {
		t.Fatalf("expected not found for a blank term, got kind %v", result.Kind)
	}
}
