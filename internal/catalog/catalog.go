// Package catalog exposes the two read-only product services the resolver
// depends on: the search index and the authoritative price store. Both are
// backed by the products collection, but the price store always does a fresh
// read per lookup — search results are never trusted for pricing.
package catalog

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercado/internal/models"
	"mercado/internal/normalize"
)

// Index ranks catalog candidates for a query string.
type Index interface {
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// PriceStore is the source of truth for price and availability. Any price
// shown to a customer must come from here.
type PriceStore interface {
	Lookup(ctx context.Context, ean string) (PriceInfo, error)
}

// PriceInfo is one authoritative price read.
type PriceInfo struct {
	EAN     string
	Price   float64
	InStock bool
	Active  bool
}

var ErrNotFound = errors.New("catalog: product not found")

type MongoCatalog struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewMongoCatalog(db *mongo.Database, timeout time.Duration) *MongoCatalog {
	return &MongoCatalog{db: db, timeout: timeout}
}

var activeFilter = bson.M{
	"isActive":  bson.M{"$ne": false},
	"isDeleted": bson.M{"$ne": true},
}

// Search runs a text search first and falls back to a per-token regex match,
// mirroring the FTS-then-ILIKE cascade of the store's previous system.
func (c *MongoCatalog) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 15
	}

	products, err := c.textSearch(ctx, query, limit)
	if err != nil {
		log.Printf("[CATALOG] text search failed, falling back to regex: %v", err)
	}
	if len(products) > 0 {
		return products, nil
	}

	products, err = c.regexSearch(ctx, query, limit, true)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		return products, nil
	}

	// Loosen to any-token before giving up.
	return c.regexSearch(ctx, query, limit, false)
}

func (c *MongoCatalog) textSearch(ctx context.Context, query string, limit int) ([]models.Product, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	for k, v := range activeFilter {
		filter[k] = v
	}

	findOptions := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(int64(limit))

	cursor, err := c.db.Collection("products").Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeProducts(ctx, cursor)
}

func (c *MongoCatalog) regexSearch(ctx context.Context, query string, limit int, allTokens bool) ([]models.Product, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	clauses := make([]bson.M, 0, len(tokens))
	for _, tok := range tokens {
		clauses = append(clauses, bson.M{"$or": []bson.M{
			{"name": bson.M{"$regex": tok, "$options": "i"}},
			{"description": bson.M{"$regex": tok, "$options": "i"}},
		}})
	}

	filter := bson.M{}
	for k, v := range activeFilter {
		filter[k] = v
	}
	if allTokens {
		filter["$and"] = clauses
	} else {
		filter["$or"] = clauses
	}

	cursor, err := c.db.Collection("products").Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeProducts(ctx, cursor)
}

// Lookup is the authoritative price read. Soft-deleted products are invisible.
func (c *MongoCatalog) Lookup(ctx context.Context, ean string) (PriceInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var product models.Product
	err := c.db.Collection("products").FindOne(ctx, bson.M{
		"ean":       ean,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return PriceInfo{}, ErrNotFound
	}
	if err != nil {
		return PriceInfo{}, err
	}

	return PriceInfo{
		EAN:     product.EAN,
		Price:   EffectivePrice(product.UnitPrice, product.SaleEnabled, product.SalePrice),
		InStock: product.InStock(),
		Active:  product.IsActive,
	}, nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// TokenOverlap scores how much of the query's content survives in a product
// name. Used as the match score when the index backend has no native score.
func TokenOverlap(query, name string) float64 {
	queryTokens := normalize.ContentTokens(normalize.Fold(query))
	if len(queryTokens) == 0 {
		return 0
	}
	folded := normalize.Fold(name)
	hits := 0
	for _, tok := range queryTokens {
		if strings.Contains(folded, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}
