package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PackagingKind classifies how a product is sold: a single manufactured item,
// a multi-unit pack, or loose goods priced by weight.
type PackagingKind string

const (
	PackagingUnit PackagingKind = "unit"
	PackagingPack PackagingKind = "pack"
	PackagingBulk PackagingKind = "bulk"
)

// Product is an immutable catalog snapshot fetched per lookup. The price on a
// snapshot is never authoritative beyond the resolution that fetched it.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	EAN            string             `bson:"ean" json:"ean"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	UnitPrice      float64            `bson:"unitPrice" json:"unitPrice"`
	SaleEnabled    bool               `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice      float64            `bson:"salePrice" json:"salePrice"`
	IsBulkByWeight bool               `bson:"isBulkByWeight" json:"isBulkByWeight"`
	PackagingKind  PackagingKind      `bson:"packagingKind" json:"packagingKind"`
	Category       CategoryList       `bson:"category" json:"category"`
	Stock          int                `bson:"stock" json:"stock"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	IsDeleted      bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
