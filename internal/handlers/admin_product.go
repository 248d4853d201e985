package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercado/internal/catalog"
	"mercado/internal/convert"
	"mercado/internal/models"
	"mercado/internal/refdata"
	"mercado/internal/sales"
)

type productPayload struct {
	EAN            string   `json:"ean" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	UnitPrice      float64  `json:"unitPrice" binding:"required"`
	SaleEnabled    bool     `json:"saleEnabled"`
	SalePrice      float64  `json:"salePrice"`
	IsBulkByWeight bool     `json:"isBulkByWeight"`
	Category       []string `json:"category"`
	Stock          int      `json:"stock"`
	IsActive       *bool    `json:"isActive"`
}

/*
POST /admin/api/products
Upsert by EAN. The packaging kind is derived from the static classification
rule, never taken from the payload.
*/
func UpsertProduct(db *mongo.Database, ref *refdata.Data) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var payload productPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "ean, name and unitPrice are required")
			return
		}
		upsertProductByEAN(c, db, ref, route, payload)
	}
}

/*
PUT /admin/api/products/:ean
Same upsert, EAN taken from the path and required to match the payload.
*/
func UpdateProduct(db *mongo.Database, ref *refdata.Data) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:ean"
		defer handlePanic(c, route)

		var payload productPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "ean, name and unitPrice are required")
			return
		}
		ean := strings.TrimSpace(c.Param("ean"))
		if ean == "" || (payload.EAN != "" && payload.EAN != ean) {
			respondWithError(c, http.StatusBadRequest, route, "path ean and payload ean differ")
			return
		}
		payload.EAN = ean
		upsertProductByEAN(c, db, ref, route, payload)
	}
}

func upsertProductByEAN(c *gin.Context, db *mongo.Database, ref *refdata.Data, route string, payload productPayload) {
	if payload.UnitPrice <= 0 {
		respondWithError(c, http.StatusBadRequest, route, "unitPrice must be greater than 0")
		return
	}
	if err := catalog.ValidateSaleFields(payload.UnitPrice, payload.SaleEnabled, payload.SalePrice); err != nil {
		respondWithError(c, http.StatusBadRequest, route, err.Error())
		return
	}

	if err := ensureDBConnection(c.Request.Context(), db); err != nil {
		respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
		return
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	update := bson.M{
		"$set": bson.M{
			"name":           payload.Name,
			"description":    payload.Description,
			"unitPrice":      payload.UnitPrice,
			"saleEnabled":    payload.SaleEnabled,
			"salePrice":      payload.SalePrice,
			"isBulkByWeight": payload.IsBulkByWeight,
			"packagingKind":  convert.ClassifyPackaging(payload.Name, payload.IsBulkByWeight, ref),
			"category":       models.CategoryList(payload.Category),
			"stock":          payload.Stock,
			"isActive":       isActive,
			"isDeleted":      false,
		},
		"$setOnInsert": bson.M{
			"ean":       payload.EAN,
			"createdAt": time.Now(),
		},
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := db.Collection("products").UpdateOne(ctx,
		bson.M{"ean": payload.EAN}, update, options.Update().SetUpsert(true))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	log.Printf("[%s] ean=%s matched=%d upserted=%v", route, payload.EAN, res.MatchedCount, res.UpsertedID != nil)
	c.JSON(http.StatusOK, gin.H{"ok": true, "ean": payload.EAN})
}

/*
GET /admin/api/sales?limit=
*/
func GetSales(db *mongo.Database, store *sales.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/sales"
		defer handlePanic(c, route)

		limit, err := parseLimitParam(c.Query("limit"), 50)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		list, err := store.Recent(c.Request.Context(), limit)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, list)
	}
}
