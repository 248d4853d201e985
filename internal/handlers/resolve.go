package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"mercado/internal/catalog"
	"mercado/internal/resolver"
)

// batchConcurrency caps parallel resolutions within one batch call so a long
// shopping list cannot exhaust the Mongo connection pool.
const batchConcurrency = 5

/*
GET /tools/products?query=&limit=
Raw candidate search for the orchestrator, no elimination applied.
*/
func SearchProducts(db *mongo.Database, index catalog.Index, searchLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /tools/products"
		defer handlePanic(c, route)

		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			respondWithError(c, http.StatusBadRequest, route, "query is required")
			return
		}

		limit, err := parseLimitParam(c.Query("limit"), int64(searchLimit))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		products, err := index.Search(c.Request.Context(), query, int(limit))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] query=%q returning %d products", route, query, len(products))
		c.JSON(http.StatusOK, products)
	}
}

type resolveRequest struct {
	Termo string `json:"termo" binding:"required"`
}

/*
POST /tools/resolve {termo}
NotFound and Ambiguous are 200 payload variants, not HTTP errors: the
orchestrator relays them to the customer as conversation.
*/
func ResolveItem(db *mongo.Database, r *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/resolve"
		defer handlePanic(c, route)

		var req resolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "termo is required")
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		result := r.Resolve(c.Request.Context(), req.Termo)
		c.JSON(http.StatusOK, result)
	}
}

type resolveBatchRequest struct {
	Termos []string `json:"termos" binding:"required"`
}

/*
POST /tools/resolve-batch {termos:[]}
Resolves a shopping list in parallel. Results keep the request order; one
term's failure never hides another's answer.
*/
func ResolveBatch(db *mongo.Database, r *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/resolve-batch"
		defer handlePanic(c, route)

		var req resolveBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Termos) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "termos is required")
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		results := make([]resolver.Result, len(req.Termos))
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.SetLimit(batchConcurrency)
		for i, termo := range req.Termos {
			i, termo := i, termo
			g.Go(func() error {
				results[i] = r.Resolve(ctx, termo)
				return nil
			})
		}
		_ = g.Wait()

		log.Printf("[%s] resolved %d terms", route, len(results))
		c.JSON(http.StatusOK, gin.H{"resultados": results})
	}
}
