package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mercado/internal/convert"
	"mercado/internal/ledger"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondLedgerError maps domain errors onto HTTP statuses: bad quantities are
// the caller's fault (400), phase violations are conflicts (409) with state
// untouched, a failed finalize commit is an upstream failure (502) that is
// safe to retry.
func respondLedgerError(c *gin.Context, route string, err error) {
	var conv convert.ConversionError
	var illegal ledger.IllegalTransitionError
	var finalize ledger.FinalizeFailure

	switch {
	case errors.As(err, &conv):
		respondWithError(c, http.StatusBadRequest, route, conv.Error())
	case errors.Is(err, ledger.ErrBadLine):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.As(err, &illegal):
		respondWithError(c, http.StatusConflict, route, illegal.Error())
	case errors.As(err, &finalize):
		respondWithError(c, http.StatusBadGateway, route, finalize.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, route, err.Error())
	}
}

func parseLimitParam(raw string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return limit, nil
}
