package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"mercado/internal/ledger"
	"mercado/internal/models"
	"mercado/internal/normalize"
	"mercado/internal/sales"
)

type totalRequest struct {
	SessionID   string   `json:"sessionId" binding:"required"`
	DeliveryFee *float64 `json:"deliveryFee" binding:"required"`
}

/*
POST /tools/total {sessionId,deliveryFee}
Recomputes totals from the ledger. Idempotent; repeated calls with the same
fee return the same numbers.
*/
func ComputeTotal(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/total"
		defer handlePanic(c, route)

		var req totalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "sessionId and deliveryFee are required")
			return
		}

		totals, err := book.ComputeTotal(req.SessionID, *req.DeliveryFee)
		if err != nil {
			respondLedgerError(c, route, err)
			return
		}

		log.Printf("[%s] session=%s subtotal=%.2f total=%.2f", route, req.SessionID, totals.Subtotal, totals.GrandTotal)
		c.JSON(http.StatusOK, totals)
	}
}

type addressRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Address   string `json:"address" binding:"required"`
}

/*
POST /tools/address {sessionId,address}
*/
func SaveAddress(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/address"
		defer handlePanic(c, route)

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "sessionId and address are required")
			return
		}

		phase, err := book.SaveAddress(req.SessionID, strings.TrimSpace(req.Address))
		if err != nil {
			respondLedgerError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "phase": phase})
	}
}

type paymentRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Method    string `json:"method" binding:"required"`
}

/*
POST /tools/payment {sessionId,method}
*/
func DeclarePayment(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/payment"
		defer handlePanic(c, route)

		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "sessionId and method are required")
			return
		}

		method, ok := canonicalPaymentMethod(req.Method)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "unknown payment method, expected dinheiro, cartao or pix")
			return
		}

		if err := book.DeclarePayment(req.SessionID, method); err != nil {
			respondLedgerError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "method": method})
	}
}

// canonicalPaymentMethod folds the customer's wording onto the three methods
// the store accepts.
func canonicalPaymentMethod(raw string) (string, bool) {
	folded := normalize.Fold(raw)
	switch {
	case strings.Contains(folded, "pix"):
		return "pix", true
	case strings.Contains(folded, "cartao"), strings.Contains(folded, "credito"),
		strings.Contains(folded, "debito"), strings.Contains(folded, "card"):
		return "cartao", true
	case strings.Contains(folded, "dinheiro"), strings.Contains(folded, "especie"),
		strings.Contains(folded, "cash"):
		return "dinheiro", true
	}
	return "", false
}

type finalizeRequest struct {
	SessionID     string   `json:"sessionId" binding:"required"`
	CustomerName  string   `json:"customerName"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	PaymentMethod string   `json:"paymentMethod"`
	DeliveryFee   *float64 `json:"deliveryFee" binding:"required"`
}

/*
POST /tools/finalize
Commits the sale inside the session lock; the phase only reaches Finalized
after the insert succeeds. A 502 here means nothing was finalized and the
same call can be retried.
*/
func FinalizeOrder(db *mongo.Database, book *ledger.Ledger, store *sales.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/finalize"
		defer handlePanic(c, route)

		var req finalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "sessionId and deliveryFee are required")
			return
		}

		paymentMethod := ""
		if strings.TrimSpace(req.PaymentMethod) != "" {
			method, ok := canonicalPaymentMethod(req.PaymentMethod)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "unknown payment method, expected dinheiro, cartao or pix")
				return
			}
			paymentMethod = method
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var orderID string
		finalized, err := book.Finalize(req.SessionID, strings.TrimSpace(req.Address), paymentMethod, *req.DeliveryFee,
			func(order models.Order) error {
				id, recordErr := store.Record(c.Request.Context(), order, req.CustomerName, req.Phone)
				if recordErr != nil {
					return recordErr
				}
				orderID = id
				return nil
			})
		if err != nil {
			respondLedgerError(c, route, err)
			return
		}

		log.Printf("[%s] session=%s order %s finalized, sale %s", route, req.SessionID, finalized.Code, orderID)
		c.JSON(http.StatusOK, gin.H{"ok": true, "orderId": orderID, "orderCode": finalized.Code})
	}
}
