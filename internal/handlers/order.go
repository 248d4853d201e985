package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mercado/internal/convert"
	"mercado/internal/ledger"
	"mercado/internal/models"
	"mercado/internal/refdata"
)

type addItemRequest struct {
	SessionID   string `json:"sessionId" binding:"required"`
	EAN         string `json:"ean"`
	Description string `json:"description" binding:"required"`
	// UnitPrice must come from a resolution, never from the conversation.
	UnitPrice      float64  `json:"unitPrice" binding:"required"`
	IsBulkByWeight bool     `json:"isBulkByWeight"`
	WeightKg       *float64 `json:"weightKg"`
	UnitCount      *int     `json:"unitCount"`
	RawQuantity    *float64 `json:"rawQuantity"`
	Unit           string   `json:"unit"` // "", "kg" or "money"
	Note           string   `json:"note"`
}

/*
POST /tools/items
Accepts either a canonical quantity (weightKg/unitCount) or a raw quantity
plus unit hint, which is converted here against the conversion table.
*/
func AddItem(book *ledger.Ledger, ref *refdata.Data) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/items"
		defer handlePanic(c, route)

		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "sessionId, description and unitPrice are required")
			return
		}

		line := models.OrderLine{
			EAN:         req.EAN,
			Description: req.Description,
			UnitPrice:   req.UnitPrice,
			WeightKg:    req.WeightKg,
			UnitCount:   req.UnitCount,
			Note:        req.Note,
		}

		if req.RawQuantity != nil {
			qty, err := convert.Convert(convert.Input{
				Term:           req.Description,
				RawQuantity:    *req.RawQuantity,
				ExplicitUnit:   convert.Unit(req.Unit),
				UnitPrice:      req.UnitPrice,
				IsBulkByWeight: req.IsBulkByWeight,
			}, ref)
			if err != nil {
				respondLedgerError(c, route, err)
				return
			}
			line.WeightKg = qty.WeightKg
			line.UnitCount = qty.UnitCount
		}

		added, err := book.AddItem(req.SessionID, line)
		if err != nil {
			respondLedgerError(c, route, err)
			return
		}

		log.Printf("[%s] session=%s added %q total=%.2f", route, req.SessionID, added.Description, added.LineTotal)
		c.JSON(http.StatusOK, gin.H{"ok": true, "line": added, "order": book.Snapshot(req.SessionID)})
	}
}

type removeItemRequest struct {
	SessionID  string   `json:"sessionId" binding:"required"`
	LineIndex  *int     `json:"lineIndex" binding:"required"`
	PartialQty *float64 `json:"partialQty"`
}

/*
DELETE /tools/items
Removes a whole line, or reduces it when partialQty is given.
*/
func RemoveItem(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /tools/items"
		defer handlePanic(c, route)

		var req removeItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "sessionId and lineIndex are required")
			return
		}

		if err := book.RemoveItem(req.SessionID, *req.LineIndex, req.PartialQty); err != nil {
			respondLedgerError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "order": book.Snapshot(req.SessionID)})
	}
}

/*
GET /tools/orders/:sessionId
Snapshot of the running order with freshly computed totals.
*/
func GetOrder(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /tools/orders/:sessionId"
		defer handlePanic(c, route)

		sessionID := strings.TrimSpace(c.Param("sessionId"))
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, route, "sessionId is required")
			return
		}

		order := book.Snapshot(sessionID)
		c.JSON(http.StatusOK, gin.H{
			"order":  order,
			"totals": ledger.Compute(order.Lines, order.DeliveryFee),
		})
	}
}

/*
POST /tools/orders/:sessionId/reset
Discards the running order and starts a fresh one. Legal from any phase.
*/
func ResetOrder(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/orders/:sessionId/reset"
		defer handlePanic(c, route)

		sessionID := strings.TrimSpace(c.Param("sessionId"))
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, route, "sessionId is required")
			return
		}

		book.Reset(sessionID)
		log.Printf("[%s] session=%s order reset", route, sessionID)
		c.JSON(http.StatusOK, gin.H{"ok": true, "order": book.Snapshot(sessionID)})
	}
}

/*
POST /tools/orders/:sessionId/close
Moves a building order toward checkout.
*/
func CloseOrder(book *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tools/orders/:sessionId/close"
		defer handlePanic(c, route)

		sessionID := strings.TrimSpace(c.Param("sessionId"))
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, route, "sessionId is required")
			return
		}

		phase, err := book.RequestClose(sessionID)
		if err != nil {
			respondLedgerError(c, route, err)
			return
		}

		log.Printf("[%s] session=%s phase=%s", route, sessionID, phase)
		c.JSON(http.StatusOK, gin.H{"ok": true, "phase": phase})
	}
}
