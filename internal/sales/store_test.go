package sales

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"mercado/internal/models"
)

func testOrder(code string) models.Order {
	one := 1
	return models.Order{
		Code:          code,
		Address:       "Rua das Flores 123",
		PaymentMethod: "pix",
		Lines: []models.OrderLine{
			{Description: "Arroz Tio João 5kg", EAN: "111", UnitPrice: 24.99, UnitCount: &one, LineTotal: 24.99},
		},
	}
}

func TestRecordInsertsSale(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first record", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		store := NewStore(mt.DB, time.Second)
		id, err := store.Record(context.Background(), testOrder("abc-123"), "Maria", "5511999990000")
		if err != nil {
			mt.Fatalf("Record returned error: %v", err)
		}
		if id == "" {
			mt.Fatal("expected a sale id for a fresh order")
		}
	})
}

func TestRecordDuplicateOrderCodeReturnsExistingSale(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("retried finalize lands on the recorded sale", func(mt *mtest.T) {
		existing := primitive.NewObjectID()

		// The unique orderCode index rejects the second insert; the store
		// must answer with the already-recorded sale instead of failing.
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error index: orderCode_unique",
			}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".sales", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: existing},
				{Key: "orderCode", Value: "abc-123"},
			}),
		)

		store := NewStore(mt.DB, time.Second)
		id, err := store.Record(context.Background(), testOrder("abc-123"), "Maria", "5511999990000")
		if err != nil {
			mt.Fatalf("expected the existing sale, got error: %v", err)
		}
		if id != existing.Hex() {
			mt.Fatalf("expected the first sale's id %s, got %s", existing.Hex(), id)
		}
	})
}

func TestRecordDuplicateWithFailedLookup(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate but existing sale unreadable", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error index: orderCode_unique",
			}),
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    11600,
				Message: "interrupted at shutdown",
				Name:    "InterruptedAtShutdown",
			}),
		)

		store := NewStore(mt.DB, time.Second)
		if _, err := store.Record(context.Background(), testOrder("abc-123"), "Maria", "5511999990000"); err == nil {
			mt.Fatal("expected an error when the existing sale cannot be read")
		}
	})
}
