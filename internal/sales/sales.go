// Package sales persists finalized orders. A sale exists if and only if the
// phase machine reached Finalized through a confirmed finalize — this store
// is the only writer, and the unique order-code index makes retries land on
// the already-recorded document instead of double-selling.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercado/internal/ledger"
	"mercado/internal/models"
)

// SaleLine is the downstream fulfillment shape: whole-unit quantities with a
// per-unit price, weight estimates pushed into the note so the scale
// confirms the final value.
type SaleLine struct {
	Description string  `bson:"description" json:"description"`
	EAN         string  `bson:"ean,omitempty" json:"ean,omitempty"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unitPrice" json:"unitPrice"`
	Note        string  `bson:"note,omitempty" json:"note,omitempty"`
}

type Sale struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderCode     string             `bson:"orderCode" json:"orderCode"`
	CustomerName  string             `bson:"customerName" json:"customerName"`
	Phone         string             `bson:"phone" json:"phone"`
	Address       string             `bson:"address" json:"address"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	Lines         []SaleLine         `bson:"lines" json:"lines"`
	Subtotal      float64            `bson:"subtotal" json:"subtotal"`
	DeliveryFee   float64            `bson:"deliveryFee" json:"deliveryFee"`
	GrandTotal    float64            `bson:"grandTotal" json:"grandTotal"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

type Store struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewStore(db *mongo.Database, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// Record inserts the durable sale for an order. Calling it again with the
// same order code returns the existing sale's id instead of inserting twice.
func (s *Store) Record(ctx context.Context, order models.Order, customerName, phone string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sale := FromOrder(order, customerName, phone)

	res, err := s.db.Collection("sales").InsertOne(ctx, sale)
	if err == nil {
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			return id.Hex(), nil
		}
		return "", fmt.Errorf("sales: unexpected inserted id type")
	}

	if mongo.IsDuplicateKeyError(err) {
		var existing Sale
		findErr := s.db.Collection("sales").
			FindOne(ctx, bson.M{"orderCode": order.Code}).
			Decode(&existing)
		if findErr != nil {
			return "", fmt.Errorf("sales: duplicate order %s but lookup failed: %w", order.Code, findErr)
		}
		return existing.ID.Hex(), nil
	}

	return "", err
}

// Recent lists the latest finalized sales, newest first.
func (s *Store) Recent(ctx context.Context, limit int64) ([]Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	cursor, err := s.db.Collection("sales").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sales := make([]Sale, 0)
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// FromOrder flattens a ledger order into the fulfillment shape. Weight-priced
// lines become one billable unit carrying the estimate note; the delivery fee
// is appended as its own line so the picking sheet adds up to the grand
// total.
func FromOrder(order models.Order, customerName, phone string) Sale {
	totals := ledger.Compute(order.Lines, order.DeliveryFee)

	lines := make([]SaleLine, 0, len(order.Lines)+1)
	for _, line := range order.Lines {
		lines = append(lines, flattenLine(line))
	}
	if order.DeliveryFee > 0 {
		lines = append(lines, SaleLine{
			Description: "TAXA DE ENTREGA",
			Quantity:    1,
			UnitPrice:   totals.DeliveryFee,
		})
	}

	return Sale{
		OrderCode:     order.Code,
		CustomerName:  customerName,
		Phone:         phone,
		Address:       order.Address,
		PaymentMethod: order.PaymentMethod,
		Lines:         lines,
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		GrandTotal:    totals.GrandTotal,
		CreatedAt:     time.Now(),
	}
}

func flattenLine(line models.OrderLine) SaleLine {
	out := SaleLine{
		Description: line.Description,
		EAN:         line.EAN,
		Note:        line.Note,
	}

	switch {
	case line.UnitCount != nil && line.WeightKg != nil:
		// Piece-counted but weight-priced: bill per unit, flag for weighing.
		out.Quantity = *line.UnitCount
		perUnit, _ := decimal.NewFromFloat(line.LineTotal).
			Div(decimal.NewFromInt(int64(*line.UnitCount))).Round(2).Float64()
		out.UnitPrice = perUnit
		out.Note = joinNote(out.Note, fmt.Sprintf("Peso estimado: %.3fkg (~R$%.2f). PESAR para confirmar valor.", *line.WeightKg, line.LineTotal))

	case line.WeightKg != nil:
		out.Quantity = 1
		out.UnitPrice = line.LineTotal
		out.Note = joinNote(out.Note, fmt.Sprintf("Peso: %.3fkg", *line.WeightKg))

	case line.UnitCount != nil:
		out.Quantity = *line.UnitCount
		out.UnitPrice = line.UnitPrice
	}

	return out
}

func joinNote(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + ". " + extra
}
