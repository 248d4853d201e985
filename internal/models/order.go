package models

import "time"

// Phase is the order lifecycle stage. Transitions are owned by the ledger's
// state machine; nothing else mutates it.
type Phase string

const (
	PhaseBuilding        Phase = "building"
	PhaseAwaitingAddress Phase = "awaiting_address"
	PhaseAwaitingPayment Phase = "awaiting_payment"
	PhaseFinalized       Phase = "finalized"
)

// OrderLine is one entry of a running order. At least one of WeightKg or
// UnitCount is always set, and LineTotal is recomputed on every mutation,
// never carried stale.
type OrderLine struct {
	EAN         string   `bson:"ean,omitempty" json:"ean,omitempty"`
	Description string   `bson:"description" json:"description"`
	WeightKg    *float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	UnitCount   *int     `bson:"unitCount,omitempty" json:"unitCount,omitempty"`
	UnitPrice   float64  `bson:"unitPrice" json:"unitPrice"`
	LineTotal   float64  `bson:"lineTotal" json:"lineTotal"`
	Note        string   `bson:"note,omitempty" json:"note,omitempty"`
}

// Order is the per-session running order. One order per active session,
// owned exclusively by that session.
type Order struct {
	SessionID     string      `json:"sessionId"`
	Code          string      `json:"code"`
	Lines         []OrderLine `json:"lines"`
	Address       string      `json:"address,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	DeliveryFee   float64     `json:"deliveryFee"`
	Phase         Phase       `json:"phase"`
	Revision      int64       `json:"revision"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
