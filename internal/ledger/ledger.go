// Package ledger owns the per-session running orders and the phase state
// machine that gates their lifecycle. Mutations on one session are serialized
// by that session's own mutex; different sessions proceed fully in parallel.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercado/internal/models"
)

// ConversionError and resolution errors live in their own packages; the
// ledger only knows about line shape problems.
var ErrBadLine = errors.New("ledger: order line needs a description, a price and a quantity")

// FinalizeFailure wraps a persistence error during finalize. The order stays
// in AwaitingPayment and the call is safe to retry.
type FinalizeFailure struct {
	Err error
}

func (e FinalizeFailure) Error() string { return fmt.Sprintf("finalize failed: %v", e.Err) }
func (e FinalizeFailure) Unwrap() error { return e.Err }

type session struct {
	mu            sync.Mutex
	order         *models.Order
	totalComputed bool
	lastSeen      time.Time
}

// Ledger holds every active session. The map mutex only guards session
// lookup; all order state is guarded by the session mutex.
type Ledger struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func New(sessionTTL time.Duration) *Ledger {
	l := &Ledger{
		sessions: make(map[string]*session),
		ttl:      sessionTTL,
		stop:     make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Close stops the janitor goroutine.
func (l *Ledger) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Ledger) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *Ledger) evictIdle() {
	cutoff := time.Now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, s := range l.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(l.sessions, id)
			log.Printf("[LEDGER] [INFO] session %s evicted after %s idle", id, l.ttl)
		}
	}
}

func newOrder(sessionID string) *models.Order {
	now := time.Now()
	return &models.Order{
		SessionID: sessionID,
		Code:      uuid.NewString(),
		Lines:     []models.OrderLine{},
		Phase:     models.PhaseBuilding,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (l *Ledger) get(sessionID string) *session {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		s = &session{order: newOrder(sessionID), lastSeen: time.Now()}
		l.sessions[sessionID] = s
	}
	return s
}

// withSession runs fn with the session locked. Every public operation goes
// through here, which is what serializes mutations per session.
func (l *Ledger) withSession(sessionID string, fn func(*session) error) error {
	s := l.get(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return fn(s)
}

func (s *session) touch() {
	s.order.Revision++
	s.order.UpdatedAt = time.Now()
}

// AddItem appends a priced line to the running order. Only legal while
// Building. The line total is computed here, never taken from the caller.
func (l *Ledger) AddItem(sessionID string, line models.OrderLine) (models.OrderLine, error) {
	if line.Description == "" || line.UnitPrice <= 0 || (line.WeightKg == nil && line.UnitCount == nil) {
		return models.OrderLine{}, ErrBadLine
	}
	if line.WeightKg != nil && *line.WeightKg <= 0 {
		return models.OrderLine{}, ErrBadLine
	}
	if line.UnitCount != nil && *line.UnitCount <= 0 {
		return models.OrderLine{}, ErrBadLine
	}

	var added models.OrderLine
	err := l.withSession(sessionID, func(s *session) error {
		next, err := advance(s.order.Phase, EventItemAdded, s.order.Address != "")
		if err != nil {
			return err
		}
		line.LineTotal = LineTotal(line.UnitPrice, line.WeightKg, line.UnitCount)
		s.order.Lines = append(s.order.Lines, line)
		s.order.Phase = next
		s.totalComputed = false
		s.touch()
		added = line
		return nil
	})
	return added, err
}

// RemoveItem removes a line by index, or reduces it when partialQty is given.
// Reduction is exact: taking the full quantity (or more than remains) is an
// error rather than a silent clamp, so the ledger can never go negative.
func (l *Ledger) RemoveItem(sessionID string, lineIndex int, partialQty *float64) error {
	return l.withSession(sessionID, func(s *session) error {
		next, err := advance(s.order.Phase, EventItemRemoved, s.order.Address != "")
		if err != nil {
			return err
		}
		if lineIndex < 0 || lineIndex >= len(s.order.Lines) {
			return fmt.Errorf("ledger: line index %d out of range", lineIndex)
		}

		if partialQty == nil {
			s.order.Lines = append(s.order.Lines[:lineIndex], s.order.Lines[lineIndex+1:]...)
		} else {
			if err := reduceLine(&s.order.Lines[lineIndex], *partialQty); err != nil {
				return err
			}
		}

		s.order.Phase = next
		s.totalComputed = false
		s.touch()
		return nil
	})
}

// reduceLine subtracts a partial quantity from a line, recomputing the total.
// Weight-averaged lines (both sides set) are reduced by piece count, with the
// weight scaled proportionally.
func reduceLine(line *models.OrderLine, qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("ledger: partial quantity must be positive")
	}

	switch {
	case line.UnitCount != nil:
		take := int(qty)
		if float64(take) != qty {
			return fmt.Errorf("ledger: partial unit quantity must be a whole number")
		}
		if take >= *line.UnitCount {
			return fmt.Errorf("ledger: partial quantity %d would empty the line, remove it instead", take)
		}
		remaining := *line.UnitCount - take
		if line.WeightKg != nil {
			scaled := *line.WeightKg * float64(remaining) / float64(*line.UnitCount)
			line.WeightKg = &scaled
		}
		line.UnitCount = &remaining

	case line.WeightKg != nil:
		if qty >= *line.WeightKg {
			return fmt.Errorf("ledger: partial weight %.3f would empty the line, remove it instead", qty)
		}
		remaining := *line.WeightKg - qty
		line.WeightKg = &remaining
	}

	line.LineTotal = LineTotal(line.UnitPrice, line.WeightKg, line.UnitCount)
	return nil
}

// Snapshot returns a copy of the session's order. Safe to hand to callers;
// mutating it does not touch the ledger.
func (l *Ledger) Snapshot(sessionID string) models.Order {
	var snap models.Order
	_ = l.withSession(sessionID, func(s *session) error {
		snap = *s.order
		snap.Lines = append([]models.OrderLine(nil), s.order.Lines...)
		return nil
	})
	return snap
}

// Reset discards the session's order and starts a fresh Building order under
// the same session. Legal from any phase.
func (l *Ledger) Reset(sessionID string) {
	_ = l.withSession(sessionID, func(s *session) error {
		s.order = newOrder(sessionID)
		s.totalComputed = false
		return nil
	})
}

// RequestClose moves a building order toward checkout: to AwaitingAddress, or
// straight to AwaitingPayment when an address is already on file.
func (l *Ledger) RequestClose(sessionID string) (models.Phase, error) {
	var phase models.Phase
	err := l.withSession(sessionID, func(s *session) error {
		if len(s.order.Lines) == 0 {
			return illegal(s.order.Phase, EventCloseRequested, "order has no lines")
		}
		next, err := advance(s.order.Phase, EventCloseRequested, s.order.Address != "")
		if err != nil {
			return err
		}
		s.order.Phase = next
		s.touch()
		phase = next
		return nil
	})
	return phase, err
}

// SaveAddress stores the delivery address. Customers often give it early, so
// this is legal mid-build; from AwaitingAddress it advances the phase.
func (l *Ledger) SaveAddress(sessionID, address string) (models.Phase, error) {
	var phase models.Phase
	err := l.withSession(sessionID, func(s *session) error {
		next, err := advance(s.order.Phase, EventAddressProvided, true)
		if err != nil {
			return err
		}
		s.order.Address = address
		s.order.Phase = next
		s.touch()
		phase = next
		return nil
	})
	return phase, err
}

// ComputeTotal recomputes totals with the given delivery fee. In
// AwaitingPayment it also arms payment/finalize; in Building it is just a
// preview and arms nothing.
func (l *Ledger) ComputeTotal(sessionID string, deliveryFee float64) (Totals, error) {
	var totals Totals
	err := l.withSession(sessionID, func(s *session) error {
		if deliveryFee < 0 {
			return fmt.Errorf("ledger: delivery fee cannot be negative")
		}
		if _, err := advance(s.order.Phase, EventTotalComputed, s.order.Address != ""); err != nil {
			return err
		}
		if s.order.DeliveryFee != deliveryFee {
			s.order.DeliveryFee = deliveryFee
			s.touch()
		}
		totals = Compute(s.order.Lines, deliveryFee)
		if s.order.Phase == models.PhaseAwaitingPayment {
			s.totalComputed = true
		}
		return nil
	})
	return totals, err
}

// DeclarePayment stores the payment method. Requires a total computed in
// AwaitingPayment first — the customer must have been quoted the real number.
func (l *Ledger) DeclarePayment(sessionID, method string) error {
	return l.withSession(sessionID, func(s *session) error {
		if _, err := advance(s.order.Phase, EventPaymentDeclared, true); err != nil {
			return err
		}
		if !s.totalComputed {
			return illegal(s.order.Phase, EventPaymentDeclared, "total not computed yet")
		}
		s.order.PaymentMethod = method
		s.touch()
		return nil
	})
}

// Finalize commits the order through the supplied persistence callback while
// holding the session lock, then marks the phase Finalized. A failed commit
// leaves the phase in AwaitingPayment (FinalizeFailure, retry-safe); a phase
// or readiness problem is an IllegalTransitionError. Reaching Finalized any
// other way is impossible.
func (l *Ledger) Finalize(sessionID, deliveryAddress, paymentMethod string, deliveryFee float64, commit func(models.Order) error) (models.Order, error) {
	var finalized models.Order
	err := l.withSession(sessionID, func(s *session) error {
		next, err := advance(s.order.Phase, EventFinalizeConfirmed, true)
		if err != nil {
			return err
		}
		if len(s.order.Lines) == 0 {
			return illegal(s.order.Phase, EventFinalizeConfirmed, "order has no lines")
		}
		if !s.totalComputed {
			return illegal(s.order.Phase, EventFinalizeConfirmed, "total not computed yet")
		}
		if s.order.DeliveryFee != deliveryFee {
			return illegal(s.order.Phase, EventFinalizeConfirmed, "delivery fee differs from computed total, recompute first")
		}
		if deliveryAddress != "" {
			s.order.Address = deliveryAddress
		}
		if s.order.Address == "" {
			return illegal(s.order.Phase, EventFinalizeConfirmed, "missing delivery address")
		}
		if paymentMethod != "" {
			s.order.PaymentMethod = paymentMethod
		}
		if s.order.PaymentMethod == "" {
			return illegal(s.order.Phase, EventFinalizeConfirmed, "missing payment method")
		}

		if err := commit(*s.order); err != nil {
			return FinalizeFailure{Err: err}
		}

		s.order.Phase = next
		s.touch()
		finalized = *s.order
		finalized.Lines = append([]models.OrderLine(nil), s.order.Lines...)
		return nil
	})
	return finalized, err
}
