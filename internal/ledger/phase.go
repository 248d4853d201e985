package ledger

import (
	"fmt"

	"mercado/internal/models"
)

// Event drives the phase machine. Events come from the orchestrator's
// explicit tool calls, never from free-text interpretation.
type Event string

const (
	EventItemAdded         Event = "item_added"
	EventItemRemoved       Event = "item_removed"
	EventCloseRequested    Event = "close_requested"
	EventAddressProvided   Event = "address_provided"
	EventTotalComputed     Event = "total_computed"
	EventPaymentDeclared   Event = "payment_declared"
	EventFinalizeConfirmed Event = "finalize_confirmed"
	EventReset             Event = "reset"
)

// IllegalTransitionError rejects an event against the wrong phase. The order
// is left untouched.
type IllegalTransitionError struct {
	Phase  models.Phase
	Event  Event
	Reason string
}

func (e IllegalTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("event %s not allowed in phase %s: %s", e.Event, e.Phase, e.Reason)
	}
	return fmt.Sprintf("event %s not allowed in phase %s", e.Event, e.Phase)
}

func illegal(phase models.Phase, event Event, reason string) error {
	return IllegalTransitionError{Phase: phase, Event: event, Reason: reason}
}

// advance computes the next phase for an event. hasAddress lets
// CloseRequested skip the address phase when the customer already gave one
// mid-build. Pure; the ledger applies the result under the session lock.
func advance(phase models.Phase, event Event, hasAddress bool) (models.Phase, error) {
	if event == EventReset {
		return models.PhaseBuilding, nil
	}

	switch phase {
	case models.PhaseBuilding:
		switch event {
		case EventItemAdded, EventItemRemoved, EventTotalComputed:
			return models.PhaseBuilding, nil
		case EventAddressProvided:
			return models.PhaseBuilding, nil
		case EventCloseRequested:
			if hasAddress {
				return models.PhaseAwaitingPayment, nil
			}
			return models.PhaseAwaitingAddress, nil
		}

	case models.PhaseAwaitingAddress:
		if event == EventAddressProvided {
			return models.PhaseAwaitingPayment, nil
		}

	case models.PhaseAwaitingPayment:
		switch event {
		case EventAddressProvided, EventTotalComputed, EventPaymentDeclared:
			return models.PhaseAwaitingPayment, nil
		case EventFinalizeConfirmed:
			return models.PhaseFinalized, nil
		}

	case models.PhaseFinalized:
		return phase, illegal(phase, event, "order already finalized, reset to start a new one")
	}

	return phase, illegal(phase, event, "")
}
