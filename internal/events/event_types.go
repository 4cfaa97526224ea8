package events

import (
	"time"

	"github.com/spec-kit/buyforme-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated      EventType = "buyforme_request_created"
	EventRequestTransitioned EventType = "buyforme_request_transitioned"
	EventRequestDeleted      EventType = "buyforme_request_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind domain.ActorKind `json:"kind"`
	ID   string           `json:"id"`
}

// Event represents a lifecycle event emitted after a transition is durable.
type Event struct {
	ID            string               `json:"id"`
	Type          EventType            `json:"type"`
	RequestID     string               `json:"request_id"`
	RequestNumber string               `json:"request_number"`
	CustomerID    string               `json:"customer_id"`
	NewStatus     domain.RequestStatus `json:"new_status"`
	Actor         Actor                `json:"actor"`
	Timestamp     time.Time            `json:"timestamp"`
	Payload       interface{}          `json:"payload,omitempty"`
}

// TransitionPayload describes the state change carried by EventRequestTransitioned.
type TransitionPayload struct {
	Transition    domain.Transition    `json:"transition"`
	OldStatus     domain.RequestStatus `json:"old_status"`
	NewStatus     domain.RequestStatus `json:"new_status"`
	SubStatus     domain.SubStatus     `json:"sub_status,omitempty"`
	ReviewStatus  domain.ReviewStatus  `json:"review_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}

// CreatedPayload describes a new request.
type CreatedPayload struct {
	TotalAmount string                 `json:"total_amount"`
	Currency    string                 `json:"currency"`
	ItemCount   int                    `json:"item_count"`
	Priority    domain.RequestPriority `json:"priority"`
}
