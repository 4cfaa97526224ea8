// Package workflow is the BuyForMe request state machine. It validates a transition against
// the current state and payload invariants, applies it, and appends the audit entry. It never
// authorizes, persists or notifies; callers do that around it.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

var allowedFrom = map[domain.Transition][]domain.RequestStatus{
	domain.TransitionModify:          {domain.RequestStatusPending},
	domain.TransitionReview:          {domain.RequestStatusPending, domain.RequestStatusApproved},
	domain.TransitionProcessPayment:  {domain.RequestStatusApproved},
	domain.TransitionMarkPurchased:   {domain.RequestStatusInProgress},
	domain.TransitionQualityControl:  {domain.RequestStatusInProgress},
	domain.TransitionCustomerReview:  {domain.RequestStatusInProgress, domain.RequestStatusDelivered},
	domain.TransitionPackingChoice:   {domain.RequestStatusInProgress},
	domain.TransitionShip:            {domain.RequestStatusInProgress},
	domain.TransitionDeliver:         {domain.RequestStatusShipped},
	domain.TransitionReturnOrReplace: {domain.RequestStatusInProgress, domain.RequestStatusShipped, domain.RequestStatusDelivered},
	domain.TransitionDelete:          {domain.RequestStatusPending},
}

// AllowedFrom reports whether t may be attempted while the request is in status.
func AllowedFrom(t domain.Transition, status domain.RequestStatus) bool {
	for _, candidate := range allowedFrom[t] {
		if candidate == status {
			return true
		}
	}
	return false
}

// Engine applies transitions to requests.
type Engine struct {
	now func() time.Time
}

// NewEngine constructs an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: func() time.Time { return time.Now().UTC() }}
}

// NewEngineWithClock constructs an engine with a fixed time source.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Create builds a new pending request for customer.
func (e *Engine) Create(actor domain.Actor, customer *domain.User, cmd CreateCommand) (*domain.Request, error) {
	if customer == nil {
		return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": cmd.CustomerID})
	}
	items, currency, err := normalizeItems(cmd.Items)
	if err != nil {
		return nil, err
	}
	address := trimAddress(cmd.Address)
	if !address.Complete() {
		return nil, apperrors.NewValidationError("shipping address incomplete", map[string]any{
			"required": []string{"name", "street", "city", "country", "postal_code"},
		})
	}
	priority := cmd.Priority
	switch priority {
	case "":
		priority = domain.RequestPriorityMedium
	case domain.RequestPriorityLow, domain.RequestPriorityMedium, domain.RequestPriorityHigh:
	default:
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	now := e.now()
	req := &domain.Request{
		ID:            uuid.NewString(),
		RequestNumber: generateRequestNumber(),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Items:         items,
		Currency:      currency,
		Notes:         strings.TrimSpace(cmd.Notes),
		Status:        domain.RequestStatusPending,
		SubStatus:     domain.SubStatusAwaitingReview,
		ReviewStatus:  domain.ReviewStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Priority:      priority,
		Shipping:      domain.Shipping{Address: address},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	req.RecalculateTotal()
	e.appendHistory(req, actor, domain.HistoryCreated, nil, map[string]any{
		"status":       req.Status,
		"total_amount": req.TotalAmount.String(),
		"item_count":   len(req.Items),
	})
	return req, nil
}

// Apply validates cmd against req and mutates req in place. On error req may be partially
// modified, so callers must apply to a clone and discard it on failure.
func (e *Engine) Apply(req *domain.Request, actor domain.Actor, cmd Command) error {
	if req == nil {
		return apperrors.NewNotFound("request", nil)
	}
	t := cmd.Transition()
	if !AllowedFrom(t, req.Status) {
		if t == domain.TransitionDelete {
			return apperrors.NewValidationError("only pending requests can be deleted", map[string]any{
				"status": req.Status,
			})
		}
		return invalidTransition(t, req)
	}

	switch c := cmd.(type) {
	case ModifyCommand:
		return e.modify(req, actor, c)
	case ReviewCommand:
		return e.review(req, actor, c)
	case PaymentCommand:
		return e.processPayment(req, actor, c)
	case PurchaseCommand:
		return e.markPurchased(req, actor, c)
	case QualityControlCommand:
		return e.qualityControl(req, actor, c)
	case CustomerReviewCommand:
		return e.customerReview(req, actor, c)
	case PackingCommand:
		return e.choosePacking(req, actor, c)
	case ShipCommand:
		return e.ship(req, actor, c)
	case DeliverCommand:
		return e.deliver(req, actor, c)
	case ReturnCommand:
		return e.returnOrReplace(req, actor, c)
	case DeleteCommand:
		return nil
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported transition %q", t), nil)
	}
}

func (e *Engine) appendHistory(req *domain.Request, actor domain.Actor, kind domain.HistoryKind, previous, current map[string]any) {
	now := e.now()
	req.History = append(req.History, domain.HistoryEntry{
		ModificationNumber: len(req.History) + 1,
		Kind:               kind,
		ActorKind:          actor.Kind,
		ActorID:            actor.ID,
		Previous:           previous,
		Current:            current,
		CreatedAt:          now,
	})
	req.UpdatedAt = now
}

func (e *Engine) appendComment(req *domain.Request, actor domain.Actor, comment string, internal bool) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return
	}
	req.ReviewComments = append(req.ReviewComments, domain.ReviewComment{
		AuthorID:  actor.ID,
		Comment:   comment,
		Internal:  internal,
		CreatedAt: e.now(),
	})
}

func invalidTransition(t domain.Transition, req *domain.Request) error {
	return apperrors.NewInvalidTransition(
		fmt.Sprintf("%s is not allowed while request is %s", t, req.Status),
		map[string]any{
			"transition": t,
			"status":     req.Status,
			"sub_status": req.SubStatus,
		},
	)
}

func generateRequestNumber() string {
	return "BFM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
