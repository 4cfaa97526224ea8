package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/buyforme-service/internal/auth"
	"github.com/spec-kit/buyforme-service/internal/domain"
	"github.com/spec-kit/buyforme-service/internal/events"
	"github.com/spec-kit/buyforme-service/internal/observability"
	"github.com/spec-kit/buyforme-service/internal/repository"
	"github.com/spec-kit/buyforme-service/internal/workflow"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

// CustomerDirectory resolves customer accounts referenced by new requests.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// BuyForMeService coordinates request workflows: load, authorize, apply, save, notify.
type BuyForMeService struct {
	requests   repository.RequestRepository
	customers  CustomerDirectory
	engine     *workflow.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// BuyForMeDependencies bundles collaborators for the service.
type BuyForMeDependencies struct {
	RequestRepo repository.RequestRepository
	Customers   CustomerDirectory
	Engine      *workflow.Engine
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// RequestListFilter describes listing filters. Customers only ever see their own requests.
type RequestListFilter struct {
	CustomerID *string
	Statuses   []domain.RequestStatus
	Priorities []domain.RequestPriority
	Limit      int
	Offset     int
}

// NewBuyForMeService constructs the service.
func NewBuyForMeService(deps BuyForMeDependencies) *BuyForMeService {
	engine := deps.Engine
	if engine == nil {
		engine = workflow.NewEngine()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuyForMeService{
		requests:   deps.RequestRepo,
		customers:  deps.Customers,
		engine:     engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Create opens a request. Customers create for themselves; staff must name the customer.
func (s *BuyForMeService) Create(ctx context.Context, actor *domain.Actor, cmd workflow.CreateCommand) (req *domain.Request, err error) {
	defer func() { s.record(domain.TransitionCreate, err) }()

	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.IsCustomer() && cmd.CustomerID == "" {
		cmd.CustomerID = actor.ID
	}
	if cmd.CustomerID == "" {
		return nil, apperrors.NewValidationError("customer_id is required", map[string]any{"field": "customer_id"})
	}
	if err := auth.CanPerform(actor, &domain.Request{CustomerID: cmd.CustomerID}, domain.TransitionCreate); err != nil {
		return nil, err
	}

	customer, err := s.lookupCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}

	req, err = s.engine.Create(*actor, customer, cmd)
	if err != nil {
		return nil, err
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, s.mapRepoError(err, req.ID, 0)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventRequestCreated,
		RequestID:     req.ID,
		RequestNumber: req.RequestNumber,
		CustomerID:    req.CustomerID,
		NewStatus:     req.Status,
		Actor:         eventActor(*actor),
		Payload: events.CreatedPayload{
			TotalAmount: req.TotalAmount.String(),
			Currency:    req.Currency,
			ItemCount:   len(req.Items),
			Priority:    req.Priority,
		},
	})
	s.logger.Info("buyforme request created",
		zap.String("request_id", req.ID),
		zap.String("request_number", req.RequestNumber),
		zap.String("actor_kind", string(actor.Kind)))
	return req, nil
}

// Get returns a request the actor may view.
func (s *BuyForMeService) Get(ctx context.Context, actor *domain.Actor, id string) (*domain.Request, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanView(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// GetByNumber looks a request up by its human-facing number.
func (s *BuyForMeService) GetByNumber(ctx context.Context, actor *domain.Actor, number string) (*domain.Request, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	req, err := s.requests.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_number": number})
		}
		return nil, err
	}
	if err := auth.CanView(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns requests visible to the actor.
func (s *BuyForMeService) List(ctx context.Context, actor *domain.Actor, filter RequestListFilter) ([]domain.Request, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.RequestFilter{
		CustomerID: filter.CustomerID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	switch {
	case actor.IsCustomer():
		id := actor.ID
		repoFilter.CustomerID = &id
	case actor.IsStaff() && len(actor.Permissions) > 0:
	default:
		return nil, apperrors.NewForbidden("listing requires a staff permission")
	}
	return s.requests.List(ctx, repoFilter)
}

// Modify edits a pending request.
func (s *BuyForMeService) Modify(ctx context.Context, actor *domain.Actor, id string, cmd workflow.ModifyCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// Review records a staff review decision.
func (s *BuyForMeService) Review(ctx context.Context, actor *domain.Actor, id string, cmd workflow.ReviewCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// ProcessPayment records a payment that reconciles with the order total.
func (s *BuyForMeService) ProcessPayment(ctx context.Context, actor *domain.Actor, id string, cmd workflow.PaymentCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// MarkPurchased records the purchase from the source store.
func (s *BuyForMeService) MarkPurchased(ctx context.Context, actor *domain.Actor, id string, cmd workflow.PurchaseCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// QualityControl records item inspections.
func (s *BuyForMeService) QualityControl(ctx context.Context, actor *domain.Actor, id string, cmd workflow.QualityControlCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// CustomerReview records the customer's verdict on inspected goods.
func (s *BuyForMeService) CustomerReview(ctx context.Context, actor *domain.Actor, id string, cmd workflow.CustomerReviewCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// ChoosePacking records the packing preference.
func (s *BuyForMeService) ChoosePacking(ctx context.Context, actor *domain.Actor, id string, cmd workflow.PackingCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// Ship hands the request to a carrier.
func (s *BuyForMeService) Ship(ctx context.Context, actor *domain.Actor, id string, cmd workflow.ShipCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// Deliver marks the request delivered.
func (s *BuyForMeService) Deliver(ctx context.Context, actor *domain.Actor, id string, cmd workflow.DeliverCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// ReturnOrReplace handles an item the customer flagged.
func (s *BuyForMeService) ReturnOrReplace(ctx context.Context, actor *domain.Actor, id string, cmd workflow.ReturnCommand) (*domain.Request, error) {
	return s.transition(ctx, actor, id, cmd)
}

// Delete hard-removes a pending request.
func (s *BuyForMeService) Delete(ctx context.Context, actor *domain.Actor, id string) (err error) {
	defer func() { s.record(domain.TransitionDelete, err) }()

	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CanPerform(actor, req, domain.TransitionDelete); err != nil {
		return err
	}
	if err := s.engine.Apply(req.Clone(), *actor, workflow.DeleteCommand{}); err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, req.ID, req.Version); err != nil {
		return s.mapRepoError(err, req.ID, req.Version)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventRequestDeleted,
		RequestID:     req.ID,
		RequestNumber: req.RequestNumber,
		CustomerID:    req.CustomerID,
		NewStatus:     req.Status,
		Actor:         eventActor(*actor),
	})
	s.logger.Info("buyforme request deleted", zap.String("request_id", req.ID), zap.String("actor_id", actor.ID))
	return nil
}

// transition runs one command against the stored request. The engine works on a copy, so a
// rejected command never reaches the store, and the save is conditioned on the loaded version.
func (s *BuyForMeService) transition(ctx context.Context, actor *domain.Actor, id string, cmd workflow.Command) (next *domain.Request, err error) {
	t := cmd.Transition()
	defer func() { s.record(t, err) }()

	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanPerform(actor, current, t); err != nil {
		return nil, err
	}

	next = current.Clone()
	if err := s.engine.Apply(next, *actor, cmd); err != nil {
		return nil, err
	}
	if err := s.requests.Save(ctx, next, current.Version); err != nil {
		return nil, s.mapRepoError(err, id, current.Version)
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventRequestTransitioned,
		RequestID:     next.ID,
		RequestNumber: next.RequestNumber,
		CustomerID:    next.CustomerID,
		NewStatus:     next.Status,
		Actor:         eventActor(*actor),
		Payload: events.TransitionPayload{
			Transition:    t,
			OldStatus:     current.Status,
			NewStatus:     next.Status,
			SubStatus:     next.SubStatus,
			ReviewStatus:  next.ReviewStatus,
			PaymentStatus: next.PaymentStatus,
		},
	})
	s.logger.Info("buyforme request transitioned",
		zap.String("request_id", next.ID),
		zap.String("transition", string(t)),
		zap.String("old_status", string(current.Status)),
		zap.String("status", string(next.Status)),
		zap.Int64("version", next.Version))
	return next, nil
}

func (s *BuyForMeService) load(ctx context.Context, id string) (*domain.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, 0)
	}
	return req, nil
}

// lookupCustomer returns nil without error when the account does not exist.
func (s *BuyForMeService) lookupCustomer(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	customer, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if customer.Status == domain.UserStatusSuspended {
		return nil, apperrors.NewValidationError("customer account is suspended", map[string]any{"customer_id": id})
	}
	return customer, nil
}

func (s *BuyForMeService) mapRepoError(err error, id string, version int64) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("request", map[string]any{"request_id": id})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict("request was modified concurrently; reload and retry", map[string]any{
			"request_id":       id,
			"expected_version": version,
		})
	default:
		return err
	}
}

func (s *BuyForMeService) record(t domain.Transition, err error) {
	outcome := "OK"
	if err != nil {
		outcome = apperrors.ToDomainError(err).Code
	}
	s.metrics.RecordTransition(string(t), outcome)
}

func (s *BuyForMeService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{Kind: actor.Kind, ID: actor.ID}
}
