package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/buyforme-service/internal/domain"
)

// ErrVersionConflict is returned when a save or delete loses an optimistic concurrency race.
var ErrVersionConflict = errors.New("request version conflict")

// RequestFilter captures list parameters.
type RequestFilter struct {
	CustomerID *string
	Statuses   []domain.RequestStatus
	Priorities []domain.RequestPriority
	Limit      int
	Offset     int
}

// RequestRepository persists the request aggregate. Every write is conditioned on the version
// the caller loaded; a missing row is reported as pgx.ErrNoRows.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	Save(ctx context.Context, req *domain.Request, expectedVersion int64) error
	Delete(ctx context.Context, id string, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	GetByNumber(ctx context.Context, number string) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository returns a Postgres-backed implementation.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, request_number, customer_id, customer_name, customer_email, currency, total_amount, notes,
            status, sub_status, review_status, payment_status, priority, rejection_reason,
            items, shipping, payment, purchase, quality_control, customer_review, packing, returns,
            review_comments, history, version, created_at, updated_at`

// requestDocuments holds the JSONB encoded parts of a request.
type requestDocuments struct {
	items, shipping, payment, purchase, qualityControl []byte
	customerReview, packing, returns, comments, history []byte
}

func encodeDocuments(req *domain.Request) (*requestDocuments, error) {
	var (
		docs requestDocuments
		err  error
	)
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&docs.items, req.Items},
		{&docs.shipping, req.Shipping},
		{&docs.payment, req.Payment},
		{&docs.purchase, req.Purchase},
		{&docs.qualityControl, req.QualityControl},
		{&docs.customerReview, req.CustomerReview},
		{&docs.packing, req.Packing},
		{&docs.returns, req.Returns},
		{&docs.comments, req.ReviewComments},
		{&docs.history, req.History},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return nil, fmt.Errorf("encode request document: %w", err)
		}
	}
	return &docs, nil
}

func (d *requestDocuments) decode(req *domain.Request) error {
	fields := []struct {
		src []byte
		dst any
	}{
		{d.items, &req.Items},
		{d.shipping, &req.Shipping},
		{d.payment, &req.Payment},
		{d.purchase, &req.Purchase},
		{d.qualityControl, &req.QualityControl},
		{d.customerReview, &req.CustomerReview},
		{d.packing, &req.Packing},
		{d.returns, &req.Returns},
		{d.comments, &req.ReviewComments},
		{d.history, &req.History},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return fmt.Errorf("decode request document: %w", err)
		}
	}
	return nil
}

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	docs, err := encodeDocuments(req)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO buyforme_requests (id, request_number, customer_id, customer_name, customer_email, currency,
            total_amount, notes, status, sub_status, review_status, payment_status, priority, rejection_reason,
            items, shipping, payment, purchase, quality_control, customer_review, packing, returns,
            review_comments, history, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,1,$25,$26)
        RETURNING version`

	return r.pool.QueryRow(ctx, query,
		req.ID,
		req.RequestNumber,
		req.CustomerID,
		req.CustomerName,
		req.CustomerEmail,
		req.Currency,
		req.TotalAmount,
		req.Notes,
		req.Status,
		req.SubStatus,
		req.ReviewStatus,
		req.PaymentStatus,
		req.Priority,
		req.RejectionReason,
		docs.items,
		docs.shipping,
		docs.payment,
		docs.purchase,
		docs.qualityControl,
		docs.customerReview,
		docs.packing,
		docs.returns,
		docs.comments,
		docs.history,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.Version)
}

// Save writes the whole aggregate in one statement so state and audit trail land together.
func (r *requestRepository) Save(ctx context.Context, req *domain.Request, expectedVersion int64) error {
	docs, err := encodeDocuments(req)
	if err != nil {
		return err
	}
	const query = `
        UPDATE buyforme_requests SET currency=$1, total_amount=$2, notes=$3, status=$4, sub_status=$5,
            review_status=$6, payment_status=$7, priority=$8, rejection_reason=$9, items=$10, shipping=$11,
            payment=$12, purchase=$13, quality_control=$14, customer_review=$15, packing=$16, returns=$17,
            review_comments=$18, history=$19, updated_at=$20, version=version+1
        WHERE id=$21 AND version=$22
        RETURNING version`

	err = r.pool.QueryRow(ctx, query,
		req.Currency,
		req.TotalAmount,
		req.Notes,
		req.Status,
		req.SubStatus,
		req.ReviewStatus,
		req.PaymentStatus,
		req.Priority,
		req.RejectionReason,
		docs.items,
		docs.shipping,
		docs.payment,
		docs.purchase,
		docs.qualityControl,
		docs.customerReview,
		docs.packing,
		docs.returns,
		docs.comments,
		docs.history,
		req.UpdatedAt,
		req.ID,
		expectedVersion,
	).Scan(&req.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missOrConflict(ctx, req.ID)
	}
	return err
}

func (r *requestRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM buyforme_requests WHERE id=$1 AND version=$2`, id, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict tells a vanished row apart from a stale version after a conditional write matched nothing.
func (r *requestRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM buyforme_requests WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrVersionConflict
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM buyforme_requests WHERE id=$1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *requestRepository) GetByNumber(ctx context.Context, number string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM buyforme_requests WHERE request_number=$1`
	return scanRequest(r.pool.QueryRow(ctx, query, number))
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM buyforme_requests`
	args := []any{}
	clauses := []string{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(filter.Priorities) > 0 {
		priorities := make([]string, len(filter.Priorities))
		for i, p := range filter.Priorities {
			priorities[i] = string(p)
		}
		args = append(args, priorities)
		clauses = append(clauses, fmt.Sprintf("priority = ANY($%d)", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var (
		req  domain.Request
		docs requestDocuments
	)
	if err := row.Scan(
		&req.ID,
		&req.RequestNumber,
		&req.CustomerID,
		&req.CustomerName,
		&req.CustomerEmail,
		&req.Currency,
		&req.TotalAmount,
		&req.Notes,
		&req.Status,
		&req.SubStatus,
		&req.ReviewStatus,
		&req.PaymentStatus,
		&req.Priority,
		&req.RejectionReason,
		&docs.items,
		&docs.shipping,
		&docs.payment,
		&docs.purchase,
		&docs.qualityControl,
		&docs.customerReview,
		&docs.packing,
		&docs.returns,
		&docs.comments,
		&docs.history,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := docs.decode(&req); err != nil {
		return nil, err
	}
	// The stored total is informational; the item sum is authoritative.
	req.RecalculateTotal()
	return &req, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
