package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyforme-service/internal/domain"
)

// MemoryRequestRepository keeps requests in process. It is used when no database is configured
// and in tests. Stored values are deep copies, so callers never share state with the store.
type MemoryRequestRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Request
	byNumber map[string]string
}

// NewMemoryRequestRepository returns an empty store.
func NewMemoryRequestRepository() *MemoryRequestRepository {
	return &MemoryRequestRepository{
		byID:     make(map[string]*domain.Request),
		byNumber: make(map[string]string),
	}
}

func (r *MemoryRequestRepository) Create(_ context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[req.ID]; exists {
		return ErrVersionConflict
	}
	if _, exists := r.byNumber[req.RequestNumber]; exists {
		return ErrVersionConflict
	}
	req.Version = 1
	r.byID[req.ID] = req.Clone()
	r.byNumber[req.RequestNumber] = req.ID
	return nil
}

func (r *MemoryRequestRepository) Save(_ context.Context, req *domain.Request, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[req.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	req.Version = expectedVersion + 1
	r.byID[req.ID] = req.Clone()
	return nil
}

func (r *MemoryRequestRepository) Delete(_ context.Context, id string, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	delete(r.byNumber, current.RequestNumber)
	delete(r.byID, id)
	return nil
}

func (r *MemoryRequestRepository) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return req.Clone(), nil
}

func (r *MemoryRequestRepository) GetByNumber(ctx context.Context, number string) (*domain.Request, error) {
	r.mu.RLock()
	id, ok := r.byNumber[number]
	r.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRequestRepository) List(_ context.Context, filter RequestFilter) ([]domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[domain.RequestStatus]struct{}, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[s] = struct{}{}
	}
	priorities := make(map[domain.RequestPriority]struct{}, len(filter.Priorities))
	for _, p := range filter.Priorities {
		priorities[p] = struct{}{}
	}

	matched := make([]*domain.Request, 0, len(r.byID))
	for _, req := range r.byID {
		if filter.CustomerID != nil && req.CustomerID != *filter.CustomerID {
			continue
		}
		if _, ok := statuses[req.Status]; len(statuses) > 0 && !ok {
			continue
		}
		if _, ok := priorities[req.Priority]; len(priorities) > 0 && !ok {
			continue
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].RequestNumber > matched[j].RequestNumber
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	result := make([]domain.Request, 0, end-offset)
	for _, req := range matched[offset:end] {
		result = append(result, *req.Clone())
	}
	return result, nil
}

var _ RequestRepository = (*MemoryRequestRepository)(nil)
