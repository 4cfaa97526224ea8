package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/buyforme-service/internal/domain"
)

func newRequest(id, number, customer string, created time.Time) *domain.Request {
	return &domain.Request{
		ID:            id,
		RequestNumber: number,
		CustomerID:    customer,
		Status:        domain.RequestStatusPending,
		Priority:      domain.RequestPriorityMedium,
		Currency:      "USD",
		Items: []domain.Item{{
			Name:     "lamp",
			URL:      "https://shop.example.com/lamp",
			Quantity: 1,
			Price:    decimal.NewFromInt(30),
			Currency: "USD",
		}},
		CreatedAt: created,
	}
}

func TestMemoryRequestRepository_VersionedSave(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository()
	req := newRequest("r1", "BFM-1", "c1", time.Now())

	require.NoError(t, repo.Create(ctx, req))
	assert.Equal(t, int64(1), req.Version)

	first, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)

	first.Status = domain.RequestStatusApproved
	require.NoError(t, repo.Save(ctx, first, 1))
	assert.Equal(t, int64(2), first.Version)

	second.Status = domain.RequestStatusCancelled
	assert.ErrorIs(t, repo.Save(ctx, second, 1), ErrVersionConflict)

	stored, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestMemoryRequestRepository_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository()
	req := newRequest("r1", "BFM-1", "c1", time.Now())
	require.NoError(t, repo.Create(ctx, req))

	req.Items[0].Name = "mutated"
	loaded, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "lamp", loaded.Items[0].Name)

	loaded.Items[0].Name = "mutated again"
	again, err := repo.GetByNumber(ctx, "BFM-1")
	require.NoError(t, err)
	assert.Equal(t, "lamp", again.Items[0].Name)
}

func TestMemoryRequestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository()
	require.NoError(t, repo.Create(ctx, newRequest("r1", "BFM-1", "c1", time.Now())))

	assert.ErrorIs(t, repo.Delete(ctx, "r1", 7), ErrVersionConflict)
	require.NoError(t, repo.Delete(ctx, "r1", 1))
	assert.ErrorIs(t, repo.Delete(ctx, "r1", 1), pgx.ErrNoRows)

	_, err := repo.GetByID(ctx, "r1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = repo.GetByNumber(ctx, "BFM-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryRequestRepository_SaveMissing(t *testing.T) {
	repo := NewMemoryRequestRepository()
	err := repo.Save(context.Background(), newRequest("nope", "BFM-0", "c1", time.Now()), 1)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryRequestRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, customer := range []string{"c1", "c2", "c1", "c1"} {
		req := newRequest(string(rune('a'+i)), "BFM-"+string(rune('A'+i)), customer, base.Add(time.Duration(i)*time.Hour))
		if i == 3 {
			req.Status = domain.RequestStatusApproved
		}
		require.NoError(t, repo.Create(ctx, req))
	}

	customer := "c1"
	all, err := repo.List(ctx, RequestFilter{CustomerID: &customer})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	pending, err := repo.List(ctx, RequestFilter{CustomerID: &customer, Statuses: []domain.RequestStatus{domain.RequestStatusPending}})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	page, err := repo.List(ctx, RequestFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].ID)

	empty, err := repo.List(ctx, RequestFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
