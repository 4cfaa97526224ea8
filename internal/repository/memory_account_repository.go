package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyforme-service/internal/domain"
)

// MemoryUserRepository is an in-process UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository returns an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.Email = strings.ToLower(user.Email)
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// MemoryStaffRepository is an in-process StaffRepository.
type MemoryStaffRepository struct {
	mu    sync.RWMutex
	staff map[string]domain.StaffMember
}

// NewMemoryStaffRepository returns an empty store.
func NewMemoryStaffRepository() *MemoryStaffRepository {
	return &MemoryStaffRepository{staff: make(map[string]domain.StaffMember)}
}

func (r *MemoryStaffRepository) Create(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staff.Email = strings.ToLower(staff.Email)
	for _, existing := range r.staff {
		if existing.Email == staff.Email {
			return ErrDuplicateEmail
		}
	}
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt, staff.UpdatedAt = now, now
	stored := *staff
	stored.Permissions = append([]domain.Permission(nil), staff.Permissions...)
	r.staff[staff.ID] = stored
	return nil
}

func (r *MemoryStaffRepository) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	staff, ok := r.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	staff.Permissions = append([]domain.Permission(nil), staff.Permissions...)
	return &staff, nil
}

func (r *MemoryStaffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	r.mu.RLock()
	var id string
	for _, staff := range r.staff {
		if staff.Email == strings.ToLower(email) {
			id = staff.ID
			break
		}
	}
	r.mu.RUnlock()
	if id == "" {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryStaffRepository) List(_ context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.StaffMember
	for _, staff := range r.staff {
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		if filter.Permission != nil && !staff.Actor().Has(*filter.Permission) {
			continue
		}
		staff.Permissions = append([]domain.Permission(nil), staff.Permissions...)
		result = append(result, staff)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

var (
	_ UserRepository  = (*MemoryUserRepository)(nil)
	_ StaffRepository = (*MemoryStaffRepository)(nil)
)
