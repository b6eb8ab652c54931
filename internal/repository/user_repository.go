package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// Account is a stored user with its credentials.
type Account struct {
	domain.User
	PasswordHash string
	CreatedAt    time.Time
}

// ErrUsernameTaken is returned when creating an account whose username exists.
var ErrUsernameTaken = apperrors.NewFieldErrors(map[string][]string{
	"username": {"A user with that username already exists."},
})

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	List(ctx context.Context, match func(*Account) bool) ([]Account, error)
}

type memoryUsers struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Account
}

// NewMemoryUsers returns an empty in-memory UserRepository.
func NewMemoryUsers() UserRepository {
	return &memoryUsers{byID: make(map[int64]*Account)}
}

func (r *memoryUsers) Create(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if strings.EqualFold(a.Username, account.Username) {
			return ErrUsernameTaken
		}
	}
	r.nextID++
	account.ID = r.nextID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	stored := *account
	r.byID[stored.ID] = &stored
	return nil
}

func (r *memoryUsers) Update(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[account.ID]; !ok {
		return apperrors.ErrNotFound
	}
	stored := *account
	r.byID[account.ID] = &stored
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id int64) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byID {
		if a.Username == username {
			out := *a
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memoryUsers) List(_ context.Context, match func(*Account) bool) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0, len(r.byID))
	for _, a := range r.byID {
		if match == nil || match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
