// FILE: internal/repository/memory/user_repository.go
package memory

import (
	"context"
	"sync"
	"time"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/repository/contract"
	"ai-adgen-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[uuid.UUID]*entity.User{}}
}

var _ contract.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.Id] = &clone
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.Id] = &clone
	return nil
}

func (r *UserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if r.matches(u, buildQuery(specs)) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := buildQuery(specs)
	var out []*entity.User
	for _, u := range r.users {
		if r.matches(u, q) {
			clone := *u
			out = append(out, &clone)
		}
	}
	out = sortAndPage(q, out, func(u *entity.User) time.Time { return u.CreatedAt })
	return out, nil
}

func (r *UserRepository) AdjustCredits(ctx context.Context, userId uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userId]
	if !ok {
		return nil
	}
	u.Credits += delta
	u.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepository) matches(u *entity.User, q query) bool {
	if q.id != nil && u.Id != *q.id {
		return false
	}
	if email, ok := q.fields["email"]; ok && u.Email != email {
		return false
	}
	return true
}
