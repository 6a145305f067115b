// FILE: internal/repository/memory/subscription_repository.go
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

type SubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*entity.UserSubscription
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{subs: map[uuid.UUID]*entity.UserSubscription{}}
}

var _ contract.SubscriptionRepository = (*SubscriptionRepository)(nil)

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entity.UserSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.Id == uuid.Nil {
		sub.Id = uuid.New()
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	clone := *sub
	r.subs[sub.Id] = &clone
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *entity.UserSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.UpdatedAt = time.Now()
	clone := *sub
	r.subs[sub.Id] = &clone
	return nil
}

func (r *SubscriptionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := buildQuery(specs)
	var best *entity.UserSubscription
	for _, s := range r.subs {
		if !r.matches(s, q) {
			continue
		}
		// Mirror ORDER BY created_at DESC LIMIT 1 when requested.
		if best == nil || (q.orderDesc && s.CreatedAt.After(best.CreatedAt)) {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	clone := *best
	return &clone, nil
}

func (r *SubscriptionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := buildQuery(specs)
	var out []*entity.UserSubscription
	for _, s := range r.subs {
		if r.matches(s, q) {
			clone := *s
			out = append(out, &clone)
		}
	}
	out = sortAndPage(q, out, func(s *entity.UserSubscription) time.Time { return s.CreatedAt })
	return out, nil
}

func (r *SubscriptionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *SubscriptionRepository) matches(s *entity.UserSubscription, q query) bool {
	if q.id != nil && s.Id != *q.id {
		return false
	}
	if q.userId != nil && s.UserId != *q.userId {
		return false
	}
	if q.externalRef != nil {
		if s.ProviderRef == nil || *s.ProviderRef != *q.externalRef {
			return false
		}
	}
	if status, ok := q.fields["status"]; ok && string(s.Status) != status {
		return false
	}
	if planId, ok := q.fields["plan_id"]; ok && s.PlanId != planId {
		return false
	}
	if ref, ok := q.fields["provider_ref"]; ok {
		if s.ProviderRef == nil || *s.ProviderRef != ref {
			return false
		}
	}
	return q.matchesCreatedAt(s.CreatedAt)
}
