// FILE: internal/entity/subscription_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusDraft             SubscriptionStatus = "draft"
	SubscriptionStatusPendingActivation SubscriptionStatus = "pending_activation"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled         SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired           SubscriptionStatus = "expired"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusDraft:             {SubscriptionStatusPendingActivation},
	SubscriptionStatusPendingActivation: {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusActive:            {SubscriptionStatusPastDue, SubscriptionStatusCancelled, SubscriptionStatusExpired},
	SubscriptionStatusPastDue:           {SubscriptionStatusActive, SubscriptionStatusCancelled},
	// cancelled and expired are terminal; a new subscription record is
	// created for any future plan, never a resurrection of the old one.
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, t := range subscriptionTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s SubscriptionStatus) Terminal() bool {
	return len(subscriptionTransitions[s]) == 0
}

// Usage tracks per-period consumption counters.
type Usage struct {
	CreditsUsed      int
	CampaignsCreated int
	LastUsageAt      *time.Time
}

// UserSubscription holds the plan a user is on and the current billing
// period. At most one subscription per user is active at any time;
// CancelledAt is set if and only if status is cancelled.
type UserSubscription struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	PlanId             string
	Status             SubscriptionStatus
	Provider           string
	ProviderRef        *string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelledAt        *time.Time
	CancelReason       *string
	Usage              Usage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive reports whether the subscription grants entitlements at the given
// instant. Cancelled subscriptions remain usable until the period ends.
func (s *UserSubscription) IsActive(now time.Time) bool {
	switch s.Status {
	case SubscriptionStatusActive:
		return s.CurrentPeriodEnd.After(now)
	case SubscriptionStatusCancelled:
		return s.CurrentPeriodEnd.After(now)
	default:
		return false
	}
}

func (s *UserSubscription) RemainingDays(now time.Time) int {
	diff := s.CurrentPeriodEnd.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int((diff + 24*time.Hour - 1) / (24 * time.Hour))
}

func (s *UserSubscription) PeriodDays() int {
	return int(s.CurrentPeriodEnd.Sub(s.CurrentPeriodStart) / (24 * time.Hour))
}
