// FILE: internal/entity/subscription_entity_test.go
package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   SubscriptionStatus
		to     SubscriptionStatus
		wantOk bool
	}{
		{name: "draft to pending", from: SubscriptionStatusDraft, to: SubscriptionStatusPendingActivation, wantOk: true},
		{name: "pending to active", from: SubscriptionStatusPendingActivation, to: SubscriptionStatusActive, wantOk: true},
		{name: "pending to cancelled", from: SubscriptionStatusPendingActivation, to: SubscriptionStatusCancelled, wantOk: true},
		{name: "active to past_due", from: SubscriptionStatusActive, to: SubscriptionStatusPastDue, wantOk: true},
		{name: "active to expired", from: SubscriptionStatusActive, to: SubscriptionStatusExpired, wantOk: true},
		{name: "past_due recovers to active", from: SubscriptionStatusPastDue, to: SubscriptionStatusActive, wantOk: true},
		{name: "draft cannot skip to active", from: SubscriptionStatusDraft, to: SubscriptionStatusActive, wantOk: false},
		{name: "cancelled is terminal", from: SubscriptionStatusCancelled, to: SubscriptionStatusActive, wantOk: false},
		{name: "expired is terminal", from: SubscriptionStatusExpired, to: SubscriptionStatusActive, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOk, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, SubscriptionStatusCancelled.Terminal())
	assert.True(t, SubscriptionStatusExpired.Terminal())
	assert.False(t, SubscriptionStatusActive.Terminal())
}

func TestTransactionStatusTransitions(t *testing.T) {
	assert.True(t, TransactionStatusPending.CanTransitionTo(TransactionStatusCompleted))
	assert.True(t, TransactionStatusPending.CanTransitionTo(TransactionStatusFailed))
	assert.True(t, TransactionStatusCompleted.CanTransitionTo(TransactionStatusRefunded))
	assert.True(t, TransactionStatusCompleted.CanTransitionTo(TransactionStatusDisputed))
	assert.True(t, TransactionStatusDisputed.CanTransitionTo(TransactionStatusCompleted))
	assert.True(t, TransactionStatusDisputed.CanTransitionTo(TransactionStatusRefunded))

	assert.False(t, TransactionStatusPending.CanTransitionTo(TransactionStatusRefunded))
	assert.False(t, TransactionStatusFailed.CanTransitionTo(TransactionStatusCompleted))
	assert.False(t, TransactionStatusRefunded.CanTransitionTo(TransactionStatusCompleted))
}

func TestSubscriptionIsActive(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	sub := &UserSubscription{
		Status:             SubscriptionStatusActive,
		CurrentPeriodStart: now.AddDate(0, -1, 0),
		CurrentPeriodEnd:   now.AddDate(0, 0, 10),
	}

	assert.True(t, sub.IsActive(now))

	// Cancelled keeps entitlements until the period end.
	sub.Status = SubscriptionStatusCancelled
	assert.True(t, sub.IsActive(now))
	assert.False(t, sub.IsActive(now.AddDate(0, 0, 11)))

	sub.Status = SubscriptionStatusPendingActivation
	assert.False(t, sub.IsActive(now))

	sub.Status = SubscriptionStatusActive
	assert.False(t, sub.IsActive(now.AddDate(0, 0, 10)))
}

func TestRemainingDaysRoundsUp(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	sub := &UserSubscription{
		CurrentPeriodStart: now.AddDate(0, -1, 0),
		CurrentPeriodEnd:   now.Add(36 * time.Hour),
	}

	assert.Equal(t, 2, sub.RemainingDays(now))
	assert.Equal(t, 0, sub.RemainingDays(now.Add(48*time.Hour)))
}

func TestRefundAccounting(t *testing.T) {
	txn := &Transaction{Amount: 100}
	assert.Equal(t, 0.0, txn.RefundedAmount())
	assert.Equal(t, 100.0, txn.AvailableToRefund())

	txn.RefundDetails = &RefundDetails{Amount: 40}
	assert.Equal(t, 40.0, txn.RefundedAmount())
	assert.Equal(t, 60.0, txn.AvailableToRefund())

	txn.RefundDetails.Amount = 100
	assert.Equal(t, 0.0, txn.AvailableToRefund())
}
