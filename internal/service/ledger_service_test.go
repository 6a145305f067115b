// FILE: internal/service/ledger_service_test.go
package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/pkg/apperror"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/repository/memory"
	"ai-adgen-be/internal/repository/specification"
	"ai-adgen-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerService(t *testing.T) (*ledgerService, *memory.Factory) {
	t.Helper()
	f := memory.NewFactory()
	svc := NewLedgerService(f, logger.Noop()).(*ledgerService)
	return svc, f
}

func TestRecordDerivesReference(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeCreditPurchase,
		Amount: 35.00,
	})
	require.NoError(t, err)

	require.NotNil(t, txn.ExternalRef)
	ref := *txn.ExternalRef
	assert.True(t, strings.HasPrefix(ref, "C"), "reference %q should start with the type initial", ref)
	assert.Equal(t, strings.ToUpper(ref), ref)
	assert.Greater(t, len(ref), 6)

	// Defaults applied.
	assert.Equal(t, entity.TransactionStatusPending, txn.Status)
	assert.Equal(t, "USD", txn.Currency)
	assert.NotEqual(t, uuid.Nil, txn.Id)
}

func TestRecordRejectsBadInput(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, &entity.Transaction{UserId: uuid.New(), Type: "lottery", Amount: 10})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.Record(ctx, &entity.Transaction{UserId: uuid.New(), Type: entity.TransactionTypeRefund, Amount: -5})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRecordReplayReturnsExistingEntry(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	userId := uuid.New()
	ref := "ORDER-123"

	first, err := svc.Record(ctx, &entity.Transaction{
		UserId:      userId,
		Type:        entity.TransactionTypeSubscription,
		Amount:      29.99,
		ExternalRef: &ref,
	})
	require.NoError(t, err)

	// Same shape: webhook replay resolves to the stored entry.
	replay, err := svc.Record(ctx, &entity.Transaction{
		UserId:      userId,
		Type:        entity.TransactionTypeSubscription,
		Amount:      29.99,
		ExternalRef: &ref,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Id, replay.Id)

	// Different shape under the same reference is a conflict.
	_, err = svc.Record(ctx, &entity.Transaction{
		UserId:      userId,
		Type:        entity.TransactionTypeSubscription,
		Amount:      79.99,
		ExternalRef: &ref,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindDuplicateReference))
}

func TestTransitionStatusEnforcesMachine(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeSubscription,
		Amount: 29.99,
	})
	require.NoError(t, err)

	// pending -> refunded skips completed.
	_, err = svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusRefunded, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))

	completed, err := svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusCompleted, completed.Status)

	// completed -> failed is not a thing.
	_, err = svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusFailed, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))

	_, err = svc.TransitionStatus(ctx, uuid.New(), entity.TransactionStatusCompleted, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestTransitionStatusWithRunsHookInSameUnit(t *testing.T) {
	svc, f := newLedgerService(t)
	ctx := context.Background()

	userId := uuid.New()
	require.NoError(t, f.Users.Create(ctx, &entity.User{Id: userId, Email: "hook@example.com"}))

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: userId,
		Type:   entity.TransactionTypeCreditPurchase,
		Amount: 35.00,
	})
	require.NoError(t, err)

	completed, err := svc.TransitionStatusWith(ctx, txn.Id, entity.TransactionStatusCompleted, nil, func(uow unitofwork.UnitOfWork) error {
		return uow.UserRepository().AdjustCredits(ctx, userId, 500)
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusCompleted, completed.Status)

	user, err := f.Users.FindOne(ctx, specification.ByID{ID: userId})
	require.NoError(t, err)
	assert.Equal(t, 500, user.Credits)
}

func TestTransitionStatusWithHookFailureAborts(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeCreditPurchase,
		Amount: 35.00,
	})
	require.NoError(t, err)

	_, err = svc.TransitionStatusWith(ctx, txn.Id, entity.TransactionStatusCompleted, nil, func(uow unitofwork.UnitOfWork) error {
		return errors.New("credit grant failed")
	})
	require.Error(t, err)

	current, err := svc.FindByID(ctx, txn.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusPending, current.Status)
}

func TestRefundCapAndTerminality(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeCreditPurchase,
		Amount: 100,
		Status: entity.TransactionStatusCompleted,
	})
	require.NoError(t, err)

	// Over the cap.
	_, err = svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusRefunded, &TransitionDetail{Amount: 150})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	refunded, err := svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusRefunded, &TransitionDetail{Amount: 40, Reason: "duplicate charge"})
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundDetails)
	assert.Equal(t, 40.0, refunded.RefundDetails.Amount)
	assert.Equal(t, "duplicate charge", refunded.RefundDetails.Reason)

	// refunded is terminal: no second refund.
	_, err = svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusRefunded, &TransitionDetail{Amount: 10})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
}

func TestRefundDefaultsToFullAmount(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeSubscription,
		Amount: 79.99,
		Status: entity.TransactionStatusCompleted,
	})
	require.NoError(t, err)

	refunded, err := svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusRefunded, nil)
	require.NoError(t, err)
	require.NotNil(t, refunded.RefundDetails)
	assert.Equal(t, 79.99, refunded.RefundDetails.Amount)
	assert.Equal(t, 0.0, refunded.AvailableToRefund())
}

func TestDisputeLifecycle(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeSubscription,
		Amount: 29.99,
		Status: entity.TransactionStatusCompleted,
	})
	require.NoError(t, err)

	disputeRef := "dp-900"
	disputed, err := svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusDisputed, &TransitionDetail{
		DisputeRef: &disputeRef,
		Reason:     "cardholder complaint",
	})
	require.NoError(t, err)
	require.NotNil(t, disputed.DisputeDetails)
	assert.Equal(t, "cardholder complaint", disputed.DisputeDetails.Reason)
	assert.Nil(t, disputed.DisputeDetails.ResolvedAt)

	// Dispute won: back to completed with a resolution timestamp.
	resolved, err := svc.TransitionStatus(ctx, txn.Id, entity.TransactionStatusCompleted, nil)
	require.NoError(t, err)
	require.NotNil(t, resolved.DisputeDetails)
	assert.NotNil(t, resolved.DisputeDetails.ResolvedAt)
}

func TestHistoryFiltersAndPaginates(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	userId := uuid.New()
	other := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, &entity.Transaction{
			UserId: userId,
			Type:   entity.TransactionTypeCreditPurchase,
			Amount: float64(10 + i),
		})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, &entity.Transaction{
		UserId: userId,
		Type:   entity.TransactionTypeSubscription,
		Amount: 29.99,
		Status: entity.TransactionStatusCompleted,
	})
	require.NoError(t, err)
	_, err = svc.Record(ctx, &entity.Transaction{
		UserId: other,
		Type:   entity.TransactionTypeCreditPurchase,
		Amount: 5,
	})
	require.NoError(t, err)

	all, err := svc.History(ctx, userId, "", "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	purchases, err := svc.History(ctx, userId, string(entity.TransactionTypeCreditPurchase), "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, purchases, 3)

	completed, err := svc.History(ctx, userId, "", string(entity.TransactionStatusCompleted), 0, 0)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	page, err := svc.History(ctx, userId, "", "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestPendingOlderThan(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	txn, err := svc.Record(ctx, &entity.Transaction{
		UserId: uuid.New(),
		Type:   entity.TransactionTypeSubscription,
		Amount: 29.99,
	})
	require.NoError(t, err)

	stale, err := svc.PendingOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, txn.Id, stale[0].Id)

	// Nothing predates a cutoff in the past.
	stale, err = svc.PendingOlderThan(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)
}
