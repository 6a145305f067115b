// FILE: internal/service/billing_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ai-adgen-be/internal/catalog"
	"ai-adgen-be/internal/dto"
	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/pkg/apperror"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/repository/memory"
	"ai-adgen-be/pkg/events"
	"ai-adgen-be/pkg/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a scriptable payment.Provider.
type fakeProvider struct {
	name          string
	checkoutState payment.State
	checkoutErr   error
	statusFn      func(ref string) (*payment.Result, error)
	statusCalls   int
	cancelErr     error
	cancelled     []string
	refundErr     error
	refunds       []float64
	checkouts     int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CreateCheckout(ctx context.Context, req *payment.CheckoutRequest) (*payment.Result, error) {
	if p.checkoutErr != nil {
		return nil, p.checkoutErr
	}
	p.checkouts++
	ref := fmt.Sprintf("%s-order-%d", p.name, p.checkouts)
	return &payment.Result{
		ProviderRef:  ref,
		Status:       p.checkoutState,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Continuation: "https://pay.example/" + ref,
	}, nil
}

func (p *fakeProvider) CheckStatus(ctx context.Context, providerRef string) (*payment.Result, error) {
	p.statusCalls++
	if p.statusFn != nil {
		return p.statusFn(providerRef)
	}
	return &payment.Result{ProviderRef: providerRef, Status: payment.StatePending}, nil
}

func (p *fakeProvider) Cancel(ctx context.Context, providerRef string) error {
	if p.cancelErr != nil {
		return p.cancelErr
	}
	p.cancelled = append(p.cancelled, providerRef)
	return nil
}

func (p *fakeProvider) Refund(ctx context.Context, providerRef string, amount float64, reason string) (*payment.RefundResult, error) {
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	p.refunds = append(p.refunds, amount)
	return &payment.RefundResult{RefundRef: "rf-" + providerRef, Status: payment.StateSucceeded}, nil
}

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.published = append(p.published, event.EventType())
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.published {
		if t == eventType {
			n++
		}
	}
	return n
}

type billingEnv struct {
	svc      *billingService
	f        *memory.Factory
	provider *fakeProvider
	pub      *recordingPublisher
}

func newBillingEnv(t *testing.T) *billingEnv {
	t.Helper()
	f := memory.NewFactory()
	cat := catalog.Default()
	subs := NewSubscriptionService(f, cat, logger.Noop())
	ledger := NewLedgerService(f, logger.Noop())
	provider := &fakeProvider{name: payment.ProviderMidtrans, checkoutState: payment.StatePending}
	pub := &recordingPublisher{}
	svc := NewBillingService(
		f, cat, subs, ledger,
		map[string]payment.Provider{provider.name: provider},
		pub, logger.Noop(),
	).(*billingService)
	return &billingEnv{svc: svc, f: f, provider: provider, pub: pub}
}

func (e *billingEnv) seedUser(t *testing.T, credits int) uuid.UUID {
	t.Helper()
	user := &entity.User{
		Id:       uuid.New(),
		Email:    "buyer@example.com",
		FullName: "Billing Buyer",
		Credits:  credits,
	}
	require.NoError(t, e.f.Users.Create(context.Background(), user))
	return user.Id
}

func (e *billingEnv) userCredits(t *testing.T, userId uuid.UUID) int {
	t.Helper()
	users, err := e.f.Users.FindAll(context.Background())
	require.NoError(t, err)
	for _, u := range users {
		if u.Id == userId {
			return u.Credits
		}
	}
	t.Fatalf("user %s not found", userId)
	return 0
}

func (e *billingEnv) onlySubscription(t *testing.T) *entity.UserSubscription {
	t.Helper()
	subs, err := e.f.Subscriptions.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	return subs[0]
}

func TestGetPlans(t *testing.T) {
	env := newBillingEnv(t)

	plans := env.svc.GetPlans(context.Background())
	require.Len(t, plans, 3)
	assert.Equal(t, catalog.PlanStarter, plans[0].Id)
	assert.Equal(t, 29.99, plans[0].Price)
	assert.Equal(t, catalog.UnlimitedCredits, plans[2].Credits)
}

func TestStartSubscriptionPendingThenConfirm(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	resp, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{
		PlanId:   catalog.PlanStarter,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)
	assert.Equal(t, string(payment.StatePending), resp.Status)
	assert.NotEmpty(t, resp.Continuation)

	sub := env.onlySubscription(t)
	assert.Equal(t, entity.SubscriptionStatusPendingActivation, sub.Status)
	assert.Equal(t, 1, env.pub.count(events.TypeSubscriptionCreated))

	// Webhook arrives.
	err = env.svc.ConfirmPayment(ctx, &dto.PaymentCallback{
		Provider:    payment.ProviderMidtrans,
		ProviderRef: resp.ProviderRef,
		Status:      string(payment.StateSucceeded),
	})
	require.NoError(t, err)

	sub = env.onlySubscription(t)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, 1, env.pub.count(events.TypePaymentCompleted))

	// Replayed webhook is a no-op.
	err = env.svc.ConfirmPayment(ctx, &dto.PaymentCallback{
		Provider:    payment.ProviderMidtrans,
		ProviderRef: resp.ProviderRef,
		Status:      string(payment.StateSucceeded),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.pub.count(events.TypePaymentCompleted))
}

func TestStartSubscriptionSynchronousSuccess(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	resp, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{
		PlanId:   catalog.PlanProfessional,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)
	assert.Equal(t, string(payment.StateSucceeded), resp.Status)

	sub := env.onlySubscription(t)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)

	history, err := env.svc.GetTransactionHistory(ctx, userId, nil)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(entity.TransactionStatusCompleted), history[0].Status)
	assert.Equal(t, 79.99, history[0].Amount)
}

func TestStartSubscriptionWhileActive(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	_, err = env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyActive))
}

func TestStartSubscriptionUnknownProvider(t *testing.T) {
	env := newBillingEnv(t)
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(context.Background(), userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: "stripe"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestStartSubscriptionProviderFailureLeavesNoTrace(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutErr = errors.New("gateway down")
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	assert.True(t, apperror.IsKind(err, apperror.KindProvider))

	subs, err2 := env.f.Subscriptions.FindAll(ctx)
	require.NoError(t, err2)
	assert.Empty(t, subs)

	history, err2 := env.svc.GetTransactionHistory(ctx, userId, nil)
	require.NoError(t, err2)
	assert.Empty(t, history)
}

func TestFailedPaymentCancelsPendingSubscription(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	resp, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	err = env.svc.ConfirmPayment(ctx, &dto.PaymentCallback{
		Provider:    payment.ProviderMidtrans,
		ProviderRef: resp.ProviderRef,
		Status:      string(payment.StateFailed),
	})
	require.NoError(t, err)

	sub := env.onlySubscription(t)
	assert.Equal(t, entity.SubscriptionStatusCancelled, sub.Status)
	assert.Equal(t, 1, env.pub.count(events.TypePaymentFailed))

	history, err := env.svc.GetTransactionHistory(ctx, userId, nil)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(entity.TransactionStatusFailed), history[0].Status)
}

func TestPurchaseCreditsGrantsOnce(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	resp, err := env.svc.PurchaseCredits(ctx, userId, &dto.PurchaseCreditsRequest{
		Credits:  1000,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.00, resp.Amount)
	assert.Equal(t, 0.05, resp.UnitPrice)
	assert.Equal(t, 0, env.userCredits(t, userId))

	cb := &dto.PaymentCallback{
		Provider:    payment.ProviderMidtrans,
		ProviderRef: resp.ProviderRef,
		Status:      string(payment.StateSucceeded),
	}
	require.NoError(t, env.svc.ConfirmPayment(ctx, cb))
	assert.Equal(t, 1000, env.userCredits(t, userId))

	// The grant rides the pending->completed edge exactly once.
	require.NoError(t, env.svc.ConfirmPayment(ctx, cb))
	assert.Equal(t, 1000, env.userCredits(t, userId))
	assert.Equal(t, 1, env.pub.count(events.TypePaymentCompleted))
}

func TestPurchaseCreditsSynchronousSuccess(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	resp, err := env.svc.PurchaseCredits(ctx, userId, &dto.PurchaseCreditsRequest{
		Credits:  500,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)
	assert.Equal(t, 35.00, resp.Amount)
	assert.Equal(t, 500, env.userCredits(t, userId))
}

func TestCancelSubscriptionFailsClosedOnProvider(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	env.provider.cancelErr = errors.New("provider unavailable")
	_, err = env.svc.CancelSubscription(ctx, userId, &dto.CancelRequest{Reason: "changed my mind"})
	assert.True(t, apperror.IsKind(err, apperror.KindProvider))

	sub := env.onlySubscription(t)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
}

func TestCancelSubscriptionIdempotent(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	first, err := env.svc.CancelSubscription(ctx, userId, &dto.CancelRequest{Reason: "too expensive"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SubscriptionStatusCancelled), first.Status)
	assert.Len(t, env.provider.cancelled, 1)
	assert.Equal(t, 1, env.pub.count(events.TypeSubscriptionCancelled))

	// Access survives until the period end, so the record is still found and
	// the second cancel changes nothing.
	second, err := env.svc.CancelSubscription(ctx, userId, nil)
	require.NoError(t, err)
	assert.Equal(t, first.SubscriptionId, second.SubscriptionId)
	assert.Len(t, env.provider.cancelled, 1)
	assert.Equal(t, 1, env.pub.count(events.TypeSubscriptionCancelled))
}

func TestConcurrentCancelsSettleOnce(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*dto.CancelResponse, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.svc.CancelSubscription(ctx, userId, &dto.CancelRequest{Reason: "double click"})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].SubscriptionId, results[1].SubscriptionId)
	assert.Equal(t, string(entity.SubscriptionStatusCancelled), results[0].Status)
	assert.Equal(t, string(entity.SubscriptionStatusCancelled), results[1].Status)

	// Exactly one cancellation reached the provider and the record carries a
	// single cancelledAt.
	assert.Len(t, env.provider.cancelled, 1)
	assert.Equal(t, 1, env.pub.count(events.TypeSubscriptionCancelled))
	sub := env.onlySubscription(t)
	require.NotNil(t, sub.CancelledAt)
}

func TestUpgradeRecordsProratedCharge(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	resp, err := env.svc.UpgradeSubscription(ctx, userId, &dto.UpgradeRequest{PlanId: catalog.PlanProfessional})
	require.NoError(t, err)
	assert.Equal(t, catalog.PlanProfessional, resp.PlanId)
	assert.InDelta(t, 50.00, resp.ProratedCharge, 0.01)
	assert.Equal(t, 1, env.pub.count(events.TypeSubscriptionUpgraded))

	history, err := env.svc.GetTransactionHistory(ctx, userId, &dto.TransactionHistoryRequest{Type: string(entity.TransactionTypeSubscription)})
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Most recent first.
	assert.InDelta(t, resp.ProratedCharge, history[0].Amount, 0.001)
	assert.Equal(t, string(entity.TransactionStatusCompleted), history[0].Status)
}

func TestRefundTransaction(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	purchase, err := env.svc.PurchaseCredits(ctx, userId, &dto.PurchaseCreditsRequest{
		Credits:  500,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)

	resp, err := env.svc.RefundTransaction(ctx, &dto.RefundRequest{
		TransactionId: purchase.TransactionId,
		Amount:        10,
		Reason:        "unused credits",
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, resp.Amount)
	assert.Equal(t, string(entity.TransactionStatusRefunded), resp.Status)
	assert.NotEmpty(t, resp.RefundRef)
	assert.Equal(t, []float64{10}, env.provider.refunds)
	assert.Equal(t, 1, env.pub.count(events.TypeRefundProcessed))

	// The refund shows up in history as its own completed entry.
	history, err := env.svc.GetTransactionHistory(ctx, userId, &dto.TransactionHistoryRequest{Type: string(entity.TransactionTypeRefund)})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10.0, history[0].Amount)

	// A settled refund is terminal.
	_, err = env.svc.RefundTransaction(ctx, &dto.RefundRequest{
		TransactionId: purchase.TransactionId,
		Amount:        5,
		Reason:        "again",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
}

// vanishingLedger returns the entry on the first lookup and nothing after,
// standing in for an entry that disappears between the lookup and the lock.
type vanishingLedger struct {
	ILedgerService
	finds int
}

func (l *vanishingLedger) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	l.finds++
	if l.finds > 1 {
		return nil, nil
	}
	return l.ILedgerService.FindByID(ctx, id)
}

func TestRefundTransactionGoneUnderLock(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	purchase, err := env.svc.PurchaseCredits(ctx, userId, &dto.PurchaseCreditsRequest{
		Credits:  500,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)

	env.svc.ledger = &vanishingLedger{ILedgerService: env.svc.ledger}

	_, err = env.svc.RefundTransaction(ctx, &dto.RefundRequest{
		TransactionId: purchase.TransactionId,
		Amount:        5,
		Reason:        "gone",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Empty(t, env.provider.refunds)
}

func TestRefundExceedsCap(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	purchase, err := env.svc.PurchaseCredits(ctx, userId, &dto.PurchaseCreditsRequest{
		Credits:  500,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)

	_, err = env.svc.RefundTransaction(ctx, &dto.RefundRequest{
		TransactionId: purchase.TransactionId,
		Amount:        100,
		Reason:        "too much",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Empty(t, env.provider.refunds)
}

func TestPayCommissionRateTiers(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	affiliateId := env.seedUser(t, 0)

	// No settled history yet: the base rate applies no matter how large the
	// first sale is.
	resp, err := env.svc.PayCommission(ctx, &dto.CommissionRequest{
		AffiliateId: affiliateId,
		SaleAmount:  2000,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.08, resp.Rate)
	assert.Equal(t, 160.00, resp.Amount)
	assert.Equal(t, string(entity.TransactionStatusPending), resp.Status)
	assert.Equal(t, 1, env.pub.count(events.TypeCommissionRecorded))

	// Once the first commission settles, its sale counts toward the tier of
	// the next one.
	_, err = env.svc.ledger.TransitionStatus(ctx, resp.TransactionId, entity.TransactionStatusCompleted, nil)
	require.NoError(t, err)

	second, err := env.svc.PayCommission(ctx, &dto.CommissionRequest{
		AffiliateId: affiliateId,
		SaleAmount:  500,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.10, second.Rate)
	assert.Equal(t, 50.00, second.Amount)
}

func TestRecordUsageThroughBilling(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	status, err := env.svc.RecordUsage(ctx, userId, &dto.UsageRequest{Credits: 40, Campaigns: 2})
	require.NoError(t, err)
	assert.Equal(t, 40, status.CreditsUsed)
	assert.Equal(t, 2, status.CampaignsCreated)
	assert.Equal(t, 60, status.CreditsRemaining)
}

func TestGetSubscriptionStatusCaches(t *testing.T) {
	env := newBillingEnv(t)
	env.provider.checkoutState = payment.StateSucceeded
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	first, err := env.svc.GetSubscriptionStatus(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CreditsUsed)

	// Usage through the billing API invalidates the cache.
	_, err = env.svc.RecordUsage(ctx, userId, &dto.UsageRequest{Credits: 25})
	require.NoError(t, err)

	second, err := env.svc.GetSubscriptionStatus(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, 25, second.CreditsUsed)
}

func TestReconcilePendingCompletes(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.PurchaseCredits(ctx, userId, &dto.PurchaseCreditsRequest{
		Credits:  1000,
		Provider: payment.ProviderMidtrans,
	})
	require.NoError(t, err)

	env.provider.statusFn = func(ref string) (*payment.Result, error) {
		return &payment.Result{ProviderRef: ref, Status: payment.StateSucceeded}, nil
	}

	report, err := env.svc.ReconcilePending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 0, report.StillOpen)

	assert.Equal(t, 1000, env.userCredits(t, userId))
}

func TestReconcileRetriesTransientFailure(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	calls := 0
	env.provider.statusFn = func(ref string) (*payment.Result, error) {
		calls++
		if calls == 1 {
			return nil, &payment.Error{Provider: payment.ProviderMidtrans, Transient: true, Err: errors.New("timeout")}
		}
		return &payment.Result{ProviderRef: ref, Status: payment.StateSucceeded}, nil
	}

	report, err := env.svc.ReconcilePending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, report.Completed)

	sub := env.onlySubscription(t)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
}

func TestReconcileLeavesPermanentFailuresOpen(t *testing.T) {
	env := newBillingEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, 0)

	_, err := env.svc.StartSubscription(ctx, userId, &dto.CheckoutRequest{PlanId: catalog.PlanStarter, Provider: payment.ProviderMidtrans})
	require.NoError(t, err)

	env.provider.statusFn = func(ref string) (*payment.Result, error) {
		return nil, &payment.Error{Provider: payment.ProviderMidtrans, Transient: false, Err: errors.New("not found")}
	}

	report, err := env.svc.ReconcilePending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.StillOpen)
	assert.Equal(t, 0, report.Completed)
}
