// FILE: internal/service/billing_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"ai-adgen-be/internal/catalog"
	"ai-adgen-be/internal/dto"
	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/pkg/apperror"
	"ai-adgen-be/internal/pkg/locker"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/repository/specification"
	"ai-adgen-be/internal/repository/unitofwork"
	"ai-adgen-be/pkg/events"
	"ai-adgen-be/pkg/payment"
	"ai-adgen-be/pkg/pricing"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// IBillingService orchestrates the payment providers, the subscription
// lifecycle and the transaction ledger. All user-mutating operations are
// serialized per user so concurrent webhooks and API calls cannot interleave.
type IBillingService interface {
	GetPlans(ctx context.Context) []*dto.PlanResponse
	StartSubscription(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, cb *dto.PaymentCallback) error
	CancelSubscription(ctx context.Context, userId uuid.UUID, req *dto.CancelRequest) (*dto.CancelResponse, error)
	UpgradeSubscription(ctx context.Context, userId uuid.UUID, req *dto.UpgradeRequest) (*dto.UpgradeResponse, error)
	PurchaseCredits(ctx context.Context, userId uuid.UUID, req *dto.PurchaseCreditsRequest) (*dto.PurchaseCreditsResponse, error)
	RecordUsage(ctx context.Context, userId uuid.UUID, req *dto.UsageRequest) (*dto.SubscriptionStatusResponse, error)
	PayCommission(ctx context.Context, req *dto.CommissionRequest) (*dto.CommissionResponse, error)
	RefundTransaction(ctx context.Context, req *dto.RefundRequest) (*dto.RefundResponse, error)
	GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
	GetTransactionHistory(ctx context.Context, userId uuid.UUID, req *dto.TransactionHistoryRequest) ([]*dto.TransactionResponse, error)
	ReconcilePending(ctx context.Context, olderThan time.Duration) (*dto.ReconcileResponse, error)
}

type billingService struct {
	uowFactory  unitofwork.RepositoryFactory
	catalog     *catalog.Catalog
	subs        ISubscriptionService
	ledger      ILedgerService
	providers   map[string]payment.Provider
	locks       *locker.KeyedMutex
	statusCache *gocache.Cache
	publisher   events.Publisher
	log         logger.ILogger
	now         func() time.Time
	callTimeout time.Duration
}

func NewBillingService(
	uowFactory unitofwork.RepositoryFactory,
	cat *catalog.Catalog,
	subs ISubscriptionService,
	ledger ILedgerService,
	providers map[string]payment.Provider,
	publisher events.Publisher,
	log logger.ILogger,
) IBillingService {
	return &billingService{
		uowFactory:  uowFactory,
		catalog:     cat,
		subs:        subs,
		ledger:      ledger,
		providers:   providers,
		locks:       locker.New(),
		statusCache: gocache.New(30*time.Second, 5*time.Minute),
		publisher:   publisher,
		log:         log,
		now:         time.Now,
		callTimeout: 15 * time.Second,
	}
}

func (s *billingService) provider(name string) (payment.Provider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, apperror.Validationf("unknown payment provider %q", name)
	}
	return p, nil
}

func (s *billingService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.log.Warn("billing", "failed to publish event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}

func (s *billingService) GetPlans(ctx context.Context) []*dto.PlanResponse {
	plans := s.catalog.Plans()
	res := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		res = append(res, &dto.PlanResponse{
			Id:           p.Id,
			Name:         p.Name,
			Price:        p.Price,
			Credits:      p.Credits,
			Interval:     string(p.Interval),
			MaxCampaigns: p.MaxCampaigns,
			Features:     p.Features,
		})
	}
	return res
}

func (s *billingService) StartSubscription(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	release := s.locks.Lock(userId.String())
	defer release()

	plan, err := s.catalog.Lookup(req.PlanId)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(req.Provider)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user", userId.String())
	}

	existing, err := s.subs.ActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == entity.SubscriptionStatusActive {
		return nil, apperror.AlreadyActive(userId.String())
	}

	orderRef := uuid.New().String()
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	result, err := provider.CreateCheckout(callCtx, &payment.CheckoutRequest{
		Reference:     orderRef,
		Description:   fmt.Sprintf("%s plan subscription", plan.Name),
		Amount:        plan.Price,
		Currency:      "USD",
		CustomerId:    userId.String(),
		CustomerEmail: user.Email,
		CustomerName:  user.FullName,
	})
	if err != nil {
		return nil, apperror.Provider(req.Provider, err)
	}

	txn, err := s.ledger.Record(ctx, &entity.Transaction{
		UserId:        userId,
		Type:          entity.TransactionTypeSubscription,
		Amount:        plan.Price,
		Currency:      "USD",
		Status:        entity.TransactionStatusPending,
		PaymentMethod: entity.PaymentMethod(req.Provider),
		ExternalRef:   &result.ProviderRef,
		Description:   fmt.Sprintf("%s plan subscription", plan.Name),
		Metadata:      map[string]interface{}{"plan_id": plan.Id},
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.Activate(ctx, ActivateParams{
		UserId:      userId,
		PlanId:      plan.Id,
		Provider:    req.Provider,
		ProviderRef: &result.ProviderRef,
		Pending:     result.Status != payment.StateSucceeded,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeSubscriptionCreated, map[string]interface{}{
		"subscription_id": sub.Id.String(),
		"user_id":         userId.String(),
		"user_email":      user.Email,
		"plan_id":         plan.Id,
		"plan_name":       plan.Name,
		"amount":          plan.Price,
		"currency":        "USD",
	})

	// Synchronous providers settle inside the checkout call; confirm inline
	// while still holding the user lock.
	if result.Status == payment.StateSucceeded {
		if err := s.confirm(ctx, &dto.PaymentCallback{
			Provider:    req.Provider,
			ProviderRef: result.ProviderRef,
			Status:      string(payment.StateSucceeded),
			Amount:      plan.Price,
			Currency:    "USD",
		}); err != nil {
			return nil, err
		}
	}

	return &dto.CheckoutResponse{
		SubscriptionId: sub.Id,
		TransactionId:  txn.Id,
		ProviderRef:    result.ProviderRef,
		Continuation:   result.Continuation,
		Status:         string(result.Status),
	}, nil
}

func (s *billingService) ConfirmPayment(ctx context.Context, cb *dto.PaymentCallback) error {
	txn, err := s.ledger.FindByExternalRef(ctx, cb.ProviderRef)
	if err != nil {
		return err
	}
	if txn == nil {
		return apperror.NotFound("transaction", cb.ProviderRef)
	}

	release := s.locks.Lock(txn.UserId.String())
	defer release()
	return s.confirm(ctx, cb)
}

// confirm applies a payment outcome. The caller must hold the user lock;
// replayed callbacks for an already settled transaction are a no-op.
func (s *billingService) confirm(ctx context.Context, cb *dto.PaymentCallback) error {
	txn, err := s.ledger.FindByExternalRef(ctx, cb.ProviderRef)
	if err != nil {
		return err
	}
	if txn == nil {
		return apperror.NotFound("transaction", cb.ProviderRef)
	}
	if txn.Status != entity.TransactionStatusPending {
		s.log.Info("billing", "callback replay ignored, transaction already settled", map[string]interface{}{
			"provider_ref": cb.ProviderRef,
			"status":       txn.Status,
		})
		return nil
	}

	switch payment.State(cb.Status) {
	case payment.StateSucceeded:
		if _, err := s.ledger.TransitionStatusWith(ctx, txn.Id, entity.TransactionStatusCompleted, nil, func(uow unitofwork.UnitOfWork) error {
			// The credit grant commits together with the pending->completed
			// transition; a replay never reaches this hook.
			if txn.Type != entity.TransactionTypeCreditPurchase {
				return nil
			}
			credits, ok := creditCount(txn.Metadata)
			if !ok || credits <= 0 {
				return nil
			}
			return uow.UserRepository().AdjustCredits(ctx, txn.UserId, credits)
		}); err != nil {
			return err
		}
		if err := s.settleSucceeded(ctx, txn, cb); err != nil {
			return err
		}
	case payment.StateFailed:
		if _, err := s.ledger.TransitionStatus(ctx, txn.Id, entity.TransactionStatusFailed, nil); err != nil {
			return err
		}
		if txn.Type == entity.TransactionTypeSubscription {
			sub, err := s.subs.FindByProviderRef(ctx, cb.ProviderRef)
			if err != nil {
				return err
			}
			if sub != nil && sub.Status == entity.SubscriptionStatusPendingActivation {
				if _, err := s.subs.Transition(ctx, sub.Id, entity.SubscriptionStatusCancelled); err != nil {
					return err
				}
			}
		}
		s.publish(ctx, events.TypePaymentFailed, map[string]interface{}{
			"transaction_id": txn.Id.String(),
			"user_id":        txn.UserId.String(),
			"provider_ref":   cb.ProviderRef,
			"amount":         txn.Amount,
		})
	default:
		// Still pending at the provider; nothing to settle yet.
	}

	s.statusCache.Delete(txn.UserId.String())
	return nil
}

func (s *billingService) settleSucceeded(ctx context.Context, txn *entity.Transaction, cb *dto.PaymentCallback) error {
	if txn.Type == entity.TransactionTypeSubscription {
		sub, err := s.subs.FindByProviderRef(ctx, cb.ProviderRef)
		if err != nil {
			return err
		}
		if sub != nil && sub.Status == entity.SubscriptionStatusPendingActivation {
			if _, err := s.subs.Transition(ctx, sub.Id, entity.SubscriptionStatusActive); err != nil {
				return err
			}
		}
	}

	s.publish(ctx, events.TypePaymentCompleted, map[string]interface{}{
		"transaction_id": txn.Id.String(),
		"user_id":        txn.UserId.String(),
		"provider_ref":   cb.ProviderRef,
		"type":           string(txn.Type),
		"amount":         txn.Amount,
		"currency":       txn.Currency,
		"description":    txn.Description,
	})
	return nil
}

// creditCount reads the purchased credit count out of ledger metadata, which
// round-trips through JSON and may come back as float64.
func creditCount(metadata map[string]interface{}) (int, bool) {
	switch v := metadata["credits"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (s *billingService) CancelSubscription(ctx context.Context, userId uuid.UUID, req *dto.CancelRequest) (*dto.CancelResponse, error) {
	release := s.locks.Lock(userId.String())
	defer release()

	sub, err := s.subs.ActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NoActiveSubscription(userId.String())
	}

	if sub.Status != entity.SubscriptionStatusCancelled {
		// Cancel at the provider first and fail closed: if the provider still
		// considers the subscription live we must not mark it cancelled here.
		if sub.ProviderRef != nil {
			if provider, ok := s.providers[sub.Provider]; ok {
				callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
				defer cancel()
				if err := provider.Cancel(callCtx, *sub.ProviderRef); err != nil {
					return nil, apperror.Provider(sub.Provider, err)
				}
			}
		}

		reason := ""
		if req != nil {
			reason = req.Reason
		}
		sub, err = s.subs.Cancel(ctx, userId, reason)
		if err != nil {
			return nil, err
		}

		plan, _ := s.catalog.Lookup(sub.PlanId)
		s.publish(ctx, events.TypeSubscriptionCancelled, map[string]interface{}{
			"subscription_id": sub.Id.String(),
			"user_id":         userId.String(),
			"plan_name":       plan.Name,
			"access_until":    sub.CurrentPeriodEnd,
		})
	}

	s.statusCache.Delete(userId.String())
	return &dto.CancelResponse{
		SubscriptionId: sub.Id,
		Status:         string(sub.Status),
		AccessUntil:    sub.CurrentPeriodEnd,
	}, nil
}

func (s *billingService) UpgradeSubscription(ctx context.Context, userId uuid.UUID, req *dto.UpgradeRequest) (*dto.UpgradeResponse, error) {
	release := s.locks.Lock(userId.String())
	defer release()

	sub, charge, err := s.subs.Upgrade(ctx, userId, req.PlanId)
	if err != nil {
		return nil, err
	}

	txn, err := s.ledger.Record(ctx, &entity.Transaction{
		UserId:        userId,
		Type:          entity.TransactionTypeSubscription,
		Amount:        charge,
		Currency:      "USD",
		Status:        entity.TransactionStatusCompleted,
		PaymentMethod: entity.PaymentMethod(sub.Provider),
		Description:   fmt.Sprintf("Prorated upgrade to %s plan", req.PlanId),
		Metadata:      map[string]interface{}{"plan_id": req.PlanId, "prorated": true},
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeSubscriptionUpgraded, map[string]interface{}{
		"subscription_id": sub.Id.String(),
		"user_id":         userId.String(),
		"plan_id":         req.PlanId,
		"prorated_charge": charge,
	})

	s.statusCache.Delete(userId.String())
	return &dto.UpgradeResponse{
		SubscriptionId: sub.Id,
		PlanId:         sub.PlanId,
		ProratedCharge: charge,
		TransactionId:  txn.Id,
	}, nil
}

func (s *billingService) PurchaseCredits(ctx context.Context, userId uuid.UUID, req *dto.PurchaseCreditsRequest) (*dto.PurchaseCreditsResponse, error) {
	release := s.locks.Lock(userId.String())
	defer release()

	provider, err := s.provider(req.Provider)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user", userId.String())
	}

	amount := pricing.CreditPrice(req.Credits)
	unitPrice := pricing.Round2(amount / float64(req.Credits))
	description := fmt.Sprintf("%d ad generation credits", req.Credits)

	orderRef := uuid.New().String()
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	result, err := provider.CreateCheckout(callCtx, &payment.CheckoutRequest{
		Reference:     orderRef,
		Description:   description,
		Amount:        amount,
		Currency:      "USD",
		CustomerId:    userId.String(),
		CustomerEmail: user.Email,
		CustomerName:  user.FullName,
	})
	if err != nil {
		return nil, apperror.Provider(req.Provider, err)
	}

	txn, err := s.ledger.Record(ctx, &entity.Transaction{
		UserId:        userId,
		Type:          entity.TransactionTypeCreditPurchase,
		Amount:        amount,
		Currency:      "USD",
		Status:        entity.TransactionStatusPending,
		PaymentMethod: entity.PaymentMethod(req.Provider),
		ExternalRef:   &result.ProviderRef,
		Description:   description,
		Metadata:      map[string]interface{}{"credits": req.Credits, "unit_price": unitPrice},
	})
	if err != nil {
		return nil, err
	}

	if result.Status == payment.StateSucceeded {
		if err := s.confirm(ctx, &dto.PaymentCallback{
			Provider:    req.Provider,
			ProviderRef: result.ProviderRef,
			Status:      string(payment.StateSucceeded),
			Amount:      amount,
			Currency:    "USD",
		}); err != nil {
			return nil, err
		}
	}

	return &dto.PurchaseCreditsResponse{
		TransactionId: txn.Id,
		Credits:       req.Credits,
		UnitPrice:     unitPrice,
		Amount:        amount,
		ProviderRef:   result.ProviderRef,
		Continuation:  result.Continuation,
		Status:        string(result.Status),
	}, nil
}

func (s *billingService) RecordUsage(ctx context.Context, userId uuid.UUID, req *dto.UsageRequest) (*dto.SubscriptionStatusResponse, error) {
	release := s.locks.Lock(userId.String())
	defer release()

	if _, err := s.subs.RecordUsage(ctx, userId, req.Credits, req.Campaigns); err != nil {
		return nil, err
	}
	s.statusCache.Delete(userId.String())
	return s.subs.Status(ctx, userId)
}

func (s *billingService) PayCommission(ctx context.Context, req *dto.CommissionRequest) (*dto.CommissionResponse, error) {
	release := s.locks.Lock(req.AffiliateId.String())
	defer release()

	historical, err := s.ledger.SumAffiliateSales(ctx, req.AffiliateId)
	if err != nil {
		return nil, err
	}
	// Rate tiers on the affiliate's settled sales as they stood before this
	// sale; a first sale always earns the base rate.
	rate := pricing.CommissionRate(historical)
	amount := pricing.Round2(rate * req.SaleAmount)

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Affiliate commission on %.2f sale", req.SaleAmount)
	}

	affiliateId := req.AffiliateId
	txn, err := s.ledger.Record(ctx, &entity.Transaction{
		UserId:        req.AffiliateId,
		AffiliateId:   &affiliateId,
		Type:          entity.TransactionTypeCommission,
		Amount:        amount,
		Currency:      "USD",
		Status:        entity.TransactionStatusPending,
		PaymentMethod: entity.PaymentMethodBankTransfer,
		Description:   description,
		Metadata:      map[string]interface{}{"sale_amount": req.SaleAmount, "rate": rate},
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeCommissionRecorded, map[string]interface{}{
		"transaction_id": txn.Id.String(),
		"affiliate_id":   req.AffiliateId.String(),
		"sale_amount":    req.SaleAmount,
		"rate":           rate,
		"amount":         amount,
	})

	return &dto.CommissionResponse{
		TransactionId: txn.Id,
		AffiliateId:   req.AffiliateId,
		Rate:          rate,
		Amount:        amount,
		Status:        string(txn.Status),
	}, nil
}

func (s *billingService) RefundTransaction(ctx context.Context, req *dto.RefundRequest) (*dto.RefundResponse, error) {
	txn, err := s.ledger.FindByID(ctx, req.TransactionId)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, apperror.NotFound("transaction", req.TransactionId.String())
	}

	release := s.locks.Lock(txn.UserId.String())
	defer release()

	// Re-read under the lock; a concurrent refund may have settled first.
	txn, err = s.ledger.FindByID(ctx, req.TransactionId)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, apperror.NotFound("transaction", req.TransactionId.String())
	}
	if !txn.Status.CanTransitionTo(entity.TransactionStatusRefunded) {
		return nil, apperror.InvalidTransition("transaction", txn.Id.String(), string(txn.Status), string(entity.TransactionStatusRefunded))
	}

	amount := req.Amount
	if amount == 0 {
		amount = txn.AvailableToRefund()
	}
	if amount > txn.AvailableToRefund() {
		return nil, apperror.Validationf("refund amount %.2f exceeds refundable %.2f", amount, txn.AvailableToRefund())
	}

	var refundRef *string
	if provider, ok := s.providers[string(txn.PaymentMethod)]; ok && txn.ExternalRef != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
		res, err := provider.Refund(callCtx, *txn.ExternalRef, amount, req.Reason)
		if err != nil {
			return nil, apperror.Provider(string(txn.PaymentMethod), err)
		}
		refundRef = &res.RefundRef
	}

	txn, err = s.ledger.TransitionStatus(ctx, txn.Id, entity.TransactionStatusRefunded, &TransitionDetail{
		RefundRef: refundRef,
		Amount:    amount,
		Reason:    req.Reason,
	})
	if err != nil {
		return nil, err
	}

	// Mirror the refund as its own ledger entry so the money flow stays
	// visible in transaction history.
	if _, err := s.ledger.Record(ctx, &entity.Transaction{
		UserId:        txn.UserId,
		Type:          entity.TransactionTypeRefund,
		Amount:        amount,
		Currency:      txn.Currency,
		Status:        entity.TransactionStatusCompleted,
		PaymentMethod: txn.PaymentMethod,
		Description:   fmt.Sprintf("Refund for %s", txn.Description),
		Metadata:      map[string]interface{}{"original_transaction_id": txn.Id.String(), "reason": req.Reason},
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeRefundProcessed, map[string]interface{}{
		"transaction_id": txn.Id.String(),
		"user_id":        txn.UserId.String(),
		"amount":         amount,
		"reason":         req.Reason,
	})

	s.statusCache.Delete(txn.UserId.String())
	resp := &dto.RefundResponse{
		TransactionId: txn.Id,
		Amount:        amount,
		Status:        string(txn.Status),
	}
	if refundRef != nil {
		resp.RefundRef = *refundRef
	}
	return resp, nil
}

func (s *billingService) GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	if cached, found := s.statusCache.Get(userId.String()); found {
		return cached.(*dto.SubscriptionStatusResponse), nil
	}

	status, err := s.subs.Status(ctx, userId)
	if err != nil {
		return nil, err
	}
	s.statusCache.Set(userId.String(), status, gocache.DefaultExpiration)
	return status, nil
}

func (s *billingService) GetTransactionHistory(ctx context.Context, userId uuid.UUID, req *dto.TransactionHistoryRequest) ([]*dto.TransactionResponse, error) {
	txnType, status := "", ""
	limit, offset := 0, 0
	if req != nil {
		txnType, status = req.Type, req.Status
		limit, offset = req.Limit, req.Offset
	}

	txns, err := s.ledger.History(ctx, userId, txnType, status, limit, offset)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.TransactionResponse, 0, len(txns))
	for _, t := range txns {
		item := &dto.TransactionResponse{
			Id:             t.Id,
			Type:           string(t.Type),
			Amount:         t.Amount,
			Currency:       t.Currency,
			Status:         string(t.Status),
			PaymentMethod:  string(t.PaymentMethod),
			ExternalRef:    t.ExternalRef,
			Description:    t.Description,
			RefundedAmount: t.RefundedAmount(),
			CreatedAt:      t.CreatedAt,
		}
		if t.RefundDetails != nil {
			refundedAt := t.RefundDetails.RefundedAt
			item.RefundedAt = &refundedAt
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *billingService) ReconcilePending(ctx context.Context, olderThan time.Duration) (*dto.ReconcileResponse, error) {
	cutoff := s.now().Add(-olderThan)
	pending, err := s.ledger.PendingOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := &dto.ReconcileResponse{}
	for _, txn := range pending {
		if txn.ExternalRef == nil {
			continue
		}
		provider, ok := s.providers[string(txn.PaymentMethod)]
		if !ok {
			continue
		}
		report.Checked++

		result, err := s.checkStatusRetry(ctx, provider, *txn.ExternalRef)
		if err != nil {
			s.log.Warn("billing", "reconciliation status check failed", map[string]interface{}{
				"transaction_id": txn.Id,
				"provider_ref":   *txn.ExternalRef,
				"error":          err.Error(),
			})
			report.StillOpen++
			continue
		}

		switch result.Status {
		case payment.StateSucceeded, payment.StateFailed:
			if err := s.ConfirmPayment(ctx, &dto.PaymentCallback{
				Provider:    provider.Name(),
				ProviderRef: *txn.ExternalRef,
				Status:      string(result.Status),
				Amount:      result.Amount,
				Currency:    result.Currency,
			}); err != nil {
				report.StillOpen++
				continue
			}
			if result.Status == payment.StateSucceeded {
				report.Completed++
			} else {
				report.Failed++
			}
		default:
			report.StillOpen++
		}
	}

	s.log.Info("billing", "reconciliation pass finished", map[string]interface{}{
		"checked":    report.Checked,
		"completed":  report.Completed,
		"failed":     report.Failed,
		"still_open": report.StillOpen,
	})
	return report, nil
}

// checkStatusRetry retries a status poll once when the failure is transient.
// Status checks are reads, so a retry can never double-charge.
func (s *billingService) checkStatusRetry(ctx context.Context, provider payment.Provider, ref string) (*payment.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	result, err := provider.CheckStatus(callCtx, ref)
	if err == nil {
		return result, nil
	}
	if !payment.IsTransient(err) {
		return nil, err
	}
	retryCtx, cancelRetry := context.WithTimeout(ctx, s.callTimeout)
	defer cancelRetry()
	return provider.CheckStatus(retryCtx, ref)
}
