// FILE: internal/service/subscription_service.go
package service

import (
	"context"
	"time"

	"ai-adgen-be/internal/catalog"
	"ai-adgen-be/internal/dto"
	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/pkg/apperror"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/repository/specification"
	"ai-adgen-be/internal/repository/unitofwork"
	"ai-adgen-be/pkg/pricing"
	"ai-adgen-be/pkg/utils"

	"github.com/google/uuid"
)

// ActivateParams describes a subscription to create. Pending marks it as
// awaiting payment confirmation instead of immediately active.
type ActivateParams struct {
	UserId      uuid.UUID
	PlanId      string
	Provider    string
	ProviderRef *string
	Pending     bool
}

type ISubscriptionService interface {
	Activate(ctx context.Context, p ActivateParams) (*entity.UserSubscription, error)

	// Upgrade moves the active subscription to a higher-priced plan mid-period
	// and returns the prorated charge for the remaining days.
	Upgrade(ctx context.Context, userId uuid.UUID, newPlanId string) (*entity.UserSubscription, float64, error)

	// Cancel marks the active subscription cancelled; entitlements survive
	// until the period end. Cancelling twice is a no-op.
	Cancel(ctx context.Context, userId uuid.UUID, reason string) (*entity.UserSubscription, error)

	// RecordUsage draws credits from the plan allowance first, then from the
	// user's purchased balance.
	RecordUsage(ctx context.Context, userId uuid.UUID, credits, campaigns int) (*entity.UserSubscription, error)

	ActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.UserSubscription, error)
	FindByProviderRef(ctx context.Context, ref string) (*entity.UserSubscription, error)
	Transition(ctx context.Context, subId uuid.UUID, target entity.SubscriptionStatus) (*entity.UserSubscription, error)
	Status(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    *catalog.Catalog
	log        logger.ILogger
	now        func() time.Time
}

func NewSubscriptionService(uowFactory unitofwork.RepositoryFactory, cat *catalog.Catalog, log logger.ILogger) ISubscriptionService {
	return &subscriptionService{
		uowFactory: uowFactory,
		catalog:    cat,
		log:        log,
		now:        time.Now,
	}
}

// periodEnd computes the end of a billing period starting at 'start'.
// Month arithmetic clamps to the last day of shorter months.
func periodEnd(start time.Time, interval catalog.Interval) time.Time {
	if interval == catalog.IntervalYear {
		return utils.AddYears(start, 1)
	}
	return utils.AddMonthsClamped(start, 1)
}

// RolloverIfExpired marks an active subscription whose period has lapsed as
// expired. Pure; the caller persists if it reports a change.
func RolloverIfExpired(sub *entity.UserSubscription, now time.Time) bool {
	if sub.Status != entity.SubscriptionStatusActive {
		return false
	}
	if sub.CurrentPeriodEnd.After(now) {
		return false
	}
	sub.Status = entity.SubscriptionStatusExpired
	return true
}

func (s *subscriptionService) Activate(ctx context.Context, p ActivateParams) (*entity.UserSubscription, error) {
	plan, err := s.catalog.Lookup(p.PlanId)
	if err != nil {
		return nil, err
	}

	existing, err := s.ActiveByUser(ctx, p.UserId)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == entity.SubscriptionStatusActive {
		return nil, apperror.AlreadyActive(p.UserId.String())
	}

	now := s.now()
	status := entity.SubscriptionStatusActive
	if p.Pending {
		status = entity.SubscriptionStatusPendingActivation
	}
	sub := &entity.UserSubscription{
		Id:                 uuid.New(),
		UserId:             p.UserId,
		PlanId:             plan.Id,
		Status:             status,
		Provider:           p.Provider,
		ProviderRef:        p.ProviderRef,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd(now, plan.Interval),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("subscription", "subscription created", map[string]interface{}{
		"subscription_id": sub.Id,
		"user_id":         p.UserId,
		"plan_id":         plan.Id,
		"status":          status,
	})
	return sub, nil
}

func (s *subscriptionService) Upgrade(ctx context.Context, userId uuid.UUID, newPlanId string) (*entity.UserSubscription, float64, error) {
	newPlan, err := s.catalog.Lookup(newPlanId)
	if err != nil {
		return nil, 0, err
	}

	sub, err := s.ActiveByUser(ctx, userId)
	if err != nil {
		return nil, 0, err
	}
	if sub == nil || sub.Status != entity.SubscriptionStatusActive {
		return nil, 0, apperror.NoActiveSubscription(userId.String())
	}

	currentPlan, err := s.catalog.Lookup(sub.PlanId)
	if err != nil {
		return nil, 0, err
	}
	if sub.PlanId == newPlan.Id {
		return nil, 0, apperror.Validationf("already on plan %q", newPlan.Id)
	}
	if newPlan.Price <= currentPlan.Price {
		return nil, 0, apperror.Validationf("downgrade from %q to %q is not supported", currentPlan.Id, newPlan.Id)
	}

	now := s.now()
	charge := pricing.ProrateUpgrade(currentPlan.Price, newPlan.Price, sub.RemainingDays(now), sub.PeriodDays())
	sub.PlanId = newPlan.Id

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, 0, err
	}
	if err := uow.Commit(); err != nil {
		return nil, 0, err
	}

	s.log.Info("subscription", "subscription upgraded", map[string]interface{}{
		"subscription_id": sub.Id,
		"user_id":         userId,
		"from_plan":       currentPlan.Id,
		"to_plan":         newPlan.Id,
		"prorated_charge": charge,
	})
	return sub, charge, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userId uuid.UUID, reason string) (*entity.UserSubscription, error) {
	sub, err := s.ActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NoActiveSubscription(userId.String())
	}
	if sub.Status == entity.SubscriptionStatusCancelled {
		return sub, nil
	}
	if !sub.Status.CanTransitionTo(entity.SubscriptionStatusCancelled) {
		return nil, apperror.InvalidTransition("subscription", sub.Id.String(), string(sub.Status), string(entity.SubscriptionStatusCancelled))
	}

	now := s.now()
	sub.Status = entity.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	if reason != "" {
		sub.CancelReason = &reason
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("subscription", "subscription cancelled", map[string]interface{}{
		"subscription_id": sub.Id,
		"user_id":         userId,
		"access_until":    sub.CurrentPeriodEnd,
	})
	return sub, nil
}

func (s *subscriptionService) RecordUsage(ctx context.Context, userId uuid.UUID, credits, campaigns int) (*entity.UserSubscription, error) {
	if credits < 0 || campaigns < 0 {
		return nil, apperror.Validation("usage counters must not be negative")
	}

	sub, err := s.ActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NoActiveSubscription(userId.String())
	}

	plan, err := s.catalog.Lookup(sub.PlanId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if plan.MaxCampaigns != catalog.UnlimitedCredits && sub.Usage.CampaignsCreated+campaigns > plan.MaxCampaigns {
		return nil, apperror.Validationf("campaign limit %d reached for plan %q", plan.MaxCampaigns, plan.Id)
	}

	// Plan allowance first, then purchased balance.
	fromBalance := 0
	if !plan.Unlimited() {
		planRemaining := plan.Credits - sub.Usage.CreditsUsed
		if planRemaining < 0 {
			planRemaining = 0
		}
		if credits > planRemaining {
			fromBalance = credits - planRemaining
			user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, apperror.NotFound("user", userId.String())
			}
			if user.Credits < fromBalance {
				return nil, apperror.InsufficientCredits(userId.String(), credits, planRemaining+user.Credits)
			}
			if err := uow.UserRepository().AdjustCredits(ctx, userId, -fromBalance); err != nil {
				return nil, err
			}
		}
	}

	now := s.now()
	sub.Usage.CreditsUsed += credits - fromBalance
	sub.Usage.CampaignsCreated += campaigns
	sub.Usage.LastUsageAt = &now

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return sub, nil
}

// ActiveByUser returns the user's most recent subscription that still grants
// entitlements, rolling over lapsed periods lazily.
func (s *subscriptionService) ActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.UserSubscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	subs, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, sub := range subs {
		if RolloverIfExpired(sub, now) {
			if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
				return nil, err
			}
			continue
		}
		if sub.IsActive(now) || sub.Status == entity.SubscriptionStatusPastDue {
			return sub, nil
		}
	}
	return nil, nil
}

func (s *subscriptionService) FindByProviderRef(ctx context.Context, ref string) (*entity.UserSubscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SubscriptionRepository().FindOne(ctx, specification.Filter("provider_ref", ref))
}

func (s *subscriptionService) Transition(ctx context.Context, subId uuid.UUID, target entity.SubscriptionStatus) (*entity.UserSubscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: subId})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NotFound("subscription", subId.String())
	}
	if !sub.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition("subscription", subId.String(), string(sub.Status), string(target))
	}

	from := sub.Status
	sub.Status = target
	if target == entity.SubscriptionStatusCancelled {
		now := s.now()
		sub.CancelledAt = &now
	}

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("subscription", "subscription status changed", map[string]interface{}{
		"subscription_id": subId,
		"from":            from,
		"to":              target,
	})
	return sub, nil
}

func (s *subscriptionService) Status(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	sub, err := s.ActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NoActiveSubscription(userId.String())
	}

	plan, err := s.catalog.Lookup(sub.PlanId)
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

	now := s.now()
	remaining := catalog.UnlimitedCredits
	if !plan.Unlimited() {
		remaining = plan.Credits - sub.Usage.CreditsUsed
		if remaining < 0 {
			remaining = 0
		}
		remaining += user.Credits
	}

	return &dto.SubscriptionStatusResponse{
		SubscriptionId:   sub.Id,
		PlanId:           plan.Id,
		PlanName:         plan.Name,
		Status:           string(sub.Status),
		Active:           sub.IsActive(now),
		PeriodStart:      sub.CurrentPeriodStart,
		PeriodEnd:        sub.CurrentPeriodEnd,
		RemainingDays:    sub.RemainingDays(now),
		CancelledAt:      sub.CancelledAt,
		CreditsRemaining: remaining,
		CreditsUsed:      sub.Usage.CreditsUsed,
		CampaignsCreated: sub.Usage.CampaignsCreated,
	}, nil
}
