// FILE: internal/mapper/subscription_mapper.go
package mapper

import (
	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.UserSubscription) *entity.UserSubscription {
	if s == nil {
		return nil
	}
	return &entity.UserSubscription{
		Id:                 s.Id,
		UserId:             s.UserId,
		PlanId:             s.PlanId,
		Status:             entity.SubscriptionStatus(s.Status),
		Provider:           s.Provider,
		ProviderRef:        s.ProviderRef,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelledAt:        s.CancelledAt,
		CancelReason:       s.CancelReason,
		Usage: entity.Usage{
			CreditsUsed:      s.CreditsUsed,
			CampaignsCreated: s.CampaignsCreated,
			LastUsageAt:      s.LastUsageAt,
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.UserSubscription) *model.UserSubscription {
	if s == nil {
		return nil
	}
	return &model.UserSubscription{
		Id:                 s.Id,
		UserId:             s.UserId,
		PlanId:             s.PlanId,
		Status:             string(s.Status),
		Provider:           s.Provider,
		ProviderRef:        s.ProviderRef,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelledAt:        s.CancelledAt,
		CancelReason:       s.CancelReason,
		CreditsUsed:        s.Usage.CreditsUsed,
		CampaignsCreated:   s.Usage.CampaignsCreated,
		LastUsageAt:        s.Usage.LastUsageAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
