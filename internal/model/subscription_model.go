// FILE: internal/model/subscription_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type UserSubscription struct {
	Id                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID  `gorm:"type:uuid;not null;index"`
	PlanId             string     `gorm:"type:varchar(50);not null"`
	Status             string     `gorm:"type:subscription_status;not null;index"`
	Provider           string     `gorm:"type:varchar(50);not null"`
	ProviderRef        *string    `gorm:"type:varchar(255);index"`
	CurrentPeriodStart time.Time  `gorm:"not null"`
	CurrentPeriodEnd   time.Time  `gorm:"not null"`
	CancelledAt        *time.Time ``
	CancelReason       *string    `gorm:"type:text"`
	// Usage counters, flattened. Reset when a new period starts.
	CreditsUsed      int        `gorm:"default:0;not null"`
	CampaignsCreated int        `gorm:"default:0;not null"`
	LastUsageAt      *time.Time ``
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}
