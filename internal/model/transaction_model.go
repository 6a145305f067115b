// FILE: internal/model/transaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Transaction struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID  `gorm:"type:uuid;not null;index"`
	AffiliateId   *uuid.UUID `gorm:"type:uuid;index"`
	Type          string     `gorm:"type:transaction_type;not null;index"`
	Amount        float64    `gorm:"type:decimal(12,2);not null"`
	Currency      string     `gorm:"type:varchar(3);not null;default:'USD'"`
	Status        string     `gorm:"type:transaction_status;not null;index"`
	PaymentMethod string     `gorm:"type:varchar(50);not null"`
	// ExternalRef carries the unique-per-provider order id; the partial unique
	// index is what makes callback replays collide instead of duplicating.
	ExternalRef *string           `gorm:"type:varchar(255);uniqueIndex"`
	Description string            `gorm:"type:text"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb"`
	// Refund details, flattened. RefundAmount is cumulative.
	RefundRef    *string    `gorm:"type:varchar(255)"`
	RefundAmount float64    `gorm:"type:decimal(12,2);default:0"`
	RefundReason *string    `gorm:"type:text"`
	RefundedAt   *time.Time ``
	// Dispute details, flattened.
	DisputeRef    *string    `gorm:"type:varchar(255)"`
	DisputeReason *string    `gorm:"type:text"`
	ResolvedAt    *time.Time ``
	CreatedAt     time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
