// FILE: internal/model/user_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName           string    `gorm:"type:varchar(255);not null"`
	Credits            int       `gorm:"default:0;not null"`
	ProviderCustomerId *string   `gorm:"type:varchar(255)"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
