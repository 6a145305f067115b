// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the billing view of the platform user. Authentication and profile
// management live outside this service; we only own the credit balance and
// the lazily created payment-provider customer handle.
type User struct {
	Id                 uuid.UUID
	Email              string
	FullName           string
	Credits            int
	ProviderCustomerId *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
