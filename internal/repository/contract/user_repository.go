// FILE: internal/repository/contract/user_repository.go
package contract

import (
	"context"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)

	// AdjustCredits applies a signed delta atomically at the database level.
	AdjustCredits(ctx context.Context, userId uuid.UUID, delta int) error
}
