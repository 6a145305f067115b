// FILE: internal/repository/contract/subscription_repository.go
package contract

import (
	"context"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.UserSubscription) error
	Update(ctx context.Context, sub *entity.UserSubscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
