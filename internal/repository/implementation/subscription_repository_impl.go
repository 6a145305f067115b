// FILE: internal/repository/implementation/subscription_repository_impl.go
package implementation

import (
	"context"
	"errors"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/mapper"
	"ai-adgen-be/internal/model"
	"ai-adgen-be/internal/repository/contract"
	"ai-adgen-be/internal/repository/specification"

	"gorm.io/gorm"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *entity.UserSubscription) error {
	modelSub := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Create(modelSub).Error; err != nil {
		return err
	}
	*sub = *r.mapper.ToEntity(modelSub)
	return nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *entity.UserSubscription) error {
	modelSub := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Save(modelSub).Error; err != nil {
		return err
	}
	*sub = *r.mapper.ToEntity(modelSub)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error) {
	var modelSub model.UserSubscription
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelSub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelSub), nil
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error) {
	var modelSubs []*model.UserSubscription
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelSubs).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.UserSubscription, len(modelSubs))
	for i, m := range modelSubs {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.UserSubscription{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
