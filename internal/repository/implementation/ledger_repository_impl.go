// FILE: internal/repository/implementation/ledger_repository_impl.go
package implementation

import (
	"context"
	"errors"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/mapper"
	"ai-adgen-be/internal/model"
	"ai-adgen-be/internal/repository/contract"
	"ai-adgen-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TransactionMapper
}

func NewLedgerRepository(db *gorm.DB) contract.LedgerRepository {
	return &LedgerRepositoryImpl{
		db:     db,
		mapper: mapper.NewTransactionMapper(),
	}
}

func (r *LedgerRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LedgerRepositoryImpl) Create(ctx context.Context, txn *entity.Transaction) error {
	modelTxn := r.mapper.ToModel(txn)
	if err := r.db.WithContext(ctx).Create(modelTxn).Error; err != nil {
		return err
	}
	*txn = *r.mapper.ToEntity(modelTxn)
	return nil
}

func (r *LedgerRepositoryImpl) Update(ctx context.Context, txn *entity.Transaction) error {
	modelTxn := r.mapper.ToModel(txn)
	if err := r.db.WithContext(ctx).Save(modelTxn).Error; err != nil {
		return err
	}
	*txn = *r.mapper.ToEntity(modelTxn)
	return nil
}

func (r *LedgerRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error) {
	var modelTxn model.Transaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelTxn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelTxn), nil
}

func (r *LedgerRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error) {
	var modelTxns []*model.Transaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelTxns).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.Transaction, len(modelTxns))
	for i, m := range modelTxns {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *LedgerRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Transaction{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LedgerRepositoryImpl) SumAmount(ctx context.Context, specs ...specification.Specification) (float64, error) {
	var total *float64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Transaction{}), specs...)
	if err := query.Select("SUM(amount)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *LedgerRepositoryImpl) SumSaleAmount(ctx context.Context, affiliateId uuid.UUID) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).Raw(`
		SELECT SUM((metadata->>'sale_amount')::numeric)
		FROM transactions
		WHERE affiliate_id = ? AND type = ? AND status = ?
	`, affiliateId, string(entity.TransactionTypeCommission), string(entity.TransactionStatusCompleted)).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
