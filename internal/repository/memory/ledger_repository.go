// FILE: internal/repository/memory/ledger_repository.go
package memory

import (
	"context"
	"sync"
	"time"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/repository/contract"
	"ai-adgen-be/internal/repository/specification"

	"github.com/google/uuid"
)

type LedgerRepository struct {
	mu   sync.RWMutex
	txns map[uuid.UUID]*entity.Transaction
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{txns: map[uuid.UUID]*entity.Transaction{}}
}

var _ contract.LedgerRepository = (*LedgerRepository)(nil)

func cloneTxn(t *entity.Transaction) *entity.Transaction {
	clone := *t
	if t.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(t.Metadata))
		for k, v := range t.Metadata {
			clone.Metadata[k] = v
		}
	}
	if t.RefundDetails != nil {
		rd := *t.RefundDetails
		clone.RefundDetails = &rd
	}
	if t.DisputeDetails != nil {
		dd := *t.DisputeDetails
		clone.DisputeDetails = &dd
	}
	return &clone
}

func (r *LedgerRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if txn.Id == uuid.Nil {
		txn.Id = uuid.New()
	}
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	r.txns[txn.Id] = cloneTxn(txn)
	return nil
}

func (r *LedgerRepository) Update(ctx context.Context, txn *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn.UpdatedAt = time.Now()
	r.txns[txn.Id] = cloneTxn(txn)
	return nil
}

func (r *LedgerRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := buildQuery(specs)
	for _, t := range r.txns {
		if r.matches(t, q) {
			return cloneTxn(t), nil
		}
	}
	return nil, nil
}

func (r *LedgerRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := buildQuery(specs)
	var out []*entity.Transaction
	for _, t := range r.txns {
		if r.matches(t, q) {
			out = append(out, cloneTxn(t))
		}
	}
	out = sortAndPage(q, out, func(t *entity.Transaction) time.Time { return t.CreatedAt })
	return out, nil
}

func (r *LedgerRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *LedgerRepository) SumAmount(ctx context.Context, specs ...specification.Specification) (float64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, t := range all {
		total += t.Amount
	}
	return total, nil
}

func (r *LedgerRepository) SumSaleAmount(ctx context.Context, affiliateId uuid.UUID) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	for _, t := range r.txns {
		if t.Type != entity.TransactionTypeCommission || t.Status != entity.TransactionStatusCompleted {
			continue
		}
		if t.AffiliateId == nil || *t.AffiliateId != affiliateId {
			continue
		}
		if sale, ok := t.Metadata["sale_amount"].(float64); ok {
			total += sale
		}
	}
	return total, nil
}

func (r *LedgerRepository) matches(t *entity.Transaction, q query) bool {
	if q.id != nil && t.Id != *q.id {
		return false
	}
	if q.userId != nil && t.UserId != *q.userId {
		return false
	}
	if q.externalRef != nil {
		if t.ExternalRef == nil || *t.ExternalRef != *q.externalRef {
			return false
		}
	}
	if status, ok := q.fields["status"]; ok && string(t.Status) != status {
		return false
	}
	if typ, ok := q.fields["type"]; ok && string(t.Type) != typ {
		return false
	}
	if affiliate, ok := q.fields["affiliate_id"]; ok {
		id, _ := affiliate.(uuid.UUID)
		if t.AffiliateId == nil || *t.AffiliateId != id {
			return false
		}
	}
	return q.matchesCreatedAt(t.CreatedAt)
}
