// FILE: internal/repository/contract/ledger_repository.go
package contract

import (
	"context"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/repository/specification"

	"github.com/google/uuid"
)

type LedgerRepository interface {
	Create(ctx context.Context, txn *entity.Transaction) error
	Update(ctx context.Context, txn *entity.Transaction) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SumAmount totals the amount column over the selected rows.
	SumAmount(ctx context.Context, specs ...specification.Specification) (float64, error)

	// SumSaleAmount totals metadata sale_amount over completed commission
	// entries credited to the affiliate; feeds the commission rate tiers.
	SumSaleAmount(ctx context.Context, affiliateId uuid.UUID) (float64, error)
}
