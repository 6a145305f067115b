// FILE: internal/repository/unitofwork/unit_of_work.go
package unitofwork

import (
	"context"

	"ai-adgen-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SubscriptionRepository() contract.SubscriptionRepository
	LedgerRepository() contract.LedgerRepository
}
