// FILE: internal/repository/memory/factory.go
package memory

import (
	"context"

	"ai-adgen-be/internal/repository/contract"
	"ai-adgen-be/internal/repository/unitofwork"
)

// Factory is an in-memory unitofwork.RepositoryFactory. Begin, Commit and
// Rollback are no-ops; the repositories are shared across units of work so
// state survives between service calls the way a database would.
type Factory struct {
	Users         *UserRepository
	Subscriptions *SubscriptionRepository
	Ledger        *LedgerRepository
}

func NewFactory() *Factory {
	return &Factory{
		Users:         NewUserRepository(),
		Subscriptions: NewSubscriptionRepository(),
		Ledger:        NewLedgerRepository(),
	}
}

var _ unitofwork.RepositoryFactory = (*Factory)(nil)

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{factory: f}
}

type unitOfWork struct {
	factory *Factory
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) UserRepository() contract.UserRepository {
	return u.factory.Users
}

func (u *unitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return u.factory.Subscriptions
}

func (u *unitOfWork) LedgerRepository() contract.LedgerRepository {
	return u.factory.Ledger
}
