// FILE: internal/repository/unitofwork/repository_factory.go
package unitofwork

import "context"

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
