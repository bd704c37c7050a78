package unitofwork

import (
	"context"

	"wise-student-be/internal/repository/contract"
)

// UnitOfWork scopes repository access to one logical operation. Begin
// opens a database transaction; every repository obtained afterwards
// runs inside it until Commit or Rollback.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SubscriptionRepository() contract.SubscriptionRepository
}
