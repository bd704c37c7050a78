package contract

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wise-student-be/internal/entity"
	"wise-student-be/internal/repository/specification"
)

// SubscriptionRepository persists Subscription aggregates and their
// append-only Transaction sub-records. Subscriptions are never
// hard-deleted; history is retained.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	Update(ctx context.Context, sub *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)

	// FindEffective returns the single active, non-expired subscription
	// for the user, or nil. A nil result means the caller treats the user
	// as being on the free plan; no synthetic free row is ever persisted.
	FindEffective(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Subscription, error)

	// AppendTransaction adds a sub-record. It fails with
	// apperrors.ErrDuplicateOrder when the gateway order id already
	// exists on any subscription, system-wide.
	AppendTransaction(ctx context.Context, txn *entity.Transaction) error

	// FindTransactionByOrderID resolves a gateway order id globally.
	FindTransactionByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error)

	// CompleteTransactionCAS moves the named transaction from pending to
	// completed, recording the gateway payment id and payment date. The
	// returned bool reports whether this caller won the transition;
	// false means another confirmer already completed it.
	CompleteTransactionCAS(ctx context.Context, txnID uuid.UUID, paymentID string, paidAt time.Time) (bool, error)

	// UpdateTransactionStatus applies a monotonic status move
	// (pending -> failed/cancelled). Completed transactions are never
	// downgraded.
	UpdateTransactionStatus(ctx context.Context, txnID uuid.UUID, next entity.TransactionStatus) error
}
