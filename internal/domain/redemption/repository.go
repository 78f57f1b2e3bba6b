package redemption

import (
	"context"

	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
)

// Repository is the storage boundary of the redemption workflow. Every
// multi-step change runs inside WithTx and commits or rolls back as a whole.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, f ListFilter) ([]Request, int, error)
	History(ctx context.Context, requestID uuid.UUID) ([]StatusChange, error)
	Totals(ctx context.Context, masonID uuid.UUID) ([]StatusTotal, error)
}

// TxRepository is the set of operations available inside a transaction.
type TxRepository interface {
	// LockBalance returns the mason's balance and holds it until commit.
	LockBalance(ctx context.Context, masonID uuid.UUID) (int64, error)
	AppendLedger(ctx context.Context, e *ledger.Entry) error
	DecrementStock(ctx context.Context, rewardID uuid.UUID, qty int) (int, error)
	IncrementStock(ctx context.Context, rewardID uuid.UUID, qty int) (int, error)

	Insert(ctx context.Context, req *Request) error
	// GetForUpdate returns the request and holds it until commit.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, notes *string) (*Request, error)
	InsertStatusChange(ctx context.Context, ch *StatusChange) error
}
