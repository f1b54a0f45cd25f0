package trade

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines trade persistence operations
type Repository interface {
	Create(ctx context.Context, t *Trade) error
	GetByID(ctx context.Context, id string) (*Trade, error)

	// LockForUpdate acquires a row lock so the pending status can be
	// re-checked inside the committing transaction.
	LockForUpdate(ctx context.Context, id string) (*Trade, error)

	// MarkCompleted transitions a pending trade to completed, recording the
	// external transaction reference. Returns ErrAlreadyCompleted if the
	// trade is no longer pending.
	MarkCompleted(ctx context.Context, id, externalTxRef string) error

	ListByFactory(ctx context.Context, factoryID string) ([]*Trade, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrNotFound indicates a missing trade
type ErrNotFound struct {
	TradeID string
}

func (e ErrNotFound) Error() string {
	return "trade not found: " + e.TradeID
}

// ErrAlreadyExists indicates a duplicate trade identifier
type ErrAlreadyExists struct {
	TradeID string
}

func (e ErrAlreadyExists) Error() string {
	return "trade already exists: " + e.TradeID
}

// ErrAlreadyCompleted indicates re-execution of a settled trade
type ErrAlreadyCompleted struct {
	TradeID string
}

func (e ErrAlreadyCompleted) Error() string {
	return "trade already completed: " + e.TradeID
}
