package history

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines history persistence operations. The table is append-only;
// there are no update or delete operations.
type Repository interface {
	Append(ctx context.Context, r *Record) error
	ListByFactory(ctx context.Context, factoryID string) ([]*Record, error)

	// FindByExternalRef looks up history rows carrying the given external
	// ledger transaction reference, for reconciliation against archived
	// receipts.
	FindByExternalRef(ctx context.Context, externalTxRef string) ([]*Record, error)

	WithTx(tx pgx.Tx) Repository
}
