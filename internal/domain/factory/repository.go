package factory

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines factory persistence operations
type Repository interface {
	Create(ctx context.Context, f *Factory) error
	GetByID(ctx context.Context, id string) (*Factory, error)
	List(ctx context.Context) ([]*Factory, error)

	// LockForUpdate acquires a row lock for the duration of the surrounding
	// transaction; balance re-checks must happen against the locked row.
	LockForUpdate(ctx context.Context, id string) (*Factory, error)

	// AdjustBalances applies energy/currency deltas. The update is guarded so
	// a balance can never be driven negative; a guard miss surfaces as
	// ErrConcurrentModification.
	AdjustBalances(ctx context.Context, id string, energyDelta, currencyDelta int64) error

	SetPasswordHash(ctx context.Context, id, passwordHash string) error
	SetAvailableEnergy(ctx context.Context, id string, value int64) error
	SetDailyConsumption(ctx context.Context, id string, value int64) error

	// ListMissingPasswordHash returns factories whose credential hash was
	// never set, for the offline backfill tool.
	ListMissingPasswordHash(ctx context.Context) ([]*Factory, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrNotFound indicates a missing factory
type ErrNotFound struct {
	FactoryID string
}

func (e ErrNotFound) Error() string {
	return "factory not found: " + e.FactoryID
}

// ErrAlreadyExists indicates a duplicate factory identifier
type ErrAlreadyExists struct {
	FactoryID string
}

func (e ErrAlreadyExists) Error() string {
	return "factory already exists: " + e.FactoryID
}

// ErrInsufficientEnergy indicates the factory does not hold enough energy
type ErrInsufficientEnergy struct {
	FactoryID string
	Have      int64
	Need      int64
}

func (e ErrInsufficientEnergy) Error() string {
	return "insufficient energy balance for factory " + e.FactoryID
}

// ErrInsufficientCurrency indicates the factory does not hold enough currency
type ErrInsufficientCurrency struct {
	FactoryID string
	Have      int64
	Need      int64
}

func (e ErrInsufficientCurrency) Error() string {
	return "insufficient currency balance for factory " + e.FactoryID
}

// ErrNoExternalAccount indicates the factory was never provisioned on the
// external ledger but the operation requires settlement.
type ErrNoExternalAccount struct {
	FactoryID string
}

func (e ErrNoExternalAccount) Error() string {
	return "factory has no external ledger account: " + e.FactoryID
}

// ErrConcurrentModification indicates a commit-time balance guard failed
type ErrConcurrentModification struct {
	FactoryID string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for factory: " + e.FactoryID
}
