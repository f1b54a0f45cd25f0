// Package postgres provides PostgreSQL implementations of the domain
// repositories. All multi-row writes belonging to one settlement operation run
// through WithTx so they commit or roll back as a unit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations
const pgUniqueViolation = "23505"

// FactoryRepository implements the factory.Repository interface for PostgreSQL
type FactoryRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewFactoryRepository creates a new PostgreSQL factory repository
func NewFactoryRepository(logger *slog.Logger, db *persistence.PostgresDB) factory.Repository {
	return &FactoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing atomic operations
// across multiple repository calls.
func (r *FactoryRepository) WithTx(tx pgx.Tx) factory.Repository {
	return &FactoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const factoryColumns = `factory_id, name, password_hash, external_account_id, external_signing_key,
		       energy_type, energy_balance, currency_balance, daily_consumption, available_energy,
		       created_at, updated_at`

// Create stores a new factory. A duplicate identifier surfaces as
// factory.ErrAlreadyExists rather than overwriting the existing row.
func (r *FactoryRepository) Create(ctx context.Context, f *factory.Factory) error {
	query := `
		INSERT INTO factories (factory_id, name, password_hash, external_account_id, external_signing_key,
		                       energy_type, energy_balance, currency_balance, daily_consumption, available_energy,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		f.ID,
		f.Name,
		f.PasswordHash,
		f.ExternalAccountID,
		f.ExternalSigningKey,
		f.EnergyType,
		f.EnergyBalance,
		f.CurrencyBalance,
		f.DailyConsumption,
		f.AvailableEnergy,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return factory.ErrAlreadyExists{FactoryID: f.ID}
		}
		r.logger.Error("Failed to create factory", "factory_id", f.ID, "error", err)
		return fmt.Errorf("failed to create factory: %w", err)
	}

	return nil
}

func (r *FactoryRepository) scanFactory(row pgx.Row) (*factory.Factory, error) {
	var f factory.Factory
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.PasswordHash,
		&f.ExternalAccountID,
		&f.ExternalSigningKey,
		&f.EnergyType,
		&f.EnergyBalance,
		&f.CurrencyBalance,
		&f.DailyConsumption,
		&f.AvailableEnergy,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a factory by its identifier
func (r *FactoryRepository) GetByID(ctx context.Context, id string) (*factory.Factory, error) {
	query := `
		SELECT ` + factoryColumns + `
		FROM factories
		WHERE factory_id = $1
	`

	f, err := r.scanFactory(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, factory.ErrNotFound{FactoryID: id}
		}
		r.logger.Error("Failed to get factory", "factory_id", id, "error", err)
		return nil, fmt.Errorf("failed to get factory: %w", err)
	}

	return f, nil
}

// List retrieves all factories in stable identifier order
func (r *FactoryRepository) List(ctx context.Context) ([]*factory.Factory, error) {
	query := `
		SELECT ` + factoryColumns + `
		FROM factories
		ORDER BY factory_id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list factories", "error", err)
		return nil, fmt.Errorf("failed to list factories: %w", err)
	}
	defer rows.Close()

	var factories []*factory.Factory
	for rows.Next() {
		f, err := r.scanFactory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan factory row: %w", err)
		}
		factories = append(factories, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate factory rows: %w", err)
	}

	return factories, nil
}

// LockForUpdate obtains a row lock on the factory and returns its current
// state. Must be called within a transaction; balance sufficiency checks are
// only trustworthy against the locked row.
func (r *FactoryRepository) LockForUpdate(ctx context.Context, id string) (*factory.Factory, error) {
	query := `
		SELECT ` + factoryColumns + `
		FROM factories
		WHERE factory_id = $1
		FOR UPDATE
	`

	f, err := r.scanFactory(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, factory.ErrNotFound{FactoryID: id}
		}
		r.logger.Error("Failed to lock factory for update", "factory_id", id, "error", err)
		return nil, fmt.Errorf("failed to lock factory for update: %w", err)
	}

	return f, nil
}

// AdjustBalances applies energy and currency deltas in one statement. The
// WHERE guard keeps both balances non-negative at commit time; zero rows
// affected means the precondition no longer holds.
func (r *FactoryRepository) AdjustBalances(ctx context.Context, id string, energyDelta, currencyDelta int64) error {
	query := `
		UPDATE factories
		SET energy_balance = energy_balance + $1, currency_balance = currency_balance + $2, updated_at = NOW()
		WHERE factory_id = $3 AND energy_balance + $1 >= 0 AND currency_balance + $2 >= 0
	`

	result, err := r.querier.Exec(ctx, query, energyDelta, currencyDelta, id)
	if err != nil {
		r.logger.Error("Failed to adjust factory balances", "factory_id", id, "error", err)
		return fmt.Errorf("failed to adjust factory balances: %w", err)
	}

	if result.RowsAffected() == 0 {
		return factory.ErrConcurrentModification{FactoryID: id}
	}

	return nil
}

// SetPasswordHash replaces the stored credential hash
func (r *FactoryRepository) SetPasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE factories
		SET password_hash = $1, updated_at = NOW()
		WHERE factory_id = $2
	`

	result, err := r.querier.Exec(ctx, query, passwordHash, id)
	if err != nil {
		r.logger.Error("Failed to set password hash", "factory_id", id, "error", err)
		return fmt.Errorf("failed to set password hash: %w", err)
	}

	if result.RowsAffected() == 0 {
		return factory.ErrNotFound{FactoryID: id}
	}

	return nil
}

// SetAvailableEnergy updates the reported available energy
func (r *FactoryRepository) SetAvailableEnergy(ctx context.Context, id string, value int64) error {
	return r.setField(ctx, id, "available_energy", value)
}

// SetDailyConsumption updates the reported daily consumption
func (r *FactoryRepository) SetDailyConsumption(ctx context.Context, id string, value int64) error {
	return r.setField(ctx, id, "daily_consumption", value)
}

func (r *FactoryRepository) setField(ctx context.Context, id, column string, value int64) error {
	// column is always one of the two constants above, never caller input
	query := fmt.Sprintf(`
		UPDATE factories
		SET %s = $1, updated_at = NOW()
		WHERE factory_id = $2
	`, column)

	result, err := r.querier.Exec(ctx, query, value, id)
	if err != nil {
		r.logger.Error("Failed to update factory field", "factory_id", id, "column", column, "error", err)
		return fmt.Errorf("failed to update factory %s: %w", column, err)
	}

	if result.RowsAffected() == 0 {
		return factory.ErrNotFound{FactoryID: id}
	}

	return nil
}

// ListMissingPasswordHash returns factories created without a credential hash
func (r *FactoryRepository) ListMissingPasswordHash(ctx context.Context) ([]*factory.Factory, error) {
	query := `
		SELECT ` + factoryColumns + `
		FROM factories
		WHERE password_hash = ''
		ORDER BY factory_id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list factories with missing password hash", "error", err)
		return nil, fmt.Errorf("failed to list factories with missing password hash: %w", err)
	}
	defer rows.Close()

	var factories []*factory.Factory
	for rows.Next() {
		f, err := r.scanFactory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan factory row: %w", err)
		}
		factories = append(factories, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate factory rows: %w", err)
	}

	return factories, nil
}
