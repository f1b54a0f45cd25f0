package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ecoguardians/energy-settlement/internal/domain/history"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
)

// HistoryRepository implements the history.Repository interface for PostgreSQL
type HistoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(logger *slog.Logger, db *persistence.PostgresDB) history.Repository {
	return &HistoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *HistoryRepository) WithTx(tx pgx.Tx) history.Repository {
	return &HistoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts one history row. The row id is database-assigned and written
// back into the record.
func (r *HistoryRepository) Append(ctx context.Context, rec *history.Record) error {
	query := `
		INSERT INTO transaction_history (factory_id, transaction_type, amount, related_factory_id, external_tx_ref, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		rec.FactoryID,
		rec.Type,
		rec.Amount,
		rec.RelatedFactoryID,
		rec.ExternalTxRef,
		rec.Timestamp,
	).Scan(&rec.ID)
	if err != nil {
		r.logger.Error("Failed to append history record", "factory_id", rec.FactoryID, "type", rec.Type, "error", err)
		return fmt.Errorf("failed to append history record: %w", err)
	}

	return nil
}

const historyColumns = `id, factory_id, transaction_type, amount, related_factory_id, external_tx_ref, timestamp`

func (r *HistoryRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*history.Record, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*history.Record
	for rows.Next() {
		var rec history.Record
		err := rows.Scan(
			&rec.ID,
			&rec.FactoryID,
			&rec.Type,
			&rec.Amount,
			&rec.RelatedFactoryID,
			&rec.ExternalTxRef,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return records, nil
}

// ListByFactory retrieves a factory's history, newest first
func (r *HistoryRepository) ListByFactory(ctx context.Context, factoryID string) ([]*history.Record, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM transaction_history
		WHERE factory_id = $1
		ORDER BY timestamp DESC, id DESC
	`

	records, err := r.queryRecords(ctx, query, factoryID)
	if err != nil {
		r.logger.Error("Failed to list history", "factory_id", factoryID, "error", err)
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return records, nil
}

// FindByExternalRef retrieves the history rows recorded for one external
// ledger transaction. Reconciliation treats an empty result as a receipt whose
// local commit never happened.
func (r *HistoryRepository) FindByExternalRef(ctx context.Context, externalTxRef string) ([]*history.Record, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM transaction_history
		WHERE external_tx_ref = $1
		ORDER BY id
	`

	records, err := r.queryRecords(ctx, query, externalTxRef)
	if err != nil {
		r.logger.Error("Failed to find history by external ref", "external_tx_ref", externalTxRef, "error", err)
		return nil, fmt.Errorf("failed to find history by external ref: %w", err)
	}

	return records, nil
}
