package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
)

// TradeRepository implements the trade.Repository interface for PostgreSQL
type TradeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTradeRepository creates a new PostgreSQL trade repository
func NewTradeRepository(logger *slog.Logger, db *persistence.PostgresDB) trade.Repository {
	return &TradeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TradeRepository) WithTx(tx pgx.Tx) trade.Repository {
	return &TradeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const tradeColumns = `trade_id, seller_id, buyer_id, amount, price_per_unit, total_price,
		       status, external_tx_ref, created_at, completed_at`

// Create stores a new pending trade
func (r *TradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	query := `
		INSERT INTO trades (trade_id, seller_id, buyer_id, amount, price_per_unit, total_price,
		                    status, external_tx_ref, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.SellerID,
		t.BuyerID,
		t.Amount,
		t.PricePerUnit,
		t.TotalPrice,
		t.Status,
		t.ExternalTxRef,
		t.CreatedAt,
		t.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return trade.ErrAlreadyExists{TradeID: t.ID}
		}
		r.logger.Error("Failed to create trade", "trade_id", t.ID, "error", err)
		return fmt.Errorf("failed to create trade: %w", err)
	}

	return nil
}

func (r *TradeRepository) scanTrade(row pgx.Row) (*trade.Trade, error) {
	var t trade.Trade
	err := row.Scan(
		&t.ID,
		&t.SellerID,
		&t.BuyerID,
		&t.Amount,
		&t.PricePerUnit,
		&t.TotalPrice,
		&t.Status,
		&t.ExternalTxRef,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID retrieves a trade by its identifier
func (r *TradeRepository) GetByID(ctx context.Context, id string) (*trade.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE trade_id = $1
	`

	t, err := r.scanTrade(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trade.ErrNotFound{TradeID: id}
		}
		r.logger.Error("Failed to get trade", "trade_id", id, "error", err)
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return t, nil
}

// LockForUpdate obtains a row lock on the trade. Execution re-reads the status
// under this lock so two settlements of the same trade serialize.
func (r *TradeRepository) LockForUpdate(ctx context.Context, id string) (*trade.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE trade_id = $1
		FOR UPDATE
	`

	t, err := r.scanTrade(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trade.ErrNotFound{TradeID: id}
		}
		r.logger.Error("Failed to lock trade for update", "trade_id", id, "error", err)
		return nil, fmt.Errorf("failed to lock trade for update: %w", err)
	}

	return t, nil
}

// MarkCompleted transitions a pending trade to completed, recording the
// external transaction reference when the settlement touched the ledger. The
// status guard makes the transition idempotent at the row level.
func (r *TradeRepository) MarkCompleted(ctx context.Context, id, externalTxRef string) error {
	query := `
		UPDATE trades
		SET status = $1, external_tx_ref = $2, completed_at = NOW()
		WHERE trade_id = $3 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query, trade.StatusCompleted, externalTxRef, id, trade.StatusPending)
	if err != nil {
		r.logger.Error("Failed to mark trade completed", "trade_id", id, "error", err)
		return fmt.Errorf("failed to mark trade completed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return trade.ErrAlreadyCompleted{TradeID: id}
	}

	return nil
}

// ListByFactory retrieves trades where the factory is seller or buyer, newest first
func (r *TradeRepository) ListByFactory(ctx context.Context, factoryID string) ([]*trade.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE seller_id = $1 OR buyer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, factoryID)
	if err != nil {
		r.logger.Error("Failed to list trades", "factory_id", factoryID, "error", err)
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []*trade.Trade
	for rows.Next() {
		t, err := r.scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trade rows: %w", err)
	}

	return trades, nil
}
