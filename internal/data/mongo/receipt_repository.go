// Package mongo provides the MongoDB implementation of the receipt archive.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecoguardians/energy-settlement/internal/domain/receipt"
)

const (
	// ReceiptCollectionName is the name of the receipt collection in MongoDB
	ReceiptCollectionName = "ledger_receipts"
)

// ReceiptRepository implements the receipt.Repository interface for MongoDB
type ReceiptRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewReceiptRepository creates a new MongoDB receipt repository
func NewReceiptRepository(logger *slog.Logger, db *mongo.Database) receipt.Repository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

// Archive stores the receipt of one confirmed external ledger transaction.
// Re-archiving the same transaction reference replaces the document, so a
// retried saga step never produces duplicates.
func (r *ReceiptRepository) Archive(ctx context.Context, rec *receipt.Receipt) error {
	collection := r.db.Collection(ReceiptCollectionName)

	filter := bson.M{"external_tx_ref": rec.ExternalTxRef}
	opts := options.Replace().SetUpsert(true)

	_, err := collection.ReplaceOne(ctx, filter, rec, opts)
	if err != nil {
		r.logger.Error("Failed to archive receipt",
			"external_tx_ref", rec.ExternalTxRef,
			"operation", string(rec.Operation),
			"error", err)
		return fmt.Errorf("failed to archive receipt: %w", err)
	}

	return nil
}

// GetByExternalRef retrieves a receipt by its external transaction reference.
// Returns ErrNotFound if the transaction was never archived.
func (r *ReceiptRepository) GetByExternalRef(ctx context.Context, externalTxRef string) (*receipt.Receipt, error) {
	collection := r.db.Collection(ReceiptCollectionName)

	filter := bson.M{"external_tx_ref": externalTxRef}
	var rec receipt.Receipt
	err := collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, receipt.ErrNotFound{ExternalTxRef: externalTxRef}
		}
		r.logger.Error("Failed to get receipt",
			"external_tx_ref", externalTxRef,
			"error", err)
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	return &rec, nil
}

// ListSince retrieves receipts confirmed at or after the given time, oldest
// first. The reconciliation job walks this window and checks each receipt for
// a matching local history row.
func (r *ReceiptRepository) ListSince(ctx context.Context, since time.Time) ([]*receipt.Receipt, error) {
	collection := r.db.Collection(ReceiptCollectionName)

	filter := bson.M{"confirmed_at": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.M{"confirmed_at": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list receipts",
			"since", since,
			"error", err)
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer cursor.Close(ctx)

	var receipts []*receipt.Receipt
	if err := cursor.All(ctx, &receipts); err != nil {
		r.logger.Error("Failed to decode receipts",
			"since", since,
			"error", err)
		return nil, fmt.Errorf("failed to decode receipts: %w", err)
	}

	return receipts, nil
}
