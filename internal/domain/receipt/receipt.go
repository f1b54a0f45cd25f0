package receipt

import (
	"context"
	"time"
)

// Operation names the gateway call that produced a receipt
type Operation string

const (
	OperationTransfer         Operation = "TRANSFER"
	OperationMint             Operation = "MINT"
	OperationTreasuryTransfer Operation = "TREASURY_TRANSFER"
)

// Receipt is the archived evidence of one confirmed token movement on the
// external ledger. Receipts are written immediately after the external step
// succeeds, before the local commit, so that a crash in between leaves a
// discoverable trace for offline reconciliation.
type Receipt struct {
	ExternalTxRef     string    `json:"external_tx_ref" bson:"external_tx_ref"`
	Operation         Operation `json:"operation" bson:"operation"`
	FactoryID         string    `json:"factory_id,omitempty" bson:"factory_id,omitempty"`
	RelatedFactoryID  string    `json:"related_factory_id,omitempty" bson:"related_factory_id,omitempty"`
	FromExternalID    string    `json:"from_external_id,omitempty" bson:"from_external_id,omitempty"`
	ToExternalID      string    `json:"to_external_id,omitempty" bson:"to_external_id,omitempty"`
	Amount            int64     `json:"amount" bson:"amount"`
	ConfirmedAt       time.Time `json:"confirmed_at" bson:"confirmed_at"`
}

// Repository archives gateway receipts for the offline reconciliation job
type Repository interface {
	Archive(ctx context.Context, r *Receipt) error
	GetByExternalRef(ctx context.Context, externalTxRef string) (*Receipt, error)
	ListSince(ctx context.Context, since time.Time) ([]*Receipt, error)
}

// ErrNotFound indicates a missing receipt
type ErrNotFound struct {
	ExternalTxRef string
}

func (e ErrNotFound) Error() string {
	return "receipt not found: " + e.ExternalTxRef
}
