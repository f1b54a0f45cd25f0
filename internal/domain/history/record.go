package history

import (
	"time"
)

// Type defines the balance-affecting events recorded in the history ledger
type Type string

const (
	TypeRegister      Type = "REGISTER"
	TypeMint          Type = "MINT"
	TypeTransferOut   Type = "TRANSFER_OUT"
	TypeTransferIn    Type = "TRANSFER_IN"
	TypeTradeSell     Type = "TRADE_SELL"
	TypeTradeBuy      Type = "TRADE_BUY"
	TypeTecTransferIn Type = "TEC_TRANSFER_IN"
)

// Record is one immutable row of the transaction-history ledger. Rows are
// appended inside the same store transaction as the balance mutation they
// describe and are never updated or deleted.
type Record struct {
	ID               int64     `json:"id"`
	FactoryID        string    `json:"factory_id"`
	Type             Type      `json:"transaction_type"`
	Amount           int64     `json:"amount"`
	RelatedFactoryID string    `json:"related_factory_id,omitempty"`
	ExternalTxRef    string    `json:"external_tx_ref,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
