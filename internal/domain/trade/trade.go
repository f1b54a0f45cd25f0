package trade

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrEmptyTradeID    = errors.New("trade id cannot be empty")
	ErrInvalidAmount   = errors.New("trade amount must be positive")
	ErrInvalidPrice    = errors.New("price per unit must be positive")
	ErrSameCounterpart = errors.New("seller and buyer must differ")
)

// Status defines trade lifecycle states. A trade only ever moves from pending
// to completed, never back.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Trade represents an energy-for-currency trade between two factories.
// TotalPrice is derived once at creation and is integer-exact because all
// amounts are held in the settlement asset's smallest unit.
type Trade struct {
	ID            string     `json:"trade_id"`
	SellerID      string     `json:"seller_id"`
	BuyerID       string     `json:"buyer_id"`
	Amount        int64      `json:"amount"`
	PricePerUnit  int64      `json:"price_per_unit"`
	TotalPrice    int64      `json:"total_price"`
	Status        Status     `json:"status"`
	ExternalTxRef string     `json:"external_tx_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// New creates a pending trade with the given parameters
func New(id, sellerID, buyerID string, amount, pricePerUnit int64) (*Trade, error) {
	if id == "" {
		return nil, ErrEmptyTradeID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if pricePerUnit <= 0 {
		return nil, ErrInvalidPrice
	}
	if sellerID == buyerID {
		return nil, ErrSameCounterpart
	}

	return &Trade{
		ID:           id,
		SellerID:     sellerID,
		BuyerID:      buyerID,
		Amount:       amount,
		PricePerUnit: pricePerUnit,
		TotalPrice:   amount * pricePerUnit,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}, nil
}

// IsCompleted reports whether the trade has already been settled
func (t *Trade) IsCompleted() bool {
	return t.Status == StatusCompleted
}
