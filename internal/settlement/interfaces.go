// Package settlement implements the saga-ordered operations that keep the
// local store and the external ledger consistent: the external step runs
// first because it is irrevocable, the local commit second because it is
// atomic and retryable.
package settlement

import (
	"context"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/domain/history"
	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
	"github.com/ecoguardians/energy-settlement/internal/ledger"
)

// RegisterParams carries the inputs for factory registration
type RegisterParams struct {
	FactoryID        string
	Name             string
	Password         string
	EnergyType       string
	InitialEnergy    int64 // Seeds the local energy balance
	InitialCurrency  int64 // Granted from the treasury when external settlement is on
	DailyConsumption int64
	AvailableEnergy  int64
}

// Service defines the settlement operations
type Service interface {
	// Register creates a factory, provisioning its external ledger account
	// first when the gateway is enabled.
	// Returns factory.ErrAlreadyExists for a duplicate id.
	Register(ctx context.Context, params RegisterParams) (*factory.Factory, error)

	// Mint credits newly generated energy and its 1:1 currency counterpart.
	// The on-ledger mint and treasury transfer happen before the local commit.
	Mint(ctx context.Context, factoryID string, amount int64) (*factory.Factory, error)

	// TransferEnergy moves energy between factories locally; currency and the
	// external ledger are untouched.
	TransferEnergy(ctx context.Context, fromID, toID string, amount int64) error

	// CreateTrade records a pending trade under the caller-supplied id after
	// validating both parties and optimistically checking the seller's energy.
	// Returns trade.ErrAlreadyExists when the id is taken.
	CreateTrade(ctx context.Context, tradeID, sellerID, buyerID string, amount, pricePerUnit int64) (*trade.Trade, error)

	// ExecuteTrade settles a pending trade: on-ledger currency moves from
	// buyer to seller first, then energy and currency move locally and the
	// trade completes, all in one transaction.
	// Returns trade.ErrAlreadyCompleted if the trade was settled before.
	ExecuteTrade(ctx context.Context, tradeID string) (*trade.Trade, error)

	GetFactory(ctx context.Context, factoryID string) (*factory.Factory, error)
	ListFactories(ctx context.Context) ([]*factory.Factory, error)

	// EnergyStatus reports surplus/deficit/balanced from available energy vs
	// daily consumption.
	EnergyStatus(ctx context.Context, factoryID string) (factory.EnergyStatus, *factory.Factory, error)

	UpdateAvailableEnergy(ctx context.Context, factoryID string, value int64) error
	UpdateDailyConsumption(ctx context.Context, factoryID string, value int64) error

	FactoryHistory(ctx context.Context, factoryID string) ([]*history.Record, error)

	GetTrade(ctx context.Context, tradeID string) (*trade.Trade, error)
	ListTradesByFactory(ctx context.Context, factoryID string) ([]*trade.Trade, error)
}

// LedgerGateway is the slice of the ledger gateway the engine drives,
// extracted so engine tests can fake the token network.
type LedgerGateway interface {
	Enabled() bool
	ProvisionAccount(ctx context.Context) (ledger.ExternalAccount, error)
	AssociateAsset(ctx context.Context, acct ledger.ExternalAccount) error
	Transfer(ctx context.Context, from ledger.ExternalAccount, toID string, amount int64) (string, error)
	TransferFromTreasury(ctx context.Context, toID string, amount int64) (string, error)
	Mint(ctx context.Context, amount int64) (string, error)
}

var _ LedgerGateway = (*ledger.Gateway)(nil)
