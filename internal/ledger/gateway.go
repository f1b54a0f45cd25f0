package ledger

import (
	"context"
	"log/slog"

	"github.com/ecoguardians/energy-settlement/internal/config"
)

// ExternalAccount is a factory's identity on the token network
type ExternalAccount struct {
	ID         string
	SigningKey string
}

// NodeClient is the subset of the RPC client the gateway drives, extracted so
// engine tests can stand in a fake node.
type NodeClient interface {
	CreateAccount(ctx context.Context, initialStake int64) (string, string, error)
	AssociateAsset(ctx context.Context, accountID, signingKey, assetID string) error
	Transfer(ctx context.Context, assetID, fromID, fromKey, toID string, amount int64) (string, error)
	Mint(ctx context.Context, assetID, treasuryKey string, amount int64) (string, error)
}

var _ NodeClient = (*Client)(nil)

// Gateway binds the RPC client to the configured asset and treasury identity
// and applies the per-call deadline. It keeps no local bookkeeping: every
// method is one blocking round-trip whose outcome the caller owns.
type Gateway struct {
	client NodeClient
	cfg    *config.LedgerConfig
	logger *slog.Logger
}

// NewGateway creates the gateway. When external settlement is disabled the
// client may be nil; callers must check Enabled before any call.
func NewGateway(logger *slog.Logger, cfg *config.LedgerConfig, client NodeClient) *Gateway {
	return &Gateway{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether external settlement is configured
func (g *Gateway) Enabled() bool {
	return g.cfg.Enabled
}

func (g *Gateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.cfg.CallTimeout)
}

// ProvisionAccount creates a token-network account funded with the configured
// initial stake.
func (g *Gateway) ProvisionAccount(ctx context.Context) (ExternalAccount, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	id, key, err := g.client.CreateAccount(ctx, g.cfg.InitialStake)
	if err != nil {
		return ExternalAccount{}, err
	}
	return ExternalAccount{ID: id, SigningKey: key}, nil
}

// AssociateAsset opts the account in to the settlement asset
func (g *Gateway) AssociateAsset(ctx context.Context, acct ExternalAccount) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	return g.client.AssociateAsset(ctx, acct.ID, acct.SigningKey, g.cfg.AssetID)
}

// Transfer moves settlement-asset units from one factory's account to another
func (g *Gateway) Transfer(ctx context.Context, from ExternalAccount, toID string, amount int64) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	return g.client.Transfer(ctx, g.cfg.AssetID, from.ID, from.SigningKey, toID, amount)
}

// TransferFromTreasury moves settlement-asset units from the treasury to an account
func (g *Gateway) TransferFromTreasury(ctx context.Context, toID string, amount int64) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	return g.client.Transfer(ctx, g.cfg.AssetID, g.cfg.TreasuryAccountID, g.cfg.TreasuryKey, toID, amount)
}

// Mint creates new settlement-asset units in the treasury
func (g *Gateway) Mint(ctx context.Context, amount int64) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	return g.client.Mint(ctx, g.cfg.AssetID, g.cfg.TreasuryKey, amount)
}
