package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ecoguardians/energy-settlement/internal/credentials"
	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/domain/history"
	"github.com/ecoguardians/energy-settlement/internal/domain/receipt"
	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
	"github.com/ecoguardians/energy-settlement/internal/ledger"
	"github.com/ecoguardians/energy-settlement/internal/platform/messaging/producers"
	"github.com/ecoguardians/energy-settlement/internal/platform/persistence"
)

// ErrSameFactory rejects transfers where sender and receiver coincide
var ErrSameFactory = errors.New("sender and receiver must differ")

// Engine is the production implementation of Service. Each mutating operation
// is a one-shot saga: the irrevocable external ledger step runs first, the
// local atomic commit second. A crash between the two leaves the external
// ledger ahead of the store; the receipt archive keeps that window
// discoverable for offline reconciliation.
type Engine struct {
	logger    *slog.Logger
	db        persistence.TxRunner
	factories factory.Repository
	trades    trade.Repository
	histories history.Repository
	receipts  receipt.Repository
	gateway   LedgerGateway
	events    producers.MessagePublisher
}

func NewEngine(
	logger *slog.Logger,
	db persistence.TxRunner,
	factories factory.Repository,
	trades trade.Repository,
	histories history.Repository,
	receipts receipt.Repository,
	gateway LedgerGateway,
	events producers.MessagePublisher,
) *Engine {
	return &Engine{
		logger:    logger,
		db:        db,
		factories: factories,
		trades:    trades,
		histories: histories,
		receipts:  receipts,
		gateway:   gateway,
		events:    events,
	}
}

var _ Service = (*Engine)(nil)

// publish emits a settlement event. Events are informational; a publish
// failure is logged and never fails the operation that produced it.
func (e *Engine) publish(ctx context.Context, key string, ev *producers.Event) {
	if e.events == nil {
		return
	}
	ev.Timestamp = time.Now()
	if err := e.events.Publish(ctx, key, ev); err != nil {
		e.logger.Warn("Failed to publish settlement event", "kind", ev.Kind, "key", key, "error", err)
	}
}

// archiveReceipt records external ledger evidence for reconciliation. The
// local commit remains authoritative, so an archive failure only warns.
func (e *Engine) archiveReceipt(ctx context.Context, rec *receipt.Receipt) {
	rec.ConfirmedAt = time.Now()
	if err := e.receipts.Archive(ctx, rec); err != nil {
		e.logger.Warn("Failed to archive ledger receipt",
			"external_tx_ref", rec.ExternalTxRef,
			"operation", string(rec.Operation),
			"error", err)
	}
}

// Register creates a factory. With the gateway enabled the external account is
// provisioned and asset-associated before anything is stored locally; a
// failure after provisioning orphans the external account, which is logged and
// left for manual cleanup.
func (e *Engine) Register(ctx context.Context, params RegisterParams) (*factory.Factory, error) {
	if _, err := e.factories.GetByID(ctx, params.FactoryID); err == nil {
		return nil, factory.ErrAlreadyExists{FactoryID: params.FactoryID}
	} else {
		var notFound factory.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	passwordHash := ""
	if params.Password != "" {
		hash, err := credentials.HashPassword(params.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = hash
	}

	f, err := factory.New(params.FactoryID, params.Name, passwordHash, params.EnergyType,
		params.InitialEnergy, params.InitialCurrency, params.DailyConsumption, params.AvailableEnergy)
	if err != nil {
		return nil, err
	}

	grantRef := ""
	if e.gateway.Enabled() {
		acct, err := e.gateway.ProvisionAccount(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to provision external account: %w", err)
		}
		f.ExternalAccountID = acct.ID
		f.ExternalSigningKey = acct.SigningKey

		if err := e.gateway.AssociateAsset(ctx, acct); err != nil {
			e.logger.Warn("External account orphaned: asset association failed",
				"factory_id", params.FactoryID,
				"external_account_id", acct.ID,
				"error", err)
			return nil, fmt.Errorf("failed to associate settlement asset: %w", err)
		}

		if params.InitialCurrency > 0 {
			grantRef, err = e.gateway.TransferFromTreasury(ctx, acct.ID, params.InitialCurrency)
			if err != nil {
				e.logger.Warn("External account orphaned: initial treasury grant failed",
					"factory_id", params.FactoryID,
					"external_account_id", acct.ID,
					"error", err)
				return nil, fmt.Errorf("failed to grant initial currency: %w", err)
			}
			e.archiveReceipt(ctx, &receipt.Receipt{
				ExternalTxRef: grantRef,
				Operation:     receipt.OperationTreasuryTransfer,
				FactoryID:     params.FactoryID,
				ToExternalID:  acct.ID,
				Amount:        params.InitialCurrency,
			})
		}
	}

	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.factories.WithTx(tx).Create(ctx, f); err != nil {
			return err
		}
		return e.histories.WithTx(tx).Append(ctx, &history.Record{
			FactoryID:     f.ID,
			Type:          history.TypeRegister,
			Amount:        params.InitialCurrency,
			ExternalTxRef: grantRef,
			Timestamp:     time.Now(),
		})
	})
	if err != nil {
		if f.HasExternalAccount() {
			e.logger.Warn("External account orphaned: local registration failed",
				"factory_id", params.FactoryID,
				"external_account_id", f.ExternalAccountID,
				"error", err)
		}
		return nil, err
	}

	e.logger.Info("Factory registered",
		"factory_id", f.ID,
		"external_account_id", f.ExternalAccountID)
	e.publish(ctx, f.ID, &producers.Event{
		Kind:          producers.EventFactoryRegistered,
		FactoryID:     f.ID,
		Amount:        params.InitialCurrency,
		ExternalTxRef: grantRef,
	})

	return f, nil
}

// Mint credits amount newly generated energy units and the matching currency
// 1:1. On-ledger, supply is minted into the treasury and then granted to the
// factory's account; a factory never provisioned externally keeps the minted
// supply parked in the treasury, which is logged and skipped.
func (e *Engine) Mint(ctx context.Context, factoryID string, amount int64) (*factory.Factory, error) {
	if amount <= 0 {
		return nil, factory.ErrInvalidAmount
	}

	f, err := e.factories.GetByID(ctx, factoryID)
	if err != nil {
		return nil, err
	}

	mintRef, grantRef := "", ""
	if e.gateway.Enabled() {
		mintRef, err = e.gateway.Mint(ctx, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to mint on external ledger: %w", err)
		}
		e.archiveReceipt(ctx, &receipt.Receipt{
			ExternalTxRef: mintRef,
			Operation:     receipt.OperationMint,
			FactoryID:     factoryID,
			Amount:        amount,
		})

		if f.HasExternalAccount() {
			grantRef, err = e.gateway.TransferFromTreasury(ctx, f.ExternalAccountID, amount)
			if err != nil {
				e.logger.Error("Unreconciled: supply minted on external ledger but treasury grant failed",
					"factory_id", factoryID,
					"mint_tx_ref", mintRef,
					"error", err)
				return nil, fmt.Errorf("failed to grant minted supply: %w", err)
			}
			e.archiveReceipt(ctx, &receipt.Receipt{
				ExternalTxRef: grantRef,
				Operation:     receipt.OperationTreasuryTransfer,
				FactoryID:     factoryID,
				ToExternalID:  f.ExternalAccountID,
				Amount:        amount,
			})
		} else {
			e.logger.Warn("Factory has no external account, minted supply stays in treasury",
				"factory_id", factoryID,
				"mint_tx_ref", mintRef)
		}
	}

	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.factories.WithTx(tx).AdjustBalances(ctx, factoryID, amount, amount); err != nil {
			return err
		}
		hr := e.histories.WithTx(tx)
		if err := hr.Append(ctx, &history.Record{
			FactoryID:     factoryID,
			Type:          history.TypeMint,
			Amount:        amount,
			ExternalTxRef: mintRef,
			Timestamp:     time.Now(),
		}); err != nil {
			return err
		}
		if grantRef == "" {
			return nil
		}
		return hr.Append(ctx, &history.Record{
			FactoryID:     factoryID,
			Type:          history.TypeTecTransferIn,
			Amount:        amount,
			ExternalTxRef: grantRef,
			Timestamp:     time.Now(),
		})
	})
	if err != nil {
		if mintRef != "" {
			e.logger.Error("Unreconciled: mint settled on external ledger but local commit failed",
				"factory_id", factoryID,
				"mint_tx_ref", mintRef,
				"grant_tx_ref", grantRef,
				"error", err)
		}
		return nil, err
	}

	e.logger.Info("Energy minted", "factory_id", factoryID, "amount", amount, "mint_tx_ref", mintRef)
	e.publish(ctx, factoryID, &producers.Event{
		Kind:          producers.EventEnergyMinted,
		FactoryID:     factoryID,
		Amount:        amount,
		ExternalTxRef: mintRef,
	})

	return e.factories.GetByID(ctx, factoryID)
}

// lockPair locks both factory rows in identifier order so concurrent
// settlements touching the same pair cannot deadlock, then returns them in
// call order.
func lockPair(ctx context.Context, repo factory.Repository, firstID, secondID string) (*factory.Factory, *factory.Factory, error) {
	a, b := firstID, secondID
	if b < a {
		a, b = b, a
	}

	fa, err := repo.LockForUpdate(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	fb, err := repo.LockForUpdate(ctx, b)
	if err != nil {
		return nil, nil, err
	}

	if fa.ID == firstID {
		return fa, fb, nil
	}
	return fb, fa, nil
}

// TransferEnergy moves energy between two factories. This is a local-only
// operation: no currency moves and the external ledger is not involved.
func (e *Engine) TransferEnergy(ctx context.Context, fromID, toID string, amount int64) error {
	if amount <= 0 {
		return factory.ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSameFactory
	}

	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		fr := e.factories.WithTx(tx)
		from, _, err := lockPair(ctx, fr, fromID, toID)
		if err != nil {
			return err
		}

		if !from.CanDebitEnergy(amount) {
			return factory.ErrInsufficientEnergy{FactoryID: fromID, Have: from.EnergyBalance, Need: amount}
		}

		if err := fr.AdjustBalances(ctx, fromID, -amount, 0); err != nil {
			return err
		}
		if err := fr.AdjustBalances(ctx, toID, amount, 0); err != nil {
			return err
		}

		hr := e.histories.WithTx(tx)
		now := time.Now()
		if err := hr.Append(ctx, &history.Record{
			FactoryID:        fromID,
			Type:             history.TypeTransferOut,
			Amount:           amount,
			RelatedFactoryID: toID,
			Timestamp:        now,
		}); err != nil {
			return err
		}
		return hr.Append(ctx, &history.Record{
			FactoryID:        toID,
			Type:             history.TypeTransferIn,
			Amount:           amount,
			RelatedFactoryID: fromID,
			Timestamp:        now,
		})
	})
	if err != nil {
		return err
	}

	e.logger.Info("Energy transferred", "from", fromID, "to", toID, "amount", amount)
	e.publish(ctx, fromID, &producers.Event{
		Kind:             producers.EventEnergyTransferred,
		FactoryID:        fromID,
		RelatedFactoryID: toID,
		Amount:           amount,
	})

	return nil
}

// CreateTrade records a pending trade under the caller-supplied id. The
// seller's energy is checked optimistically; the binding check happens again
// at execution time under row locks.
func (e *Engine) CreateTrade(ctx context.Context, tradeID, sellerID, buyerID string, amount, pricePerUnit int64) (*trade.Trade, error) {
	t, err := trade.New(tradeID, sellerID, buyerID, amount, pricePerUnit)
	if err != nil {
		return nil, err
	}

	seller, err := e.factories.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if _, err := e.factories.GetByID(ctx, buyerID); err != nil {
		return nil, err
	}

	if !seller.CanDebitEnergy(amount) {
		return nil, factory.ErrInsufficientEnergy{FactoryID: sellerID, Have: seller.EnergyBalance, Need: amount}
	}

	if err := e.trades.Create(ctx, t); err != nil {
		return nil, err
	}

	e.logger.Info("Trade created",
		"trade_id", t.ID,
		"seller_id", sellerID,
		"buyer_id", buyerID,
		"amount", amount,
		"total_price", t.TotalPrice)
	e.publish(ctx, sellerID, &producers.Event{
		Kind:             producers.EventTradeCreated,
		TradeID:          t.ID,
		FactoryID:        sellerID,
		RelatedFactoryID: buyerID,
		Amount:           amount,
		TotalPrice:       t.TotalPrice,
	})

	return t, nil
}

// ExecuteTrade settles a pending trade. With the gateway enabled the buyer's
// currency moves to the seller on the external ledger first; then, in one
// local transaction, the trade is re-checked under locks, balances move, and
// the trade completes. A local failure after the external transfer is logged
// as unreconciled.
func (e *Engine) ExecuteTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	t, err := e.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t.IsCompleted() {
		return nil, trade.ErrAlreadyCompleted{TradeID: tradeID}
	}

	seller, err := e.factories.GetByID(ctx, t.SellerID)
	if err != nil {
		return nil, err
	}
	buyer, err := e.factories.GetByID(ctx, t.BuyerID)
	if err != nil {
		return nil, err
	}

	if !seller.CanDebitEnergy(t.Amount) {
		return nil, factory.ErrInsufficientEnergy{FactoryID: seller.ID, Have: seller.EnergyBalance, Need: t.Amount}
	}
	if !buyer.CanDebitCurrency(t.TotalPrice) {
		return nil, factory.ErrInsufficientCurrency{FactoryID: buyer.ID, Have: buyer.CurrencyBalance, Need: t.TotalPrice}
	}

	txRef := ""
	if e.gateway.Enabled() {
		if !buyer.HasExternalAccount() {
			return nil, factory.ErrNoExternalAccount{FactoryID: buyer.ID}
		}
		if !seller.HasExternalAccount() {
			return nil, factory.ErrNoExternalAccount{FactoryID: seller.ID}
		}

		buyerAcct := ledger.ExternalAccount{ID: buyer.ExternalAccountID, SigningKey: buyer.ExternalSigningKey}
		txRef, err = e.gateway.Transfer(ctx, buyerAcct, seller.ExternalAccountID, t.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to settle trade on external ledger: %w", err)
		}
		e.archiveReceipt(ctx, &receipt.Receipt{
			ExternalTxRef:    txRef,
			Operation:        receipt.OperationTransfer,
			FactoryID:        buyer.ID,
			RelatedFactoryID: seller.ID,
			FromExternalID:   buyer.ExternalAccountID,
			ToExternalID:     seller.ExternalAccountID,
			Amount:           t.TotalPrice,
		})
	}

	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		tr := e.trades.WithTx(tx)
		locked, err := tr.LockForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		if locked.IsCompleted() {
			return trade.ErrAlreadyCompleted{TradeID: tradeID}
		}

		fr := e.factories.WithTx(tx)
		lockedSeller, lockedBuyer, err := lockPair(ctx, fr, t.SellerID, t.BuyerID)
		if err != nil {
			return err
		}

		if !lockedSeller.CanDebitEnergy(t.Amount) {
			return factory.ErrInsufficientEnergy{FactoryID: lockedSeller.ID, Have: lockedSeller.EnergyBalance, Need: t.Amount}
		}
		if !lockedBuyer.CanDebitCurrency(t.TotalPrice) {
			return factory.ErrInsufficientCurrency{FactoryID: lockedBuyer.ID, Have: lockedBuyer.CurrencyBalance, Need: t.TotalPrice}
		}

		if err := fr.AdjustBalances(ctx, t.SellerID, -t.Amount, t.TotalPrice); err != nil {
			return err
		}
		if err := fr.AdjustBalances(ctx, t.BuyerID, t.Amount, -t.TotalPrice); err != nil {
			return err
		}

		if err := tr.MarkCompleted(ctx, tradeID, txRef); err != nil {
			return err
		}

		hr := e.histories.WithTx(tx)
		now := time.Now()
		if err := hr.Append(ctx, &history.Record{
			FactoryID:        t.SellerID,
			Type:             history.TypeTradeSell,
			Amount:           t.Amount,
			RelatedFactoryID: t.BuyerID,
			ExternalTxRef:    txRef,
			Timestamp:        now,
		}); err != nil {
			return err
		}
		return hr.Append(ctx, &history.Record{
			FactoryID:        t.BuyerID,
			Type:             history.TypeTradeBuy,
			Amount:           t.Amount,
			RelatedFactoryID: t.SellerID,
			ExternalTxRef:    txRef,
			Timestamp:        now,
		})
	})
	if err != nil {
		if txRef != "" {
			e.logger.Error("Unreconciled: trade settled on external ledger but local commit failed",
				"trade_id", tradeID,
				"external_tx_ref", txRef,
				"error", err)
		}
		return nil, err
	}

	e.logger.Info("Trade executed",
		"trade_id", tradeID,
		"seller_id", t.SellerID,
		"buyer_id", t.BuyerID,
		"external_tx_ref", txRef)
	e.publish(ctx, t.SellerID, &producers.Event{
		Kind:             producers.EventTradeExecuted,
		TradeID:          tradeID,
		FactoryID:        t.SellerID,
		RelatedFactoryID: t.BuyerID,
		Amount:           t.Amount,
		TotalPrice:       t.TotalPrice,
		ExternalTxRef:    txRef,
	})

	return e.trades.GetByID(ctx, tradeID)
}

// GetFactory retrieves one factory
func (e *Engine) GetFactory(ctx context.Context, factoryID string) (*factory.Factory, error) {
	return e.factories.GetByID(ctx, factoryID)
}

// ListFactories retrieves all factories
func (e *Engine) ListFactories(ctx context.Context) ([]*factory.Factory, error) {
	return e.factories.List(ctx)
}

// EnergyStatus reports the factory's surplus/deficit classification
func (e *Engine) EnergyStatus(ctx context.Context, factoryID string) (factory.EnergyStatus, *factory.Factory, error) {
	f, err := e.factories.GetByID(ctx, factoryID)
	if err != nil {
		return "", nil, err
	}
	return f.Status(), f, nil
}

// UpdateAvailableEnergy sets the factory's reported available energy
func (e *Engine) UpdateAvailableEnergy(ctx context.Context, factoryID string, value int64) error {
	if value < 0 {
		return factory.ErrNegativeValue
	}
	return e.factories.SetAvailableEnergy(ctx, factoryID, value)
}

// UpdateDailyConsumption sets the factory's reported daily consumption
func (e *Engine) UpdateDailyConsumption(ctx context.Context, factoryID string, value int64) error {
	if value < 0 {
		return factory.ErrNegativeValue
	}
	return e.factories.SetDailyConsumption(ctx, factoryID, value)
}

// FactoryHistory retrieves the factory's transaction history, newest first
func (e *Engine) FactoryHistory(ctx context.Context, factoryID string) ([]*history.Record, error) {
	if _, err := e.factories.GetByID(ctx, factoryID); err != nil {
		return nil, err
	}
	return e.histories.ListByFactory(ctx, factoryID)
}

// GetTrade retrieves one trade
func (e *Engine) GetTrade(ctx context.Context, tradeID string) (*trade.Trade, error) {
	return e.trades.GetByID(ctx, tradeID)
}

// ListTradesByFactory retrieves trades involving the factory, newest first
func (e *Engine) ListTradesByFactory(ctx context.Context, factoryID string) ([]*trade.Trade, error) {
	if _, err := e.factories.GetByID(ctx, factoryID); err != nil {
		return nil, err
	}
	return e.trades.ListByFactory(ctx, factoryID)
}
