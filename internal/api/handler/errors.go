package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
	"github.com/ecoguardians/energy-settlement/internal/ledger"
	"github.com/ecoguardians/energy-settlement/internal/settlement"
)

// respondSettlementError maps the settlement error taxonomy onto HTTP status
// codes. Every mutating endpoint funnels through here so a given failure mode
// always produces the same status regardless of which operation hit it.
func respondSettlementError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		notFound       factory.ErrNotFound
		alreadyExists  factory.ErrAlreadyExists
		insufficientE  factory.ErrInsufficientEnergy
		insufficientC  factory.ErrInsufficientCurrency
		noExternal     factory.ErrNoExternalAccount
		concurrentMod  factory.ErrConcurrentModification
		tradeNotFound  trade.ErrNotFound
		tradeExists    trade.ErrAlreadyExists
		tradeCompleted trade.ErrAlreadyCompleted
		rejected       ledger.ErrRejected
		unavailable    ledger.ErrUnavailable
	)

	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, "Factory not found: "+notFound.FactoryID)
	case errors.As(err, &tradeNotFound):
		RespondNotFound(c, "Trade not found: "+tradeNotFound.TradeID)
	case errors.As(err, &alreadyExists):
		RespondConflict(c, "Factory already exists: "+alreadyExists.FactoryID)
	case errors.As(err, &tradeExists):
		RespondConflict(c, "Trade already exists: "+tradeExists.TradeID)
	case errors.As(err, &tradeCompleted):
		RespondConflict(c, "Trade has already been executed: "+tradeCompleted.TradeID)
	case errors.As(err, &concurrentMod):
		RespondConflict(c, "Balances changed concurrently, retry the operation")
	case errors.As(err, &insufficientE):
		RespondUnprocessable(c, "INSUFFICIENT_ENERGY", "Insufficient energy balance for factory "+insufficientE.FactoryID)
	case errors.As(err, &insufficientC):
		RespondUnprocessable(c, "INSUFFICIENT_CURRENCY", "Insufficient currency balance for factory "+insufficientC.FactoryID)
	case errors.As(err, &noExternal):
		RespondUnprocessable(c, "NO_EXTERNAL_ACCOUNT", "Factory has no external ledger account: "+noExternal.FactoryID)
	case errors.As(err, &rejected):
		RespondUnprocessable(c, "LEDGER_REJECTED", "External ledger rejected the settlement: "+rejected.Reason)
	case errors.As(err, &unavailable):
		RespondBadGateway(c, "External ledger is unavailable, the operation was not settled")
	case errors.Is(err, settlement.ErrSameFactory),
		errors.Is(err, trade.ErrSameCounterpart),
		errors.Is(err, factory.ErrInvalidAmount),
		errors.Is(err, factory.ErrNegativeValue),
		errors.Is(err, factory.ErrEmptyFactoryID),
		errors.Is(err, factory.ErrEmptyFactoryName),
		errors.Is(err, trade.ErrEmptyTradeID),
		errors.Is(err, trade.ErrInvalidAmount),
		errors.Is(err, trade.ErrInvalidPrice):
		RespondBadRequest(c, err.Error())
	default:
		logger.Error("Unhandled settlement error", "error", err)
		RespondInternalError(c)
	}
}
