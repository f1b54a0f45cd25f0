package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoguardians/energy-settlement/internal/domain/trade"
	"github.com/ecoguardians/energy-settlement/internal/settlement"
)

// TradeHandler handles HTTP requests for trade operations
type TradeHandler struct {
	settlementService settlement.Service
	logger            *slog.Logger
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(logger *slog.Logger, settlementService settlement.Service) *TradeHandler {
	return &TradeHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// Create handles creation of a new pending trade between two factories
func (h *TradeHandler) Create(c *gin.Context) {
	var req CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	t, err := h.settlementService.CreateTrade(c.Request.Context(), req.TradeID, req.SellerID, req.BuyerID, req.Amount, req.PricePerUnit)
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTradeToResponse(t))
}

// GetByID retrieves a trade by its ID, returning 404 if not found
func (h *TradeHandler) GetByID(c *gin.Context) {
	t, err := h.settlementService.GetTrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTradeToResponse(t))
}

// Execute settles a pending trade, moving currency on the external ledger
// before committing balances locally
func (h *TradeHandler) Execute(c *gin.Context) {
	t, err := h.settlementService.ExecuteTrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTradeToResponse(t))
}

// ListByFactory returns every trade the factory participates in, as seller or buyer
func (h *TradeHandler) ListByFactory(c *gin.Context) {
	trades, err := h.settlementService.ListTradesByFactory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	responses := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		responses = append(responses, mapTradeToResponse(t))
	}
	RespondOK(c, responses)
}

// mapTradeToResponse maps a trade entity to a trade response DTO
func mapTradeToResponse(t *trade.Trade) TradeResponse {
	resp := TradeResponse{
		TradeID:       t.ID,
		SellerID:      t.SellerID,
		BuyerID:       t.BuyerID,
		Amount:        t.Amount,
		PricePerUnit:  t.PricePerUnit,
		TotalPrice:    t.TotalPrice,
		Status:        string(t.Status),
		ExternalTxRef: t.ExternalTxRef,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		resp.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
