package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
	"github.com/ecoguardians/energy-settlement/internal/domain/history"
	"github.com/ecoguardians/energy-settlement/internal/settlement"
)

// FactoryHandler handles HTTP requests for factory operations
type FactoryHandler struct {
	settlementService settlement.Service
	logger            *slog.Logger
}

// NewFactoryHandler creates a new factory handler
func NewFactoryHandler(logger *slog.Logger, settlementService settlement.Service) *FactoryHandler {
	return &FactoryHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// Register handles registration of a new factory, provisioning an external
// ledger account when the gateway is enabled
func (h *FactoryHandler) Register(c *gin.Context) {
	var req RegisterFactoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	f, err := h.settlementService.Register(c.Request.Context(), settlement.RegisterParams{
		FactoryID:        req.FactoryID,
		Name:             req.Name,
		Password:         req.Password,
		EnergyType:       req.EnergyType,
		InitialEnergy:    req.InitialEnergy,
		InitialCurrency:  req.InitialCurrency,
		DailyConsumption: req.DailyConsumption,
		AvailableEnergy:  req.AvailableEnergy,
	})
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapFactoryToResponse(f))
}

// List returns all registered factories
func (h *FactoryHandler) List(c *gin.Context) {
	factories, err := h.settlementService.ListFactories(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list factories", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]FactoryResponse, 0, len(factories))
	for _, f := range factories {
		responses = append(responses, mapFactoryToResponse(f))
	}
	RespondOK(c, responses)
}

// GetByID retrieves a factory by its ID, returning 404 if not found
func (h *FactoryHandler) GetByID(c *gin.Context) {
	f, err := h.settlementService.GetFactory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondOK(c, mapFactoryToResponse(f))
}

// EnergyStatus reports whether the factory runs a surplus or a deficit
func (h *FactoryHandler) EnergyStatus(c *gin.Context) {
	status, f, err := h.settlementService.EnergyStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondOK(c, EnergyStatusResponse{
		FactoryID:        f.ID,
		Status:           string(status),
		AvailableEnergy:  f.AvailableEnergy,
		DailyConsumption: f.DailyConsumption,
	})
}

// History returns the factory's transaction history, newest first
func (h *FactoryHandler) History(c *gin.Context) {
	records, err := h.settlementService.FactoryHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	responses := make([]HistoryRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapHistoryRecordToResponse(rec))
	}
	RespondOK(c, responses)
}

// Mint handles minting of new energy supply for a factory
func (h *FactoryHandler) Mint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	f, err := h.settlementService.Mint(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondOK(c, mapFactoryToResponse(f))
}

// Transfer handles a direct energy transfer from this factory to another
func (h *FactoryHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	fromID := c.Param("id")
	if err := h.settlementService.TransferEnergy(c.Request.Context(), fromID, req.ToFactoryID, req.Amount); err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// UpdateAvailableEnergy replaces the factory's reported available energy
func (h *FactoryHandler) UpdateAvailableEnergy(c *gin.Context) {
	h.updateValue(c, h.settlementService.UpdateAvailableEnergy)
}

// UpdateDailyConsumption replaces the factory's reported daily consumption
func (h *FactoryHandler) UpdateDailyConsumption(c *gin.Context) {
	h.updateValue(c, h.settlementService.UpdateDailyConsumption)
}

func (h *FactoryHandler) updateValue(c *gin.Context, update func(ctx context.Context, factoryID string, value int64) error) {
	var req UpdateValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := update(c.Request.Context(), c.Param("id"), req.Value); err != nil {
		respondSettlementError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// mapFactoryToResponse maps a factory entity to a factory response DTO
func mapFactoryToResponse(f *factory.Factory) FactoryResponse {
	return FactoryResponse{
		FactoryID:         f.ID,
		Name:              f.Name,
		ExternalAccountID: f.ExternalAccountID,
		EnergyType:        f.EnergyType,
		EnergyBalance:     f.EnergyBalance,
		CurrencyBalance:   f.CurrencyBalance,
		DailyConsumption:  f.DailyConsumption,
		AvailableEnergy:   f.AvailableEnergy,
		CreatedAt:         f.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         f.UpdatedAt.Format(time.RFC3339),
	}
}

// mapHistoryRecordToResponse maps a history record to a response DTO
func mapHistoryRecordToResponse(rec *history.Record) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:               rec.ID,
		FactoryID:        rec.FactoryID,
		TransactionType:  string(rec.Type),
		Amount:           rec.Amount,
		RelatedFactoryID: rec.RelatedFactoryID,
		ExternalTxRef:    rec.ExternalTxRef,
		Timestamp:        rec.Timestamp.Format(time.RFC3339),
	}
}
