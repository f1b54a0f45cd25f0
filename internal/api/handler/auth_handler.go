package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ecoguardians/energy-settlement/internal/credentials"
	"github.com/ecoguardians/energy-settlement/internal/domain/factory"
)

// CredentialsService defines the authentication operations the API exposes
type CredentialsService interface {
	Login(ctx context.Context, factoryID, password string) (*factory.Factory, error)
	ChangePassword(ctx context.Context, factoryID, currentPassword, newPassword string) error
}

var _ CredentialsService = (*credentials.Service)(nil)

// AuthHandler handles HTTP requests for factory authentication
type AuthHandler struct {
	credentialsService CredentialsService
	logger             *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(logger *slog.Logger, credentialsService CredentialsService) *AuthHandler {
	return &AuthHandler{
		credentialsService: credentialsService,
		logger:             logger,
	}
}

// Login verifies a factory's credentials
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	f, err := h.credentialsService.Login(c.Request.Context(), req.FactoryID, req.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			RespondUnauthorized(c, "Invalid factory ID or password")
			return
		}
		h.logger.Error("Login failed", "factory_id", req.FactoryID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, LoginResponse{
		FactoryID: f.ID,
		Name:      f.Name,
	})
}

// ChangePassword verifies the current password and installs a new one
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err := h.credentialsService.ChangePassword(c.Request.Context(), req.FactoryID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var weak credentials.ErrWeakPassword
		switch {
		case errors.As(err, &weak):
			RespondBadRequest(c, weak.Error())
		case errors.Is(err, credentials.ErrInvalidCredentials):
			RespondUnauthorized(c, "Invalid factory ID or password")
		default:
			h.logger.Error("Password change failed", "factory_id", req.FactoryID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondNoContent(c)
}
