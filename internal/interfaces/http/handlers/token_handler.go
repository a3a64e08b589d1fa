package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sfauth/internal/application/dto"
	domainService "github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/internal/infrastructure/monitoring"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/utils"
)

// TokenHandler handles the token lifecycle endpoints.
type TokenHandler struct {
	tokenManager domainService.TokenManager
	metrics      *monitoring.Metrics
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokenManager domainService.TokenManager, metrics *monitoring.Metrics) *TokenHandler {
	return &TokenHandler{
		tokenManager: tokenManager,
		metrics:      metrics,
	}
}

// Validate handles POST /api/v1/tokens/validate.
func (h *TokenHandler) Validate(c *gin.Context) {
	var req dto.TokenValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid token validate request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	valid, err := h.tokenManager.ValidateToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		sendError(c, err)
		return
	}

	h.metrics.RecordTokenValidation(valid)
	sendSuccess(c, http.StatusOK, &dto.TokenValidateResponse{Valid: valid})
}

// Revoke handles POST /api/v1/tokens/revoke.
func (h *TokenHandler) Revoke(c *gin.Context) {
	var req dto.TokenRevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid token revoke request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	revoked, err := h.tokenManager.RevokeToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		sendError(c, err)
		return
	}

	if revoked {
		h.metrics.RecordTokenRevocation()
	}
	sendSuccess(c, http.StatusOK, &dto.TokenRevokeResponse{Revoked: revoked})
}

// Bind handles POST /api/v1/tokens/bind.
func (h *TokenHandler) Bind(c *gin.Context) {
	var req dto.TokenBindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid token bind request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	if err := h.tokenManager.BindToken(c.Request.Context(), req.AccessToken, req.DeviceID, req.IP); err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, gin.H{"bound": true})
}

// CheckBinding handles POST /api/v1/tokens/check-binding.
func (h *TokenHandler) CheckBinding(c *gin.Context) {
	var req dto.TokenBindCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid token binding check request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	allowed, err := h.tokenManager.CheckTokenBinding(c.Request.Context(), req.AccessToken, req.DeviceID, req.IP)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, &dto.TokenBindCheckResponse{Allowed: allowed})
}
