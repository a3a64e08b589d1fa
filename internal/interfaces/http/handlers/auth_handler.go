// Package handlers exposes the authentication engine over HTTP.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sfauth/internal/application/dto"
	appservice "github.com/turtacn/sfauth/internal/application/service"
	"github.com/turtacn/sfauth/internal/infrastructure/monitoring"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/utils"
)

// AuthHandler handles the login lifecycle endpoints.
type AuthHandler struct {
	orchestrator appservice.AuthOrchestrator
	metrics      *monitoring.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(orchestrator appservice.AuthOrchestrator, metrics *monitoring.Metrics) *AuthHandler {
	return &AuthHandler{
		orchestrator: orchestrator,
		metrics:      metrics,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid login request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	result := h.orchestrator.Login(c.Request.Context(), req.ToModel())
	h.metrics.RecordLogin(constants.LoginType(req.LoginType), constants.OrgEnvironment(req.OrgType),
		result.Success, time.Since(start))

	sendSuccess(c, http.StatusOK, dto.LoginResponseFromResult(result))
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid logout request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	ok, err := h.orchestrator.Logout(c.Request.Context(), req.SessionID,
		constants.LoginType(req.LoginType), constants.OrgEnvironment(req.OrgType))
	if err != nil {
		h.metrics.RecordLogout(constants.LoginType(req.LoginType), false)
		sendError(c, err)
		return
	}

	h.metrics.RecordLogout(constants.LoginType(req.LoginType), ok)
	sendSuccess(c, http.StatusOK, &dto.LogoutResponse{Success: ok})
}

// AutoLogin handles POST /api/v1/auth/auto-login.
func (h *AuthHandler) AutoLogin(c *gin.Context) {
	start := time.Now()
	var req dto.AutoLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid auto login request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	result := h.orchestrator.AutoLogin(c.Request.Context(), req.HistoryID)
	h.metrics.RecordLogin(result.LoginType, result.OrgType, result.Success, time.Since(start))

	sendSuccess(c, http.StatusOK, dto.LoginResponseFromResult(result))
}

// CurrentLoginResult handles GET /api/v1/auth/current. An optional org_type
// query selects the per-environment slot. An empty slot yields a null payload.
func (h *AuthHandler) CurrentLoginResult(c *gin.Context) {
	ctx := c.Request.Context()

	var result *dto.LoginResponse
	if orgType := c.Query("org_type"); orgType != "" {
		r, err := h.orchestrator.GetCurrentLoginResultByOrgType(ctx, constants.OrgEnvironment(orgType))
		if err != nil {
			sendError(c, err)
			return
		}
		h.metrics.RecordCacheLookup(r != nil)
		if r != nil {
			result = dto.LoginResponseFromResult(r)
		}
	} else {
		r, err := h.orchestrator.GetCurrentLoginResult(ctx)
		if err != nil {
			sendError(c, err)
			return
		}
		h.metrics.RecordCacheLookup(r != nil)
		if r != nil {
			result = dto.LoginResponseFromResult(r)
		}
	}

	sendSuccess(c, http.StatusOK, result)
}

// CurrentLoginInfo handles GET /api/v1/auth/current/session.
func (h *AuthHandler) CurrentLoginInfo(c *gin.Context) {
	session, err := h.orchestrator.GetCurrentLoginInfo(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, session)
}

// AuthorizeURL handles POST /api/v1/auth/authorize-url.
func (h *AuthHandler) AuthorizeURL(c *gin.Context) {
	var req dto.AuthorizeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.Validation(constants.ErrCodeInvalidRequest, "invalid authorize url request body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		sendError(c, err)
		return
	}

	url, state, err := h.orchestrator.GenerateAuthorizationURL(c.Request.Context(),
		constants.OrgEnvironment(req.OrgType), req.UsePKCE)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, &dto.AuthorizeURLResponse{
		AuthorizeURL: url,
		State:        state,
	})
}
