// Package service provides the application services that orchestrate the login
// strategies, session/history persistence, and the token lifecycle.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	domainService "github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
	"github.com/turtacn/sfauth/pkg/utils"
)

// AuthOrchestrator is the login/logout/autoLogin entry point. It resolves a
// strategy, delegates the wire exchange, then records the attempt: session
// row, history row, result cache slot, token registration, and audit event.
// All side effects after the strategy returns are best-effort and never
// change the LoginResult already computed.
type AuthOrchestrator interface {
	// Login authenticates one request through the strategy it names.
	Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult

	// Logout clears the convenience cache, best-effort-invokes the strategy's
	// logout, and flips the matching session to inactive.
	Logout(ctx context.Context, sessionID string, loginType constants.LoginType, orgType constants.OrgEnvironment) (bool, error)

	// AutoLogin replays a previously recorded successful attempt by
	// decrypting the credentials stored on its history row.
	AutoLogin(ctx context.Context, historyID string) *models.LoginResult

	// GetCurrentLoginResult returns the shared convenience slot, nil when empty.
	GetCurrentLoginResult(ctx context.Context) (*models.LoginResult, error)

	// GetCurrentLoginResultByOrgType returns the per-environment slot.
	GetCurrentLoginResultByOrgType(ctx context.Context, orgType constants.OrgEnvironment) (*models.LoginResult, error)

	// GetCurrentLoginInfo loads the session behind the current result,
	// applying the lazy expiry flip. Nil when no usable current login exists.
	GetCurrentLoginInfo(ctx context.Context) (*models.LoginSession, error)

	// GenerateAuthorizationURL builds the OAuth2 redirect URL for the
	// authorization-code flow.
	GenerateAuthorizationURL(ctx context.Context, orgType constants.OrgEnvironment, usePKCE bool) (string, string, error)
}

type authOrchestrator struct {
	registry     *domainService.StrategyRegistry
	sessions     repository.SessionRepository
	histories    repository.HistoryRepository
	resultCache  domainService.ResultCache
	encryptor    domainService.Encryptor
	audit        domainService.AuditPublisher
	tokenManager domainService.TokenManager
	authorizeURL domainService.AuthorizeURLProvider
	log          logger.Logger
}

var _ AuthOrchestrator = (*authOrchestrator)(nil)

// NewAuthOrchestrator wires the orchestrator over its collaborators.
func NewAuthOrchestrator(
	registry *domainService.StrategyRegistry,
	sessions repository.SessionRepository,
	histories repository.HistoryRepository,
	resultCache domainService.ResultCache,
	encryptor domainService.Encryptor,
	audit domainService.AuditPublisher,
	tokenManager domainService.TokenManager,
	authorizeURL domainService.AuthorizeURLProvider,
	log logger.Logger,
) AuthOrchestrator {
	return &authOrchestrator{
		registry:     registry,
		sessions:     sessions,
		histories:    histories,
		resultCache:  resultCache,
		encryptor:    encryptor,
		audit:        audit,
		tokenManager: tokenManager,
		authorizeURL: authorizeURL,
		log:          log.WithComponent("auth_orchestrator"),
	}
}

func (s *authOrchestrator) Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult {
	if request == nil {
		return models.NewFailedResult(constants.ErrCodeInvalidRequest, "login request is required")
	}

	ctx = ensureCorrelationID(ctx)
	requestTime := time.Now().UTC()
	history := models.NewLoginHistory(request, requestTime)
	s.fillClientMetadata(ctx, history)
	s.encryptCredentials(ctx, request, history)

	strategy, authErr := s.registry.Resolve(request.LoginType)
	if authErr != nil {
		s.log.Warn(ctx, "Login strategy resolution failed",
			logger.String("login_type", string(request.LoginType)),
			logger.String("error_code", string(authErr.Code())),
		)
		result := models.FailedResultFromError(authErr)
		s.recordAttempt(ctx, history, result)
		return result
	}

	s.log.Info(ctx, "Login attempt started",
		logger.String("login_type", string(request.LoginType)),
		logger.String("org_type", string(request.OrgType)),
		logger.String("username", request.Username),
	)

	result := strategy.Login(ctx, request)
	if result == nil {
		result = models.NewFailedResult(constants.ErrCodeSystemError, "strategy returned no result")
	}

	if result.Success {
		s.recordSuccess(ctx, request, result, history)
	} else {
		s.log.Warn(ctx, "Login attempt failed",
			logger.String("login_type", string(request.LoginType)),
			logger.String("error_code", result.ErrorCode),
			logger.String("error_message", result.ErrorMessage),
		)
	}

	s.recordAttempt(ctx, history, result)
	return result
}

func (s *authOrchestrator) Logout(ctx context.Context, sessionID string, loginType constants.LoginType, orgType constants.OrgEnvironment) (bool, error) {
	if sessionID == "" {
		return false, errors.Validation(constants.ErrCodeSessionIDEmpty, "session id is required")
	}

	ctx = ensureCorrelationID(ctx)

	if err := s.resultCache.ClearCurrent(ctx, orgType); err != nil {
		s.log.Warn(ctx, "Failed to clear current login result", logger.Err(err))
	}

	if strategy, authErr := s.registry.Resolve(loginType); authErr == nil {
		if ok, err := strategy.Logout(ctx, sessionID, orgType); err != nil {
			s.log.Warn(ctx, "Remote logout failed",
				logger.String("login_type", string(loginType)),
				logger.Err(err),
			)
		} else if !ok {
			s.log.Warn(ctx, "Remote logout reported failure",
				logger.String("login_type", string(loginType)),
			)
		}
	} else {
		s.log.Warn(ctx, "Logout with unresolvable login type",
			logger.String("login_type", string(loginType)),
		)
	}

	session, err := s.sessions.FindBySessionID(ctx, sessionID)
	if err != nil {
		s.log.Error(ctx, "Failed to load session for logout", err)
		return true, nil
	}
	if session != nil {
		session.MarkInactive(time.Now().UTC())
		if err := s.sessions.Update(ctx, session); err != nil {
			s.log.Error(ctx, "Failed to mark session inactive", err,
				logger.String("session_id", sessionID),
			)
		}
	}

	s.log.Info(ctx, "Logout completed", logger.String("login_type", string(loginType)))
	return true, nil
}

func (s *authOrchestrator) AutoLogin(ctx context.Context, historyID string) *models.LoginResult {
	if historyID == "" {
		return models.NewFailedResult(constants.ErrCodeHistoryIDEmpty, "history id is required")
	}

	ctx = ensureCorrelationID(ctx)

	history, err := s.histories.FindByID(ctx, historyID)
	if err != nil {
		s.log.Error(ctx, "Failed to load login history", err,
			logger.String("history_id", historyID),
		)
		return models.FailedResultFromError(err)
	}
	if history == nil {
		return models.NewFailedResult(constants.ErrCodeHistoryNotFound, "login history not found: "+historyID)
	}
	if !history.Succeeded() {
		return models.NewFailedResult(constants.ErrCodeHistoryStatusInvalid,
			"login history did not record a successful attempt")
	}

	request, err := s.rebuildRequest(history)
	if err != nil {
		s.log.Error(ctx, "Failed to rebuild login request from history", err,
			logger.String("history_id", historyID),
		)
		return models.FailedResultFromError(err)
	}

	s.log.Info(ctx, "Replaying login from history",
		logger.String("history_id", historyID),
		logger.String("login_type", string(request.LoginType)),
	)
	return s.Login(ctx, request)
}

func (s *authOrchestrator) GetCurrentLoginResult(ctx context.Context) (*models.LoginResult, error) {
	return s.resultCache.Current(ctx)
}

func (s *authOrchestrator) GetCurrentLoginResultByOrgType(ctx context.Context, orgType constants.OrgEnvironment) (*models.LoginResult, error) {
	return s.resultCache.CurrentByOrgType(ctx, orgType)
}

func (s *authOrchestrator) GetCurrentLoginInfo(ctx context.Context) (*models.LoginSession, error) {
	result, err := s.resultCache.Current(ctx)
	if err != nil {
		return nil, err
	}
	if result == nil || result.SessionID == "" {
		return nil, nil
	}

	session, err := s.sessions.FindBySessionID(ctx, result.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	if session.Status == constants.SessionStatusActive && session.IsExpiredAt(now) {
		// Lazy expiration, the stored status catches up on read.
		session.MarkExpired(now)
		if err := s.sessions.Update(ctx, session); err != nil {
			s.log.Warn(ctx, "Failed to persist session expiry",
				logger.String("session_id", session.SessionID),
				logger.Err(err),
			)
		}
		return session, nil
	}

	if session.IsUsable(now) {
		session.Touch(now)
		if err := s.sessions.Update(ctx, session); err != nil {
			s.log.Warn(ctx, "Failed to refresh session activity",
				logger.String("session_id", session.SessionID),
				logger.Err(err),
			)
		}
	}
	return session, nil
}

func (s *authOrchestrator) GenerateAuthorizationURL(ctx context.Context, orgType constants.OrgEnvironment, usePKCE bool) (string, string, error) {
	return s.authorizeURL.GenerateAuthorizationURL(ctx, orgType, usePKCE)
}

// recordSuccess persists the session, updates the convenience cache, and
// registers the access token. Each step logs its own failure and moves on.
func (s *authOrchestrator) recordSuccess(ctx context.Context, request *models.LoginRequest, result *models.LoginResult, history *models.LoginHistory) {
	session := models.NewLoginSession(result, request.Username,
		history.LoginIP, deviceInfo(history), history.Browser)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.log.Error(ctx, "Failed to persist login session", err,
			logger.String("session_id", logger.MaskString(session.SessionID)),
		)
	}

	if err := s.resultCache.SetCurrent(ctx, result); err != nil {
		s.log.Warn(ctx, "Failed to cache login result", logger.Err(err))
	}

	if result.AccessToken != "" {
		expiresIn := result.ExpiresIn
		if expiresIn <= 0 {
			expiresIn = constants.DefaultSessionTimeoutSeconds
		}
		expireAt := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
		if _, err := s.tokenManager.RegisterToken(ctx, result.AccessToken, expireAt); err != nil {
			s.log.Warn(ctx, "Failed to register access token", logger.Err(err))
		}
	}

	s.log.Info(ctx, "Login attempt succeeded",
		logger.String("login_type", string(result.LoginType)),
		logger.String("org_type", string(result.OrgType)),
		logger.String("user_id", result.UserID),
		logger.String("organization_id", result.OrganizationID),
	)
}

// recordAttempt completes the history row, persists it, and publishes the
// audit event. Best-effort on every step.
func (s *authOrchestrator) recordAttempt(ctx context.Context, history *models.LoginHistory, result *models.LoginResult) {
	history.Complete(result, time.Now().UTC())

	if result.Success && result.RefreshToken != "" {
		encrypted, err := s.encryptor.Encrypt(result.RefreshToken)
		if err != nil {
			s.log.Warn(ctx, "Failed to encrypt refresh token for history", logger.Err(err))
			encrypted = ""
		}
		history.EncryptedRefreshToken = encrypted
	}

	if err := s.histories.Save(ctx, history); err != nil {
		s.log.Error(ctx, "Failed to persist login history", err,
			logger.String("history_id", history.HistoryID),
		)
	}
	if err := s.audit.PublishLoginAttempt(ctx, history); err != nil {
		s.log.Warn(ctx, "Failed to publish audit event",
			logger.String("history_id", history.HistoryID),
			logger.Err(err),
		)
	}
}

func (s *authOrchestrator) fillClientMetadata(ctx context.Context, history *models.LoginHistory) {
	if ip, ok := ctx.Value(constants.ContextKeyClientIP).(string); ok {
		history.LoginIP = ip
	}
	if port, ok := ctx.Value(constants.ContextKeyClientPort).(string); ok {
		history.LoginPort = port
	}
	if operator, ok := ctx.Value(constants.ContextKeyOperator).(string); ok {
		history.Operator = operator
	}
	if userAgent, ok := ctx.Value(constants.ContextKeyUserAgent).(string); ok && userAgent != "" {
		history.UserAgent = userAgent
		info := utils.ParseUserAgent(userAgent)
		history.DeviceType = info.DeviceType
		history.Browser = info.Browser
		history.OS = info.OS
	}
}

// encryptCredentials protects the request secrets before they reach the
// history row. A failed encryption leaves the field empty rather than storing
// plaintext.
func (s *authOrchestrator) encryptCredentials(ctx context.Context, request *models.LoginRequest, history *models.LoginHistory) {
	var err error
	if history.EncryptedPassword, err = s.encryptor.Encrypt(request.Password); err != nil {
		s.log.Warn(ctx, "Failed to encrypt password for history", logger.Err(err))
		history.EncryptedPassword = ""
	}
	if history.EncryptedSecurityToken, err = s.encryptor.Encrypt(request.SecurityToken); err != nil {
		s.log.Warn(ctx, "Failed to encrypt security token for history", logger.Err(err))
		history.EncryptedSecurityToken = ""
	}
	if history.EncryptedClientSecret, err = s.encryptor.Encrypt(request.ClientSecret); err != nil {
		s.log.Warn(ctx, "Failed to encrypt client secret for history", logger.Err(err))
		history.EncryptedClientSecret = ""
	}
	if history.EncryptedSessionID, err = s.encryptor.Encrypt(request.SessionID); err != nil {
		s.log.Warn(ctx, "Failed to encrypt session id for history", logger.Err(err))
		history.EncryptedSessionID = ""
	}
}

// rebuildRequest reverses encryptCredentials for replay via auto login.
func (s *authOrchestrator) rebuildRequest(history *models.LoginHistory) (*models.LoginRequest, error) {
	password, err := s.encryptor.Decrypt(history.EncryptedPassword)
	if err != nil {
		return nil, errors.System("failed to decrypt stored password").WithCause(err)
	}
	securityToken, err := s.encryptor.Decrypt(history.EncryptedSecurityToken)
	if err != nil {
		return nil, errors.System("failed to decrypt stored security token").WithCause(err)
	}
	clientSecret, err := s.encryptor.Decrypt(history.EncryptedClientSecret)
	if err != nil {
		return nil, errors.System("failed to decrypt stored client secret").WithCause(err)
	}
	sessionID, err := s.encryptor.Decrypt(history.EncryptedSessionID)
	if err != nil {
		return nil, errors.System("failed to decrypt stored session id").WithCause(err)
	}

	return &models.LoginRequest{
		LoginType:     history.LoginType,
		OrgType:       history.OrgType,
		Username:      history.Username,
		Password:      password,
		SecurityToken: securityToken,
		ClientID:      history.ClientID,
		ClientSecret:  clientSecret,
		GrantType:     history.GrantType,
		OrgAlias:      history.OrgAlias,
		SessionID:     sessionID,
	}, nil
}

func deviceInfo(history *models.LoginHistory) string {
	if history.DeviceType == "" {
		return history.OS
	}
	if history.OS == "" {
		return history.DeviceType
	}
	return history.DeviceType + "/" + history.OS
}

// ensureCorrelationID tags the context with a request-scoped identifier when
// the transport layer has not already done so.
func ensureCorrelationID(ctx context.Context) context.Context {
	if id, ok := ctx.Value(constants.ContextKeyCorrelationID).(string); ok && id != "" {
		return ctx
	}
	return context.WithValue(ctx, constants.ContextKeyCorrelationID, uuid.NewString())
}
