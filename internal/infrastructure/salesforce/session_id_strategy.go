package salesforce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// SessionIdStrategy treats an externally obtained session or access token as
// pre-authenticated and validates it against the Identity API.
type SessionIdStrategy struct {
	cfg ConfigProvider
	log logger.Logger
}

var _ service.LoginStrategy = (*SessionIdStrategy)(nil)

// NewSessionIdStrategy creates the session-id validation strategy.
func NewSessionIdStrategy(cfg ConfigProvider, log logger.Logger) *SessionIdStrategy {
	return &SessionIdStrategy{
		cfg: cfg,
		log: log.WithComponent("session_id_strategy"),
	}
}

// LoginType returns the registry key of this strategy.
func (s *SessionIdStrategy) LoginType() constants.LoginType {
	return constants.LoginTypeSessionID
}

// identityResponse is the JSON body of the Identity API.
type identityResponse struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	InstanceURL    string `json:"instance_url"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Locale         string `json:"locale"`
	ZoneInfo       string `json:"zoneinfo"`
}

// Login validates the supplied session id with a Bearer call to the
// Identity API and maps the reported identity into the result.
func (s *SessionIdStrategy) Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult {
	sessionID := strings.TrimSpace(request.SessionID)
	if sessionID == "" {
		return models.NewFailedResult(constants.ErrCodeSessionIDEmpty, "session id is required")
	}

	cfg := s.cfg()
	base, authErr := resolveBase(cfg, request.OrgType)
	if authErr != nil {
		return models.FailedResultFromError(authErr)
	}

	endpoint := base + constants.IdentityAPIPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.NewFailedResult(constants.ErrCodeSystemError, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := newHTTPClient(cfg).Do(req)
	if err != nil {
		s.log.Error(ctx, "Identity endpoint unreachable", err, logger.String("endpoint", endpoint))
		return models.NewFailedResult(constants.ErrCodeSystemError, "identity endpoint unreachable: "+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewFailedResult(constants.ErrCodeSystemError, "failed to read identity response: "+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn(ctx, "Session id rejected by identity endpoint", logger.Int("status", resp.StatusCode))
		return models.NewFailedResult(constants.ErrCodeInvalidSessionID, "invalid session id: "+strings.TrimSpace(string(body)))
	}

	var identity identityResponse
	if err := json.Unmarshal(body, &identity); err != nil {
		return models.NewFailedResult(constants.ErrCodeSystemError, "failed to decode identity response: "+err.Error())
	}

	result := &models.LoginResult{
		Success:        true,
		LoginType:      constants.LoginTypeSessionID,
		OrgType:        request.OrgType,
		SessionID:      sessionID,
		AccessToken:    sessionID,
		InstanceURL:    truncateInstanceURL(identity.InstanceURL),
		UserID:         identity.UserID,
		OrganizationID: identity.OrganizationID,
		TokenType:      "Bearer",
		ExpiresIn:      int64(cfg.SessionTimeout().Seconds()),
		Sandbox:        sandboxFromBase(base),
		UserFullName:   identity.Name,
		UserEmail:      identity.Email,
		Language:       identity.Locale,
		TimeZone:       identity.ZoneInfo,
	}

	s.log.Info(ctx, "Session id validated", logger.String("user_id", result.UserID))
	return result
}

// RefreshToken always fails: an externally supplied session has no refresh
// token behind it.
func (s *SessionIdStrategy) RefreshToken(ctx context.Context, refreshToken string, orgType constants.OrgEnvironment) *models.LoginResult {
	return models.NewFailedResult(constants.ErrCodeRefreshNotSupported, "session id login does not support token refresh")
}

// Logout revokes the session through the OAuth revoke endpoint.
func (s *SessionIdStrategy) Logout(ctx context.Context, sessionOrToken string, orgType constants.OrgEnvironment) (bool, error) {
	cfg := s.cfg()
	base, authErr := resolveBase(cfg, orgType)
	if authErr != nil {
		return false, authErr
	}

	form := url.Values{}
	form.Set("token", sessionOrToken)

	endpoint := base + constants.OAuthRevokePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, errors.System("failed to build revoke request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := newHTTPClient(cfg).Do(req)
	if err != nil {
		return false, errors.System("revoke endpoint unreachable").WithCause(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
