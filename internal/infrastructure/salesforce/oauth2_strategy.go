package salesforce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
	"github.com/turtacn/sfauth/pkg/utils"
)

// OAuth2Strategy authenticates through the OAuth2 token endpoint. It supports
// the password, client_credentials, and authorization_code grants, the latter
// with optional PKCE, plus refresh_token for renewal.
type OAuth2Strategy struct {
	cfg    ConfigProvider
	states service.StateCache
	log    logger.Logger
}

var _ service.LoginStrategy = (*OAuth2Strategy)(nil)

// NewOAuth2Strategy creates the OAuth2 login strategy.
func NewOAuth2Strategy(cfg ConfigProvider, states service.StateCache, log logger.Logger) *OAuth2Strategy {
	return &OAuth2Strategy{
		cfg:    cfg,
		states: states,
		log:    log.WithComponent("oauth2_strategy"),
	}
}

// LoginType returns the registry key of this strategy.
func (s *OAuth2Strategy) LoginType() constants.LoginType {
	return constants.LoginTypeOAuth2
}

// tokenResponse is the JSON body of the token endpoint.
type tokenResponse struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	TokenType      string `json:"token_type"`
	ExpiresIn      int64  `json:"expires_in"`
	InstanceURL    string `json:"instance_url"`
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	IDToken        string `json:"id_token"`
}

// tokenError is the JSON body of a failed token exchange.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Login performs the token exchange for the request's grant type.
func (s *OAuth2Strategy) Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult {
	cfg := s.cfg()

	form, authErr := s.buildForm(ctx, request, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	if authErr != nil {
		return models.FailedResultFromError(authErr)
	}

	base, authErr := resolveBase(cfg, request.OrgType)
	if authErr != nil {
		return models.FailedResultFromError(authErr)
	}

	result := s.exchange(ctx, base, form, constants.ErrCodeOAuth2LoginFailed)
	if result.Success {
		result.LoginType = constants.LoginTypeOAuth2
		result.OrgType = request.OrgType
		result.Sandbox = result.Sandbox || sandboxFromBase(base)
	}
	return result
}

// buildForm validates the request and assembles the token endpoint form for
// its grant type.
func (s *OAuth2Strategy) buildForm(ctx context.Context, request *models.LoginRequest, clientID, clientSecret, redirectURI string) (url.Values, *errors.AuthError) {
	clientID = request.EffectiveClientID(clientID)
	clientSecret = request.EffectiveClientSecret(clientSecret)
	if clientID == "" {
		return nil, errors.Configuration(constants.ErrCodeClientNotConfigured, "no OAuth client id configured")
	}

	form := url.Values{}
	form.Set("client_id", clientID)

	switch request.GrantType {
	case constants.GrantTypePassword:
		if request.Username == "" {
			return nil, errors.Validation(constants.ErrCodeMissingUsername, "username is required for the password grant")
		}
		if request.Password == "" {
			return nil, errors.Validation(constants.ErrCodeMissingPassword, "password is required for the password grant")
		}
		form.Set("grant_type", string(constants.GrantTypePassword))
		form.Set("client_secret", clientSecret)
		form.Set("username", request.Username)
		// The security token rides appended to the password when present.
		form.Set("password", request.Password+request.SecurityToken)

	case constants.GrantTypeClientCredentials:
		if clientSecret == "" {
			return nil, errors.Configuration(constants.ErrCodeClientNotConfigured, "no OAuth client secret configured")
		}
		form.Set("grant_type", string(constants.GrantTypeClientCredentials))
		form.Set("client_secret", clientSecret)

	case constants.GrantTypeAuthorizationCode:
		if request.Code == "" {
			return nil, errors.Validation(constants.ErrCodeMissingCode, "authorization code is required")
		}
		if request.State == "" {
			return nil, errors.Validation(constants.ErrCodeMissingState, "state is required")
		}

		codeVerifier, err := s.states.Consume(ctx, request.State)
		if err != nil {
			return nil, errors.Wrap(err)
		}

		form.Set("grant_type", string(constants.GrantTypeAuthorizationCode))
		form.Set("client_secret", clientSecret)
		form.Set("code", request.Code)
		form.Set("redirect_uri", redirectURI)
		if codeVerifier != "" {
			form.Set("code_verifier", codeVerifier)
		}

	default:
		return nil, errors.Validation(constants.ErrCodeUnsupportedGrantType, "unsupported grant type: %s", request.GrantType)
	}

	return form, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (s *OAuth2Strategy) RefreshToken(ctx context.Context, refreshToken string, orgType constants.OrgEnvironment) *models.LoginResult {
	cfg := s.cfg()

	if refreshToken == "" {
		return models.NewFailedResult(constants.ErrCodeOAuth2RefreshFailed, "refresh token is required")
	}
	if cfg.ClientID == "" {
		return models.NewFailedResult(constants.ErrCodeClientNotConfigured, "no OAuth client id configured")
	}

	base, authErr := resolveBase(cfg, orgType)
	if authErr != nil {
		return models.FailedResultFromError(authErr)
	}

	form := url.Values{}
	form.Set("grant_type", string(constants.GrantTypeRefreshToken))
	form.Set("client_id", cfg.ClientID)
	form.Set("client_secret", cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)

	result := s.exchange(ctx, base, form, constants.ErrCodeOAuth2RefreshFailed)
	if result.Success {
		result.LoginType = constants.LoginTypeOAuth2
		result.OrgType = orgType
		// The refresh response omits the refresh token; the caller keeps the old one.
		if result.RefreshToken == "" {
			result.RefreshToken = refreshToken
		}
	}
	return result
}

// exchange POSTs the form to the token endpoint and maps the response.
func (s *OAuth2Strategy) exchange(ctx context.Context, base string, form url.Values, failureCode constants.ErrorCode) *models.LoginResult {
	endpoint := base + constants.OAuthTokenPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.NewFailedResult(constants.ErrCodeSystemError, err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := newHTTPClient(s.cfg()).Do(req)
	if err != nil {
		s.log.Error(ctx, "Token endpoint unreachable", err, logger.String("endpoint", endpoint))
		return models.NewFailedResult(constants.ErrCodeSystemError, "token endpoint unreachable: "+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewFailedResult(constants.ErrCodeSystemError, "failed to read token response: "+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var te tokenError
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &te) == nil && te.Error != "" {
			message = te.Error
			if te.ErrorDescription != "" {
				message = te.Error + ": " + te.ErrorDescription
			}
		}
		s.log.Warn(ctx, "Token exchange rejected",
			logger.Int("status", resp.StatusCode),
			logger.String("endpoint", endpoint),
		)
		return models.NewFailedResult(failureCode, message)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return models.NewFailedResult(constants.ErrCodeSystemError, "failed to decode token response: "+err.Error())
	}

	result := &models.LoginResult{
		Success:        true,
		SessionID:      tr.AccessToken,
		AccessToken:    tr.AccessToken,
		RefreshToken:   tr.RefreshToken,
		InstanceURL:    truncateInstanceURL(tr.InstanceURL),
		UserID:         extractUserID(tr.ID),
		OrganizationID: tr.OrganizationID,
		TokenType:      tr.TokenType,
		ExpiresIn:      tr.ExpiresIn,
	}
	if result.TokenType == "" {
		result.TokenType = "Bearer"
	}
	if result.ExpiresIn <= 0 {
		result.ExpiresIn = constants.DefaultSessionTimeoutSeconds
	}

	s.enrichFromIDToken(ctx, result, tr.IDToken)

	s.log.Info(ctx, "Token exchange succeeded",
		logger.String("instance_url", result.InstanceURL),
		logger.String("user_id", result.UserID),
	)
	return result
}

// enrichFromIDToken copies profile claims out of an OpenID Connect id_token
// when the org issued one. The signature is not verified; the token arrived
// directly from the org's token endpoint.
func (s *OAuth2Strategy) enrichFromIDToken(ctx context.Context, result *models.LoginResult, idToken string) {
	if idToken == "" {
		return
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		s.log.Debug(ctx, "Skipping undecodable id_token", logger.Err(err))
		return
	}

	if name, ok := claims["name"].(string); ok {
		result.UserFullName = name
	}
	if email, ok := claims["email"].(string); ok {
		result.UserEmail = email
	}
	if locale, ok := claims["locale"].(string); ok {
		result.Language = locale
	}
	if zone, ok := claims["zoneinfo"].(string); ok {
		result.TimeZone = zone
	}
}

// Logout revokes a token through the revoke endpoint.
func (s *OAuth2Strategy) Logout(ctx context.Context, sessionOrToken string, orgType constants.OrgEnvironment) (bool, error) {
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

// GenerateAuthorizationURL builds the redirect URL starting an
// authorization-code flow and stores its state. With PKCE enabled a code
// verifier is generated and kept alongside the state for the later exchange.
func (s *OAuth2Strategy) GenerateAuthorizationURL(ctx context.Context, orgType constants.OrgEnvironment, usePKCE bool) (string, string, error) {
	cfg := s.cfg()
	if cfg.ClientID == "" {
		return "", "", errors.Configuration(constants.ErrCodeClientNotConfigured, "no OAuth client id configured")
	}

	base, authErr := resolveBase(cfg, orgType)
	if authErr != nil {
		return "", "", authErr
	}

	state, err := utils.GenerateState()
	if err != nil {
		return "", "", errors.System("failed to generate state").WithCause(err)
	}

	codeVerifier := ""
	if usePKCE {
		codeVerifier, err = utils.GenerateCodeVerifier()
		if err != nil {
			return "", "", errors.System("failed to generate code verifier").WithCause(err)
		}
	}

	if err := s.states.Put(ctx, state, codeVerifier); err != nil {
		return "", "", err
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", cfg.ClientID)
	query.Set("redirect_uri", cfg.RedirectURI)
	query.Set("state", state)
	if usePKCE {
		query.Set("code_challenge", utils.CodeChallengeS256(codeVerifier))
		query.Set("code_challenge_method", "S256")
	}

	return base + constants.OAuthAuthorizePath + "?" + query.Encode(), state, nil
}
