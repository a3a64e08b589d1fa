package salesforce

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// LegacySoapStrategy authenticates through the SOAP partner API with
// username, password, and security token. It exists for orgs that predate
// OAuth connected apps.
type LegacySoapStrategy struct {
	cfg ConfigProvider
	log logger.Logger
}

var _ service.LoginStrategy = (*LegacySoapStrategy)(nil)

// NewLegacySoapStrategy creates the legacy credential login strategy.
func NewLegacySoapStrategy(cfg ConfigProvider, log logger.Logger) *LegacySoapStrategy {
	return &LegacySoapStrategy{
		cfg: cfg,
		log: log.WithComponent("legacy_soap_strategy"),
	}
}

// LoginType returns the registry key of this strategy.
func (s *LegacySoapStrategy) LoginType() constants.LoginType {
	return constants.LoginTypeLegacyCredential
}

// Login performs the SOAP partner login call.
func (s *LegacySoapStrategy) Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult {
	if strings.TrimSpace(request.Username) == "" {
		return models.NewFailedResult(constants.ErrCodeMissingUsername, "username is required")
	}
	if strings.TrimSpace(request.Password) == "" {
		return models.NewFailedResult(constants.ErrCodeMissingPassword, "password is required")
	}

	cfg := s.cfg()
	endpoint, authErr := s.soapEndpoint(cfg, request.OrgType)
	if authErr != nil {
		return models.FailedResultFromError(authErr)
	}

	envelope := buildLoginEnvelope(request.Username, request.Password, request.SecurityToken)
	body, fault, err := s.post(ctx, cfg, endpoint, envelope)
	if err != nil {
		s.log.Error(ctx, "SOAP login transport failure", err, logger.String("endpoint", endpoint))
		return models.NewFailedResult(constants.ErrCodeSystemError, err.Error())
	}
	if fault != nil {
		s.log.Warn(ctx, "SOAP login fault",
			logger.String("fault_code", fault.Code),
			logger.String("endpoint", endpoint),
		)
		return models.NewFailedResult(constants.ErrorCode(fault.Code), fault.Message)
	}

	result, err := parseLoginResponse(body)
	if err != nil {
		s.log.Error(ctx, "SOAP login response unparseable", err, logger.String("endpoint", endpoint))
		return models.NewFailedResult(constants.ErrCodeLegacyLoginFailed, err.Error())
	}

	result.LoginType = constants.LoginTypeLegacyCredential
	result.OrgType = request.OrgType
	if result.TokenType == "" {
		result.TokenType = "Bearer"
	}
	if result.ExpiresIn <= 0 {
		result.ExpiresIn = int64(cfg.SessionTimeout().Seconds())
	}

	s.log.Info(ctx, "SOAP login succeeded",
		logger.String("username", request.Username),
		logger.String("instance_url", result.InstanceURL),
	)
	return result
}

// RefreshToken always fails: the partner login has no refresh concept, a new
// login is required instead.
func (s *LegacySoapStrategy) RefreshToken(ctx context.Context, refreshToken string, orgType constants.OrgEnvironment) *models.LoginResult {
	return models.NewFailedResult(constants.ErrCodeRefreshNotSupported, "legacy credential login does not support token refresh")
}

// Logout sends the SOAP logout call with the session in a SessionHeader.
// A response without a Fault means the session is gone.
func (s *LegacySoapStrategy) Logout(ctx context.Context, sessionOrToken string, orgType constants.OrgEnvironment) (bool, error) {
	cfg := s.cfg()
	endpoint, authErr := s.soapEndpoint(cfg, orgType)
	if authErr != nil {
		return false, authErr
	}

	envelope := buildLogoutEnvelope(sessionOrToken)
	_, fault, err := s.post(ctx, cfg, endpoint, envelope)
	if err != nil {
		return false, errors.System("SOAP logout transport failure").WithCause(err)
	}
	if fault != nil {
		s.log.Warn(ctx, "SOAP logout fault", logger.String("fault_code", fault.Code))
		return false, nil
	}

	return true, nil
}

// soapEndpoint resolves the partner API URL for an environment, appending
// /services/Soap/u/{apiVersion} unless the base already carries a Soap path.
func (s *LegacySoapStrategy) soapEndpoint(cfg config.SalesforceConfig, orgType constants.OrgEnvironment) (string, *errors.AuthError) {
	base, authErr := resolveBase(cfg, orgType)
	if authErr != nil {
		return "", authErr
	}

	if strings.Contains(base, "/services/Soap") {
		return base, nil
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = constants.DefaultAPIVersion
	}
	return base + constants.SoapPartnerPath + apiVersion, nil
}

// post sends one SOAP envelope and splits the response into a payload or a
// fault. The transport error return covers unreachable endpoints only; a
// non-2xx status is reported as a fault.
func (s *LegacySoapStrategy) post(ctx context.Context, cfg config.SalesforceConfig, endpoint, envelope string) ([]byte, *soapFault, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(envelope))
	if err != nil {
		return nil, nil, err
	}
	// The partner API requires SOAPAction to be an empty quoted string.
	req.Header.Set("SOAPAction", `""`)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Accept", "text/xml")

	resp, err := newHTTPClient(cfg).Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fault := parseFault(body)
		if fault == nil {
			fault = &soapFault{
				Code:    string(constants.ErrCodeUnknownSoapError),
				Message: FaultMessage("", strings.TrimSpace(string(body))),
			}
		}
		return nil, fault, nil
	}

	// Some faults arrive with a 2xx status; check the body either way.
	if fault := parseFault(body); fault != nil {
		return nil, fault, nil
	}

	return body, nil, nil
}
