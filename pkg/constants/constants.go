// Package constants defines shared constants for the sfauth service:
// login types, lifecycle statuses, error codes, cache names, and the
// well-known Salesforce endpoint paths.
package constants

import "time"

// ================================================================================
// Login Types
// ================================================================================

// LoginType identifies one authentication strategy.
type LoginType string

const (
	// LoginTypeOAuth2 authenticates through the OAuth 2.0 token endpoint.
	LoginTypeOAuth2 LoginType = "oauth2"

	// LoginTypeLegacyCredential authenticates through the SOAP partner login call.
	LoginTypeLegacyCredential LoginType = "legacy_credential"

	// LoginTypeCLI delegates to an already-authenticated Salesforce CLI org.
	LoginTypeCLI LoginType = "salesforce_cli"

	// LoginTypeSessionID treats an externally supplied session id as pre-authenticated.
	LoginTypeSessionID LoginType = "session_id"
)

// ================================================================================
// OAuth Grant Types
// ================================================================================

// GrantType identifies an OAuth2 grant.
type GrantType string

const (
	GrantTypePassword          GrantType = "password"
	GrantTypeClientCredentials GrantType = "client_credentials"
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
)

// ================================================================================
// Environments
// ================================================================================

// OrgEnvironment selects the remote org environment a request targets.
type OrgEnvironment string

const (
	OrgEnvironmentProduction OrgEnvironment = "production"
	OrgEnvironmentSandbox    OrgEnvironment = "sandbox"
	OrgEnvironmentCustom     OrgEnvironment = "custom"
)

// Well-known Salesforce host and API paths.
const (
	ProductionLoginHost = "https://login.salesforce.com"
	SandboxLoginHost    = "https://test.salesforce.com"

	OAuthTokenPath     = "/services/oauth2/token"
	OAuthAuthorizePath = "/services/oauth2/authorize"
	OAuthRevokePath    = "/services/oauth2/revoke"
	IdentityAPIPath    = "/services/oauth2/userinfo"
	SoapPartnerPath    = "/services/Soap/u/"

	// PartnerNamespace is the SOAP namespace of the partner login/logout calls.
	PartnerNamespace = "urn:partner.soap.sforce.com"

	DefaultAPIVersion = "65.0"
)

// ================================================================================
// Lifecycle Statuses
// ================================================================================

// SessionStatus is the lifecycle state of a LoginSession.
type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusInactive SessionStatus = "inactive"
	SessionStatusExpired  SessionStatus = "expired"
)

// TokenStatus is the lifecycle state of a Token.
type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "ACTIVE"
	TokenStatusExpired TokenStatus = "EXPIRED"
	TokenStatusRevoked TokenStatus = "REVOKED"
)

// BindingType constrains which attributes a token binding matches against.
type BindingType string

const (
	BindingTypeDevice   BindingType = "DEVICE"
	BindingTypeIP       BindingType = "IP"
	BindingTypeDeviceIP BindingType = "DEVICE_IP"
)

// BindingStatus mirrors TokenStatus for TokenBinding rows.
type BindingStatus string

const (
	BindingStatusActive  BindingStatus = "ACTIVE"
	BindingStatusRevoked BindingStatus = "REVOKED"
	BindingStatusExpired BindingStatus = "EXPIRED"
)

// LoginHistory outcome statuses.
const (
	LoginStatusSuccess = "success"
	LoginStatusFailed  = "failed"
)

// ================================================================================
// Error Codes
// ================================================================================

// ErrorCode is a stable machine-readable failure code surfaced in LoginResult.
type ErrorCode string

const (
	// Validation errors: missing or malformed input for the chosen strategy.
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeLoginTypeEmpty       ErrorCode = "LOGIN_TYPE_EMPTY"
	ErrCodeUnsupportedLoginType ErrorCode = "UNSUPPORTED_LOGIN_TYPE"
	ErrCodeMissingUsername      ErrorCode = "MISSING_USERNAME"
	ErrCodeMissingPassword      ErrorCode = "MISSING_PASSWORD"
	ErrCodeMissingCode          ErrorCode = "MISSING_CODE"
	ErrCodeMissingState         ErrorCode = "MISSING_STATE"
	ErrCodeSessionIDEmpty       ErrorCode = "SESSION_ID_EMPTY"
	ErrCodeUnsupportedGrantType ErrorCode = "UNSUPPORTED_GRANT_TYPE"
	ErrCodeHistoryIDEmpty       ErrorCode = "HISTORY_ID_EMPTY"

	// Configuration errors: client/environment configuration cannot be resolved.
	ErrCodeConfigNotFound        ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeClientNotConfigured   ErrorCode = "CLIENT_NOT_CONFIGURED"
	ErrCodeCustomEndpointMissing ErrorCode = "CUSTOM_ENDPOINT_MISSING"

	// State errors: CSRF/PKCE state problems on the authorization-code flow.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	ErrCodeExpiredState ErrorCode = "EXPIRED_STATE"

	// Protocol errors: the remote org rejected the exchange.
	ErrCodeOAuth2LoginFailed   ErrorCode = "OAUTH2_LOGIN_FAILED"
	ErrCodeOAuth2RefreshFailed ErrorCode = "OAUTH2_REFRESH_FAILED"
	ErrCodeLegacyLoginFailed   ErrorCode = "LEGACY_LOGIN_FAILED"
	ErrCodeUnknownSoapError    ErrorCode = "UNKNOWN_SOAP_ERROR"
	ErrCodeInvalidSessionID    ErrorCode = "INVALID_SESSION_ID"
	ErrCodeCLINotInstalled     ErrorCode = "CLI_NOT_INSTALLED"
	ErrCodeCLICommandFailed    ErrorCode = "CLI_COMMAND_FAILED"
	ErrCodeCLIParseError       ErrorCode = "CLI_PARSE_ERROR"
	ErrCodeCLILoginFailed      ErrorCode = "CLI_LOGIN_FAILED"
	ErrCodeCLIRefreshFailed    ErrorCode = "CLI_REFRESH_FAILED"
	ErrCodeRefreshNotSupported ErrorCode = "REFRESH_NOT_SUPPORTED"

	// Orchestrator errors.
	ErrCodeHistoryNotFound      ErrorCode = "HISTORY_NOT_FOUND"
	ErrCodeHistoryStatusInvalid ErrorCode = "HISTORY_STATUS_INVALID"
	ErrCodeSystemError          ErrorCode = "SYSTEM_ERROR"
)

// ================================================================================
// Cache Names and Keys
// ================================================================================

const (
	// AuthCacheName is the namespace of the convenience login-result cache.
	AuthCacheName = "salesforce_auth_cache"

	// CurrentResultKey is the single well-known slot holding the most recent
	// successful LoginResult. Last-writer-wins; not partitioned per caller.
	CurrentResultKey = "current_login_result"

	// CurrentResultOrgKeyPrefix prefixes the per-org-environment result slots.
	CurrentResultOrgKeyPrefix = "current_login_result:"

	// LoginResultKeyPrefix prefixes per-access-token cached login results.
	LoginResultKeyPrefix = "login_result:"
)

// Cache TTLs.
const (
	// StateTTL bounds the lifetime of a PKCE/CSRF state entry.
	StateTTL = 5 * time.Minute

	// LoginResultTTL bounds the convenience login-result cache entries.
	LoginResultTTL = 2 * time.Hour
)

// ================================================================================
// Timeouts and Defaults
// ================================================================================

const (
	// ConnectTimeout bounds outbound TCP connection establishment.
	ConnectTimeout = 10 * time.Second

	// ReadTimeout bounds a complete outbound HTTP exchange.
	ReadTimeout = 30 * time.Second

	// CLITimeout time-boxes external CLI process execution.
	CLITimeout = 60 * time.Second

	// DefaultSessionTimeoutSeconds is assumed when the remote org reports no expiry.
	DefaultSessionTimeoutSeconds = 7200
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type for values stored in a request context.
type ContextKey string

const (
	// ContextKeyCorrelationID carries the request-scoped correlation identifier.
	ContextKeyCorrelationID ContextKey = "correlation_id"

	// ContextKeyClientIP carries the caller's IP for session/history metadata.
	ContextKeyClientIP ContextKey = "client_ip"

	// ContextKeyClientPort carries the caller's source port for history rows.
	ContextKeyClientPort ContextKey = "client_port"

	// ContextKeyUserAgent carries the caller's User-Agent header.
	ContextKeyUserAgent ContextKey = "user_agent"

	// ContextKeyOperator carries the acting operator name for audit rows.
	ContextKeyOperator ContextKey = "operator"
)
