package models

import (
	"github.com/turtacn/sfauth/pkg/constants"
	autherrors "github.com/turtacn/sfauth/pkg/errors"
)

// LoginResult is the immutable outcome of one authentication attempt. Exactly
// one of the success fields or the error fields is populated.
// LoginResult 是一次认证请求的不可变结果。
// 成功字段和错误字段二者只会填充其一。
type LoginResult struct {
	// Success reports whether the authentication attempt succeeded.
	Success bool `json:"success"`

	// LoginType records the strategy that produced this result.
	LoginType constants.LoginType `json:"login_type,omitempty"`

	// OrgType records the environment the attempt targeted.
	OrgType constants.OrgEnvironment `json:"org_type,omitempty"`

	// SessionID is the Salesforce session identifier. For OAuth2 logins it
	// carries the same value as AccessToken.
	SessionID string `json:"session_id,omitempty"`

	// AccessToken is the bearer token returned by the token endpoint.
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken is present only when the grant issued one.
	RefreshToken string `json:"refresh_token,omitempty"`

	// InstanceURL is the org's API base URL, truncated before any /services path.
	InstanceURL string `json:"instance_url,omitempty"`

	// MetadataServerURL is the metadata API endpoint reported by the SOAP login.
	MetadataServerURL string `json:"metadata_server_url,omitempty"`

	// UserID and OrganizationID identify the authenticated principal.
	UserID         string `json:"user_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`

	// TokenType is the token scheme, normally "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the token lifetime in seconds, 0 when the org reported none.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// Sandbox marks a non-production org.
	Sandbox bool `json:"sandbox,omitempty"`

	// PasswordExpired marks a login that succeeded with an expired password.
	PasswordExpired bool `json:"password_expired,omitempty"`

	// User profile details, populated when the protocol exposes them.
	UserFullName     string `json:"user_full_name,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	Language         string `json:"language,omitempty"`
	TimeZone         string `json:"time_zone,omitempty"`

	// ErrorCode and ErrorMessage describe a failed attempt.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewFailedResult builds a failure outcome with a stable code and message.
func NewFailedResult(code constants.ErrorCode, message string) *LoginResult {
	return &LoginResult{
		Success:      false,
		ErrorCode:    string(code),
		ErrorMessage: message,
	}
}

// FailedResultFromError converts a structured error into a failure outcome.
func FailedResultFromError(err error) *LoginResult {
	if err == nil {
		return NewFailedResult(constants.ErrCodeSystemError, "unknown error")
	}
	if ae, ok := autherrors.As(err); ok {
		return NewFailedResult(ae.Code(), ae.Message())
	}
	return NewFailedResult(constants.ErrCodeSystemError, err.Error())
}
