// Package dto carries the request and response shapes of the HTTP surface.
package dto

import (
	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/pkg/constants"
)

// LoginRequest 登录请求 DTO
type LoginRequest struct {
	LoginType     string `json:"login_type" validate:"required,oneof=oauth2 legacy_credential salesforce_cli session_id"`
	OrgType       string `json:"org_type" validate:"omitempty,oneof=production sandbox custom"`
	Username      string `json:"username" validate:"omitempty,max=255"`
	Password      string `json:"password" validate:"omitempty,max=255"`
	SecurityToken string `json:"security_token" validate:"omitempty,max=255"`
	ClientID      string `json:"client_id" validate:"omitempty,max=255"`
	ClientSecret  string `json:"client_secret" validate:"omitempty,max=255"`
	GrantType     string `json:"grant_type" validate:"omitempty,oneof=password client_credentials authorization_code refresh_token"`
	OrgAlias      string `json:"org_alias" validate:"omitempty,max=128"`
	Code          string `json:"code" validate:"omitempty"`
	State         string `json:"state" validate:"omitempty"`
	SessionID     string `json:"session_id" validate:"omitempty"`
}

// ToModel converts the DTO into the domain login request.
func (r *LoginRequest) ToModel() *models.LoginRequest {
	return &models.LoginRequest{
		LoginType:     constants.LoginType(r.LoginType),
		OrgType:       constants.OrgEnvironment(r.OrgType),
		Username:      r.Username,
		Password:      r.Password,
		SecurityToken: r.SecurityToken,
		ClientID:      r.ClientID,
		ClientSecret:  r.ClientSecret,
		GrantType:     constants.GrantType(r.GrantType),
		OrgAlias:      r.OrgAlias,
		Code:          r.Code,
		State:         r.State,
		SessionID:     r.SessionID,
	}
}

// LoginResponse 登录响应 DTO
type LoginResponse struct {
	Success          bool   `json:"success"`
	LoginType        string `json:"login_type,omitempty"`
	OrgType          string `json:"org_type,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
	AccessToken      string `json:"access_token,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	InstanceURL      string `json:"instance_url,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	OrganizationID   string `json:"organization_id,omitempty"`
	TokenType        string `json:"token_type,omitempty"`
	ExpiresIn        int64  `json:"expires_in,omitempty"`
	Sandbox          bool   `json:"sandbox,omitempty"`
	PasswordExpired  bool   `json:"password_expired,omitempty"`
	UserFullName     string `json:"user_full_name,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// LoginResponseFromResult maps a domain result onto the response DTO.
func LoginResponseFromResult(result *models.LoginResult) *LoginResponse {
	if result == nil {
		return &LoginResponse{Success: false}
	}
	return &LoginResponse{
		Success:          result.Success,
		LoginType:        string(result.LoginType),
		OrgType:          string(result.OrgType),
		SessionID:        result.SessionID,
		AccessToken:      result.AccessToken,
		RefreshToken:     result.RefreshToken,
		InstanceURL:      result.InstanceURL,
		UserID:           result.UserID,
		OrganizationID:   result.OrganizationID,
		TokenType:        result.TokenType,
		ExpiresIn:        result.ExpiresIn,
		Sandbox:          result.Sandbox,
		PasswordExpired:  result.PasswordExpired,
		UserFullName:     result.UserFullName,
		UserEmail:        result.UserEmail,
		OrganizationName: result.OrganizationName,
		ErrorCode:        result.ErrorCode,
		ErrorMessage:     result.ErrorMessage,
	}
}

// LogoutRequest 登出请求 DTO
type LogoutRequest struct {
	SessionID string `json:"session_id" validate:"required,min=1"`
	LoginType string `json:"login_type" validate:"required,oneof=oauth2 legacy_credential salesforce_cli session_id"`
	OrgType   string `json:"org_type" validate:"omitempty,oneof=production sandbox custom"`
}

// LogoutResponse 登出响应 DTO
type LogoutResponse struct {
	Success bool `json:"success"`
}

// AutoLoginRequest replays a previously recorded successful login.
type AutoLoginRequest struct {
	HistoryID string `json:"history_id" validate:"required,uuid4"`
}

// AuthorizeURLRequest 授权地址请求 DTO
type AuthorizeURLRequest struct {
	OrgType string `json:"org_type" validate:"omitempty,oneof=production sandbox custom"`
	UsePKCE bool   `json:"use_pkce"`
}

// AuthorizeURLResponse 授权地址响应 DTO
type AuthorizeURLResponse struct {
	AuthorizeURL string `json:"authorize_url"`
	State        string `json:"state"`
}
