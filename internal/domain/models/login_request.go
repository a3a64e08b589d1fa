// Package models defines the domain models for the Salesforce authentication service.
// This file contains the LoginRequest value type carried into the login strategies.
package models

import "github.com/turtacn/sfauth/pkg/constants"

// LoginRequest carries the credentials and parameters of one authentication
// attempt. Which fields are required depends on LoginType and GrantType; each
// strategy validates its own inputs.
// LoginRequest 承载一次认证请求的凭证和参数。
// 哪些字段是必填的取决于 LoginType 和 GrantType，由各策略自行校验。
type LoginRequest struct {
	// LoginType selects the strategy: oauth2, legacy_credential, salesforce_cli, session_id.
	LoginType constants.LoginType `json:"login_type"`

	// OrgType selects the remote environment: production, sandbox, custom.
	OrgType constants.OrgEnvironment `json:"org_type,omitempty"`

	// Username and Password authenticate the user for the password grant and
	// the legacy SOAP login.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// SecurityToken is appended to the password for the legacy SOAP login.
	SecurityToken string `json:"security_token,omitempty"`

	// ClientID and ClientSecret override the configured connected-app
	// credentials when present.
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	// GrantType selects the OAuth2 grant: password, client_credentials,
	// authorization_code, refresh_token.
	GrantType constants.GrantType `json:"grant_type,omitempty"`

	// OrgAlias names the CLI org for the salesforce_cli strategy.
	OrgAlias string `json:"org_alias,omitempty"`

	// Code and State complete an authorization_code exchange.
	Code  string `json:"code,omitempty"`
	State string `json:"state,omitempty"`

	// SessionID is the externally supplied token for the session_id strategy.
	SessionID string `json:"session_id,omitempty"`

	// PrivateKeyPath points at a JWT signing key for future grant types.
	PrivateKeyPath string `json:"private_key_path,omitempty"`
}

// EffectiveClientID returns the request override or the configured fallback.
func (r *LoginRequest) EffectiveClientID(configured string) string {
	if r.ClientID != "" {
		return r.ClientID
	}
	return configured
}

// EffectiveClientSecret returns the request override or the configured fallback.
func (r *LoginRequest) EffectiveClientSecret(configured string) string {
	if r.ClientSecret != "" {
		return r.ClientSecret
	}
	return configured
}
