package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/sfauth/pkg/constants"
)

// LoginHistory is an append-only audit row recording one authentication
// attempt: a snapshot of the request, its outcome, and client metadata.
// Credential fields are stored only in encrypted form so a successful row can
// later be replayed through auto login.
type LoginHistory struct {
	// HistoryID is the primary key.
	HistoryID string `json:"history_id" db:"history_id"`

	Username  string                   `json:"username" db:"username"`
	LoginType constants.LoginType      `json:"login_type" db:"login_type"`
	OrgType   constants.OrgEnvironment `json:"org_type" db:"org_type"`
	GrantType constants.GrantType      `json:"grant_type,omitempty" db:"grant_type"`
	OrgAlias  string                   `json:"org_alias,omitempty" db:"org_alias"`

	// Encrypted credential snapshot, empty when the request carried none.
	EncryptedPassword      string `json:"-" db:"encrypted_password"`
	EncryptedSecurityToken string `json:"-" db:"encrypted_security_token"`
	EncryptedClientSecret  string `json:"-" db:"encrypted_client_secret"`
	EncryptedSessionID     string `json:"-" db:"encrypted_session_id"`
	ClientID               string `json:"client_id,omitempty" db:"client_id"`

	// RequestTime/ResponseTime bracket the attempt; DurationMs is their delta.
	RequestTime  time.Time `json:"request_time" db:"request_time"`
	ResponseTime time.Time `json:"response_time" db:"response_time"`
	DurationMs   int64     `json:"duration_ms" db:"duration_ms"`

	// LoginStatus is success or failed.
	LoginStatus string `json:"login_status" db:"login_status"`

	// ErrorCode and ErrorMessage are populated for failed attempts.
	ErrorCode    string `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Outcome snapshot for successful attempts. The refresh token is stored
	// only encrypted, like the request secrets.
	SfUserID              string `json:"sf_user_id,omitempty" db:"sf_user_id"`
	SfOrganizationID      string `json:"sf_organization_id,omitempty" db:"sf_organization_id"`
	InstanceURL           string `json:"instance_url,omitempty" db:"instance_url"`
	ResultSessionID       string `json:"result_session_id,omitempty" db:"result_session_id"`
	TokenType             string `json:"token_type,omitempty" db:"token_type"`
	ExpiresIn             int64  `json:"expires_in,omitempty" db:"expires_in"`
	EncryptedRefreshToken string `json:"-" db:"encrypted_refresh_token"`

	// Client metadata.
	LoginIP    string `json:"login_ip,omitempty" db:"login_ip"`
	LoginPort  string `json:"login_port,omitempty" db:"login_port"`
	DeviceType string `json:"device_type,omitempty" db:"device_type"`
	Browser    string `json:"browser,omitempty" db:"browser"`
	OS         string `json:"os,omitempty" db:"os"`
	UserAgent  string `json:"user_agent,omitempty" db:"user_agent"`
	Operator   string `json:"operator,omitempty" db:"operator"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName maps the model onto its table.
func (LoginHistory) TableName() string { return "login_histories" }

// NewLoginHistory starts a history row for an attempt beginning now. The
// outcome fields are filled by Complete once the strategy returns.
func NewLoginHistory(request *LoginRequest, requestTime time.Time) *LoginHistory {
	return &LoginHistory{
		HistoryID:   uuid.NewString(),
		Username:    request.Username,
		LoginType:   request.LoginType,
		OrgType:     request.OrgType,
		GrantType:   request.GrantType,
		OrgAlias:    request.OrgAlias,
		ClientID:    request.ClientID,
		RequestTime: requestTime,
		CreatedAt:   requestTime,
	}
}

// Complete records the attempt outcome and timing.
func (h *LoginHistory) Complete(result *LoginResult, responseTime time.Time) {
	h.ResponseTime = responseTime
	h.DurationMs = responseTime.Sub(h.RequestTime).Milliseconds()

	if result.Success {
		h.LoginStatus = constants.LoginStatusSuccess
		h.SfUserID = result.UserID
		h.SfOrganizationID = result.OrganizationID
		h.InstanceURL = result.InstanceURL
		h.ResultSessionID = result.SessionID
		h.TokenType = result.TokenType
		h.ExpiresIn = result.ExpiresIn
		return
	}

	h.LoginStatus = constants.LoginStatusFailed
	h.ErrorCode = result.ErrorCode
	h.ErrorMessage = result.ErrorMessage
}

// Succeeded reports whether this row recorded a successful attempt.
func (h *LoginHistory) Succeeded() bool {
	return h.LoginStatus == constants.LoginStatusSuccess
}
