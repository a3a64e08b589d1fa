package models

import (
	"time"

	"github.com/turtacn/sfauth/pkg/constants"
)

// LoginSession is the server-tracked record of an authenticated connection to
// a remote org. It is created on successful login, flipped to inactive on
// logout, and flipped to expired lazily when a read observes a past expiry.
// Rows are never deleted by this subsystem.
// LoginSession 是服务端跟踪的远程组织认证连接记录。
// 登录成功时创建，登出时置为 inactive，读取时发现过期则惰性置为 expired。
type LoginSession struct {
	// SessionID is the Salesforce session identifier, also the primary key.
	SessionID string `json:"session_id" db:"session_id"`

	// Username is the login name that produced this session.
	Username string `json:"username" db:"username"`

	// LoginType records the strategy that produced this session.
	LoginType constants.LoginType `json:"login_type" db:"login_type"`

	// OrgType records the environment this session belongs to.
	OrgType constants.OrgEnvironment `json:"org_type" db:"org_type"`

	// Status is one of active, inactive, expired.
	Status constants.SessionStatus `json:"status" db:"status"`

	// LoginTime is when the session was established.
	LoginTime time.Time `json:"login_time" db:"login_time"`

	// ExpireTime is when the session stops being usable. Nil means the remote
	// org reported no expiry.
	ExpireTime *time.Time `json:"expire_time,omitempty" db:"expire_time"`

	// LastActivityTime is refreshed whenever the session is read as usable.
	LastActivityTime time.Time `json:"last_activity_time" db:"last_activity_time"`

	// SfUserID and SfOrganizationID identify the remote principal.
	SfUserID         string `json:"sf_user_id" db:"sf_user_id"`
	SfOrganizationID string `json:"sf_organization_id" db:"sf_organization_id"`

	// InstanceURL is the org's API base URL.
	InstanceURL string `json:"instance_url" db:"instance_url"`

	// LoginIP is the caller's source address.
	LoginIP string `json:"login_ip,omitempty" db:"login_ip"`

	// DeviceInfo and BrowserInfo are derived from the caller's User-Agent.
	DeviceInfo  string `json:"device_info,omitempty" db:"device_info"`
	BrowserInfo string `json:"browser_info,omitempty" db:"browser_info"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName maps the model onto its table.
func (LoginSession) TableName() string { return "login_sessions" }

// NewLoginSession builds an active session from a successful login result.
// A nil expiry is recorded when expiresIn is not positive.
func NewLoginSession(result *LoginResult, username, loginIP, deviceInfo, browserInfo string) *LoginSession {
	now := time.Now().UTC()

	session := &LoginSession{
		SessionID:        result.SessionID,
		Username:         username,
		LoginType:        result.LoginType,
		OrgType:          result.OrgType,
		Status:           constants.SessionStatusActive,
		LoginTime:        now,
		LastActivityTime: now,
		SfUserID:         result.UserID,
		SfOrganizationID: result.OrganizationID,
		InstanceURL:      result.InstanceURL,
		LoginIP:          loginIP,
		DeviceInfo:       deviceInfo,
		BrowserInfo:      browserInfo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if result.ExpiresIn > 0 {
		expireAt := now.Add(time.Duration(result.ExpiresIn) * time.Second)
		session.ExpireTime = &expireAt
	}

	return session
}

// IsUsable reports whether the session can still back API calls: it must be
// active and either carry no expiry or expire in the future.
func (s *LoginSession) IsUsable(now time.Time) bool {
	if s.Status != constants.SessionStatusActive {
		return false
	}
	return s.ExpireTime == nil || s.ExpireTime.After(now)
}

// IsExpiredAt reports whether a recorded expiry has passed.
func (s *LoginSession) IsExpiredAt(now time.Time) bool {
	return s.ExpireTime != nil && !s.ExpireTime.After(now)
}

// MarkExpired flips the session to expired.
func (s *LoginSession) MarkExpired(now time.Time) {
	s.Status = constants.SessionStatusExpired
	s.UpdatedAt = now
}

// MarkInactive flips the session to inactive on logout.
func (s *LoginSession) MarkInactive(now time.Time) {
	s.Status = constants.SessionStatusInactive
	s.UpdatedAt = now
}

// Touch refreshes the activity timestamp.
func (s *LoginSession) Touch(now time.Time) {
	s.LastActivityTime = now
	s.UpdatedAt = now
}
