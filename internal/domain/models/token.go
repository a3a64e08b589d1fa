package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/sfauth/pkg/constants"
)

// Token represents an issued access token tracked for lifecycle management.
// Its status transitions are driven entirely by the token manager: ACTIVE on
// creation, EXPIRED lazily when a validation observes a past expiry, REVOKED
// on explicit revocation.
// Token 代表一个被跟踪生命周期的访问令牌。
// 其状态转换完全由令牌管理器驱动：创建时为 ACTIVE，校验时发现过期则惰性置为
// EXPIRED，显式撤销时置为 REVOKED。
type Token struct {
	// TokenID is the primary key.
	// TokenID 是主键。
	TokenID string `json:"token_id" db:"token_id"`

	// AccessToken is the token value presented by callers.
	// AccessToken 是调用方出示的令牌值。
	AccessToken string `json:"access_token" db:"access_token"`

	// Status is ACTIVE, EXPIRED, or REVOKED. A stored EXPIRED is not
	// authoritative until a validation has read the row.
	// Status 为 ACTIVE、EXPIRED 或 REVOKED。存储的 EXPIRED 在被读取校验前
	// 不具有权威性。
	Status constants.TokenStatus `json:"status" db:"status"`

	// AccessTokenExpire is when the token stops being valid.
	// AccessTokenExpire 是令牌失效的时间点。
	AccessTokenExpire time.Time `json:"access_token_expire" db:"access_token_expire"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName maps the model onto its table.
func (Token) TableName() string { return "tokens" }

// NewToken creates an ACTIVE token expiring at the given time.
func NewToken(accessToken string, expireAt time.Time) *Token {
	now := time.Now().UTC()
	return &Token{
		TokenID:           uuid.NewString(),
		AccessToken:       accessToken,
		Status:            constants.TokenStatusActive,
		AccessTokenExpire: expireAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsExpiredAt reports whether the token's expiry has passed.
func (t *Token) IsExpiredAt(now time.Time) bool {
	return !t.AccessTokenExpire.After(now)
}

// MarkExpired flips the token to EXPIRED.
func (t *Token) MarkExpired(now time.Time) {
	t.Status = constants.TokenStatusExpired
	t.UpdatedAt = now
}

// MarkRevoked flips the token to REVOKED.
func (t *Token) MarkRevoked(now time.Time) {
	t.Status = constants.TokenStatusRevoked
	t.UpdatedAt = now
}
