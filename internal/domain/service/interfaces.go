package service

import (
	"context"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/pkg/constants"
)

// StateCache stores authorization state entries for the OAuth2
// authorization-code flow. Entries are single-use and invalid once older
// than the state TTL regardless of physical eviction.
// StateCache 存储 OAuth2 授权码流程的 state 条目。条目只能使用一次，
// 超过 TTL 后无论是否被物理清除都视为无效。
type StateCache interface {
	// Put stores a state with an optional PKCE code verifier. An empty
	// verifier records a non-PKCE authorization.
	Put(ctx context.Context, state, codeVerifier string) error

	// Consume looks up a state, removes it, and returns its verifier.
	// It fails with INVALID_STATE for unknown states and EXPIRED_STATE for
	// entries older than the TTL.
	Consume(ctx context.Context, state string) (string, error)
}

// ResultCache is the convenience slot holding the most recent successful
// login result, plus one slot per org environment. Reads never touch
// persistent storage.
type ResultCache interface {
	// SetCurrent stores a successful result in the shared slot and in the
	// slot of its org environment.
	SetCurrent(ctx context.Context, result *models.LoginResult) error

	// Current returns the shared slot, nil when empty.
	Current(ctx context.Context) (*models.LoginResult, error)

	// CurrentByOrgType returns the slot of one org environment, nil when empty.
	CurrentByOrgType(ctx context.Context, orgType constants.OrgEnvironment) (*models.LoginResult, error)

	// ClearCurrent empties the shared slot and the slot of the given org
	// environment.
	ClearCurrent(ctx context.Context, orgType constants.OrgEnvironment) error
}

// AuthorizeURLProvider builds the OAuth2 authorization redirect URL and
// records its CSRF state. Implemented by the OAuth2 strategy.
type AuthorizeURLProvider interface {
	// GenerateAuthorizationURL returns the redirect URL and the state it
	// registered, optionally carrying a PKCE challenge.
	GenerateAuthorizationURL(ctx context.Context, orgType constants.OrgEnvironment, usePKCE bool) (url string, state string, err error)
}

// Encryptor reversibly protects credential fields before they reach storage.
// Implementations live in internal/infrastructure/crypto.
type Encryptor interface {
	// Encrypt returns the protected form of a plaintext, "" for "".
	Encrypt(plaintext string) (string, error)

	// Decrypt restores a plaintext from its protected form, "" for "".
	Decrypt(ciphertext string) (string, error)
}

// AuditPublisher emits login attempt records to an external audit sink.
// Publishing is best-effort; failures must not affect the login outcome.
type AuditPublisher interface {
	// PublishLoginAttempt emits one completed history row.
	PublishLoginAttempt(ctx context.Context, history *models.LoginHistory) error

	// Close flushes and releases the underlying transport.
	Close() error
}
