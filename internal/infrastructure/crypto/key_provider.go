package crypto

import (
	"context"
	"encoding/base64"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/pkg/errors"
)

// KeyProvider resolves the AES key used for credential-at-rest encryption.
type KeyProvider interface {
	EncryptionKey(ctx context.Context) ([]byte, error)
}

// StaticKeyProvider decodes the key from configuration. Used when Vault is
// disabled, typically in development.
type StaticKeyProvider struct {
	cfg config.CryptoConfig
}

var _ KeyProvider = (*StaticKeyProvider)(nil)

// NewStaticKeyProvider creates a provider over the configured key.
func NewStaticKeyProvider(cfg config.CryptoConfig) *StaticKeyProvider {
	return &StaticKeyProvider{cfg: cfg}
}

// EncryptionKey base64-decodes the configured key.
func (p *StaticKeyProvider) EncryptionKey(_ context.Context) ([]byte, error) {
	if p.cfg.EncryptionKey == "" {
		return nil, errors.System("no encryption key configured")
	}

	key, err := base64.StdEncoding.DecodeString(p.cfg.EncryptionKey)
	if err != nil {
		return nil, errors.System("encryption key is not valid base64").WithCause(err)
	}
	return key, nil
}

// VaultKeyProvider fetches the key from a HashiCorp Vault KV v2 secret. The
// secret must hold a base64-encoded 32 byte value under the "key" field.
type VaultKeyProvider struct {
	client    *vault.Client
	mountPath string
	keyName   string
}

var _ KeyProvider = (*VaultKeyProvider)(nil)

// NewVaultKeyProvider creates and configures the Vault-backed provider.
func NewVaultKeyProvider(cfg config.VaultConfig) (*VaultKeyProvider, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.System("failed to create vault client").WithCause(err)
	}
	client.SetToken(cfg.Token)

	mountPath := cfg.MountPath
	if mountPath == "" {
		mountPath = "secret"
	}

	return &VaultKeyProvider{
		client:    client,
		mountPath: mountPath,
		keyName:   cfg.KeyName,
	}, nil
}

// EncryptionKey reads and decodes the key material from Vault.
func (p *VaultKeyProvider) EncryptionKey(ctx context.Context) ([]byte, error) {
	secret, err := p.client.KVv2(p.mountPath).Get(ctx, p.keyName)
	if err != nil {
		return nil, errors.System("failed to read encryption key from vault").WithCause(err)
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.System("vault secret %s is empty", p.keyName)
	}

	encoded, ok := secret.Data["key"].(string)
	if !ok || encoded == "" {
		return nil, errors.System("vault secret %s has no key field", p.keyName)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.System("vault key material is not valid base64").WithCause(err)
	}
	return key, nil
}
