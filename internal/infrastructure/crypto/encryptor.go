// Package crypto provides reversible credential-at-rest protection: an
// AES-256-GCM encryptor and the key providers feeding it (static config key
// or HashiCorp Vault).
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/errors"
)

// KeySize is the required AES-256 key length in bytes.
const KeySize = 32

// AESEncryptor protects strings with AES-256-GCM. Ciphertexts are
// base64-encoded nonce||sealed payloads so they can be stored in text columns.
type AESEncryptor struct {
	aead cipher.AEAD
}

var _ service.Encryptor = (*AESEncryptor)(nil)

// NewAESEncryptor creates an encryptor over a 32 byte key.
func NewAESEncryptor(key []byte) (*AESEncryptor, error) {
	if len(key) != KeySize {
		return nil, errors.System("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.System("failed to initialize cipher").WithCause(err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.System("failed to initialize GCM").WithCause(err)
	}

	return &AESEncryptor{aead: aead}, nil
}

// NewAESEncryptorFromProvider fetches the key from a provider and builds the
// encryptor over it.
func NewAESEncryptorFromProvider(ctx context.Context, provider KeyProvider) (*AESEncryptor, error) {
	key, err := provider.EncryptionKey(ctx)
	if err != nil {
		return nil, err
	}
	return NewAESEncryptor(key)
}

// Encrypt seals a plaintext. The empty string passes through unchanged so
// absent credentials stay absent.
func (e *AESEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.System("failed to generate nonce").WithCause(err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (e *AESEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.System("ciphertext is not valid base64").WithCause(err)
	}

	nonceSize := e.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.System("ciphertext is truncated")
	}

	plaintext, err := e.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", errors.System("failed to decrypt credential").WithCause(err)
	}

	return string(plaintext), nil
}
