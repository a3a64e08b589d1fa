// Package utils provides utility functions for the sfauth service.
// This file contains random token generation for CSRF state values and PKCE
// code verifiers.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateState produces a URL-safe random state value for CSRF protection,
// 16 random bytes encoded as unpadded base64url.
func GenerateState() (string, error) {
	return randomURLToken(16)
}

// GenerateCodeVerifier produces a PKCE code verifier, 32 random bytes encoded
// as unpadded base64url (43 characters, within the RFC 7636 range).
func GenerateCodeVerifier() (string, error) {
	return randomURLToken(32)
}

// CodeChallengeS256 derives the S256 code challenge from a verifier.
func CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomURLToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
