package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenPrefix is the prefix for API tokens
	TokenPrefix = "mend_sk_" // #nosec G101 // prefix pattern, not a credential

	// TokenPrefixLength is the number of characters kept for identification
	TokenPrefixLength = 8

	// TokenLength is the length of the random part of tokens (in bytes,
	// hex encoded)
	TokenLength = 32

	bcryptCost = 12
)

// GenerateToken generates a new API token.
// Returns the raw token, its identification prefix, and an error.
// Format: mend_sk_<64 hex chars>
func GenerateToken() (string, string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	hexToken := hex.EncodeToString(bytes)
	prefix := hexToken[:TokenPrefixLength]
	return TokenPrefix + hexToken, prefix, nil
}

// HashToken creates a bcrypt hash of a token
func HashToken(token string) (string, error) {
	secret := strings.TrimPrefix(token, TokenPrefix)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// VerifyToken checks whether a token matches a hash
func VerifyToken(token, hash string) bool {
	secret := strings.TrimPrefix(token, TokenPrefix)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// IsValidTokenFormat checks whether a token has the expected shape
func IsValidTokenFormat(token string) bool {
	if !strings.HasPrefix(token, TokenPrefix) {
		return false
	}
	secret := strings.TrimPrefix(token, TokenPrefix)
	if len(secret) != TokenLength*2 {
		return false
	}
	_, err := hex.DecodeString(secret)
	return err == nil
}

// MaskToken returns a masked version of a token for display.
// Example: mend_sk_a1b2c3d4****...****
func MaskToken(token string) string {
	if len(token) < len(TokenPrefix)+TokenPrefixLength {
		return "****"
	}
	return token[:len(TokenPrefix)+TokenPrefixLength] + "****...****"
}
