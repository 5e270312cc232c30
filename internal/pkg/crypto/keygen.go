// Package crypto provides key material helpers for Tonearm session cookies.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Key sizes accepted by the session cookie codec.
const (
	// HashKeySize is the HMAC-SHA256 signing key size in bytes.
	HashKeySize = 32

	// BlockKeySize is the AES-256 cookie encryption key size in bytes.
	BlockKeySize = 32
)

// ErrInvalidHexKey indicates the hex key is malformed or has the wrong length.
var ErrInvalidHexKey = errors.New("invalid hex key")

// GenerateKey returns size random bytes.
func GenerateKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateHexKey returns size random bytes as a hex string, suitable for
// session.hash_key and session.block_key.
func GenerateHexKey(size int) (string, error) {
	key, err := GenerateKey(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// ParseHexKey decodes a hex key and checks that it has one of the sizes.
func ParseHexKey(hexKey string, sizes ...int) ([]byte, error) {
	hexKey = strings.TrimSpace(hexKey)

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHexKey, err)
	}

	if len(sizes) == 0 {
		return key, nil
	}
	for _, size := range sizes {
		if len(key) == size {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: got %d bytes, want one of %v", ErrInvalidHexKey, len(key), sizes)
}
