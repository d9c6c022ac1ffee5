// Package secure holds small helpers for handling key material: wiping,
// constant-time comparison and random key generation.
package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}

func SecureRandom(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid size: %d", size)
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		Zero(b)
		return nil, fmt.Errorf("failed to generate secure random bytes: %w", err)
	}
	return b, nil
}

// RandomKey returns a fresh AES key of 128, 192 or 256 bits.
func RandomKey(bits int) ([]byte, error) {
	switch bits {
	case 128, 192, 256:
	default:
		return nil, fmt.Errorf("key size must be 128, 192 or 256 bits, got %d", bits)
	}
	return SecureRandom(bits / 8)
}
