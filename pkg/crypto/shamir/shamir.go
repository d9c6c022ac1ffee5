// Package shamir splits an AES key into threshold shares so that no single
// holder can recover it.
package shamir

import (
	"fmt"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/hashicorp/vault/shamir"
)

type Share struct {
	Index byte
	Data  []byte
}

type Config struct {
	Parts     int
	Threshold int
}

func (c *Config) Validate() error {
	if c.Parts < 2 {
		return fmt.Errorf("parts must be at least 2, got %d", c.Parts)
	}
	if c.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", c.Threshold)
	}
	if c.Threshold > c.Parts {
		return fmt.Errorf("threshold (%d) cannot be greater than parts (%d)", c.Threshold, c.Parts)
	}
	if c.Parts > 255 {
		return fmt.Errorf("parts cannot exceed 255, got %d", c.Parts)
	}
	return nil
}

// Split splits a 16, 24 or 32 byte AES key. Each share is one byte longer
// than the key; the trailing byte is the share's x coordinate.
func Split(key []byte, config Config) ([]Share, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if _, err := aes.Rounds(len(key)); err != nil {
		return nil, err
	}

	shares, err := shamir.Split(key, config.Parts, config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split key: %w", err)
	}

	result := make([]Share, len(shares))
	for i, share := range shares {
		result[i] = Share{
			Index: byte(i + 1),
			Data:  share,
		}
	}

	return result, nil
}

// Combine recombines shares into the key. Too few shares yield a wrong
// value rather than an error, so the result is only checked for a valid AES
// key length.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("at least 2 shares are required for reconstruction")
	}

	shareBytes := make([][]byte, len(shares))
	for i, share := range shares {
		if len(share.Data) == 0 {
			return nil, fmt.Errorf("share %d has empty data", share.Index)
		}
		shareBytes[i] = share.Data
	}

	key, err := shamir.Combine(shareBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}

	if _, err := aes.Rounds(len(key)); err != nil {
		return nil, fmt.Errorf("combined key: %w", err)
	}

	return key, nil
}

func VerifyShare(share Share) error {
	if share.Index == 0 {
		return fmt.Errorf("share index cannot be 0")
	}
	switch len(share.Data) {
	case 17, 25, 33:
		return nil
	}
	return fmt.Errorf("invalid share length: %d bytes does not carry a 128, 192 or 256-bit key", len(share.Data))
}
