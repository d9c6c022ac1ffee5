package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	hex "github.com/tmthrgd/go-hex"
)

var (
	hexPattern  = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
)

// normalizeHex trims whitespace and an optional 0x prefix.
func normalizeHex(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	return input
}

func ValidateHex(input string) error {
	input = normalizeHex(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

func DecodeHex(input string) ([]byte, error) {
	if err := ValidateHex(input); err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(normalizeHex(input))
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex: %w", err)
	}
	return data, nil
}

// ParseKey decodes a hex AES key of 16, 24 or 32 bytes.
func ParseKey(input string) ([]byte, error) {
	key, err := DecodeHex(input)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	if _, err := aes.Rounds(len(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// ParseBlock decodes a hex block of exactly 16 bytes.
func ParseBlock(input string) ([]byte, error) {
	block, err := DecodeHex(input)
	if err != nil {
		return nil, fmt.Errorf("invalid block: %w", err)
	}
	if len(block) != aes.BlockSize {
		return nil, fmt.Errorf("%w: %d bytes", aes.ErrInvalidBlockLength, len(block))
	}
	return block, nil
}

func ValidateKeySize(bits int) error {
	switch bits {
	case 128, 192, 256:
		return nil
	}
	return fmt.Errorf("key size must be 128, 192 or 256 bits (got %d)", bits)
}

func ValidateShare(share string) error {
	data, err := DecodeHex(share)
	if err != nil {
		return fmt.Errorf("invalid share format: %w", err)
	}

	switch len(data) {
	case 17, 25, 33:
		return nil
	}
	return fmt.Errorf("share has invalid length: %d bytes", len(data))
}

func ValidateMnemonic(words string) error {
	words = strings.TrimSpace(words)
	if words == "" {
		return fmt.Errorf("mnemonic cannot be empty")
	}

	wordList := strings.Fields(words)
	switch len(wordList) {
	case 12, 18, 24:
	default:
		return fmt.Errorf("mnemonic must have 12, 18, or 24 words (got %d)", len(wordList))
	}

	for i, word := range wordList {
		if len(word) < 3 || len(word) > 8 {
			return fmt.Errorf("word %d has invalid length: %s", i+1, word)
		}

		for _, ch := range strings.ToLower(word) {
			if ch < 'a' || ch > 'z' {
				return fmt.Errorf("word %d contains invalid characters: %s", i+1, word)
			}
		}
	}

	return nil
}

func ValidateSplitParams(parts, threshold int) error {
	if parts < 2 || parts > 255 {
		return fmt.Errorf("parts must be between 2 and 255 (got %d)", parts)
	}

	if threshold < 2 || threshold > parts {
		return fmt.Errorf("threshold must be between 2 and %d (got %d)", parts, threshold)
	}

	return nil
}

func ValidatePassphrase(passphrase string, minLength int) error {
	if len(passphrase) < minLength {
		return fmt.Errorf("passphrase must be at least %d characters", minLength)
	}

	if len(passphrase) > 256 {
		return fmt.Errorf("passphrase too long (max 256 characters)")
	}

	for i, ch := range passphrase {
		if ch == 0 {
			return fmt.Errorf("passphrase contains null character at position %d", i)
		}
	}

	return nil
}

// ValidateName checks keyring entry and relay client names.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q: use up to 64 letters, digits, '.', '_' or '-'", name)
	}
	return nil
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
