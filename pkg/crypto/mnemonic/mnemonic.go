// Package mnemonic encodes AES keys as BIP-39 word lists for paper backup.
package mnemonic

import (
	"fmt"
	"strings"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/tyler-smith/go-bip39"
)

type Mnemonic struct {
	words []string
}

// FromKey encodes a 16, 24 or 32 byte key as 12, 18 or 24 words.
func FromKey(key []byte) (*Mnemonic, error) {
	if _, err := aes.Rounds(len(key)); err != nil {
		return nil, err
	}

	mnemonic, err := bip39.NewMnemonic(key)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic from key: %w", err)
	}

	return &Mnemonic{
		words: strings.Split(mnemonic, " "),
	}, nil
}

func FromWords(words string) (*Mnemonic, error) {
	fields := strings.Fields(strings.ToLower(words))
	if !ValidateWordCount(len(fields)) {
		return nil, fmt.Errorf("invalid word count: %d (must be 12, 18, or 24)", len(fields))
	}

	phrase := strings.Join(fields, " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	return &Mnemonic{
		words: fields,
	}, nil
}

func (m *Mnemonic) Words() string {
	return strings.Join(m.words, " ")
}

func (m *Mnemonic) WordList() []string {
	result := make([]string, len(m.words))
	copy(result, m.words)
	return result
}

func (m *Mnemonic) WordCount() int {
	return len(m.words)
}

// Key returns the AES key the words encode.
func (m *Mnemonic) Key() ([]byte, error) {
	key, err := bip39.EntropyFromMnemonic(m.Words())
	if err != nil {
		return nil, fmt.Errorf("failed to get key from mnemonic: %w", err)
	}
	return key, nil
}

func ValidateWordCount(count int) bool {
	switch count {
	case 12, 18, 24:
		return true
	}
	return false
}

// KeyBitsFromWordCount maps a phrase length to the AES key size it carries.
func KeyBitsFromWordCount(wordCount int) (int, error) {
	switch wordCount {
	case 12:
		return 128, nil
	case 18:
		return 192, nil
	case 24:
		return 256, nil
	default:
		return 0, fmt.Errorf("invalid word count: %d", wordCount)
	}
}
