// Package aes implements the AES block cipher (FIPS-197) directly from the
// standard: key expansion, the forward cipher and the equivalent inverse cipher
// over a single 16-byte block.
//
// The implementation favours a readable mapping to the standard over speed and
// makes no constant-time guarantees. Modes of operation and padding are left to
// the caller.
package aes

import (
	"errors"
	"fmt"
)

// BlockSize is the AES block size in bytes.
const BlockSize = 16

var (
	// ErrInvalidBlockLength is returned when an input or output block is not 16 bytes.
	ErrInvalidBlockLength = errors.New("aes: invalid block length")
	// ErrInvalidKeyLength is returned for keys that are not 16, 24 or 32 bytes.
	ErrInvalidKeyLength = errors.New("aes: invalid key length")
	// ErrUnsupportedFieldMultiplier is returned by Mul for constants outside
	// {1, 2, 3, 9, 11, 13, 14}.
	ErrUnsupportedFieldMultiplier = errors.New("aes: unsupported field multiplier")
)

// EncryptBlock encrypts one 16-byte block under a 16, 24 or 32 byte key.
func EncryptBlock(plaintext, key []byte) ([]byte, error) {
	if err := checkBlock(plaintext); err != nil {
		return nil, err
	}

	schedule, err := ExpandKey(key)
	if err != nil {
		return nil, err
	}
	defer schedule.wipe()

	out := make([]byte, BlockSize)
	encrypt(schedule, out, plaintext)
	return out, nil
}

// DecryptBlock decrypts one 16-byte block under a 16, 24 or 32 byte key.
func DecryptBlock(ciphertext, key []byte) ([]byte, error) {
	if err := checkBlock(ciphertext); err != nil {
		return nil, err
	}

	schedule, err := ExpandKeyInverse(key)
	if err != nil {
		return nil, err
	}
	defer schedule.wipe()

	out := make([]byte, BlockSize)
	decrypt(schedule, out, ciphertext)
	return out, nil
}

func checkBlock(b []byte) error {
	if len(b) != BlockSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidBlockLength, len(b))
	}
	return nil
}

// encrypt is the forward cipher. dst and src must hold BlockSize bytes.
func encrypt(ks Schedule, dst, src []byte) {
	nr := ks.rounds

	s := stateFromBlock(src)
	s = addRoundKey(s, ks.roundKey(0))

	for round := 1; round < nr; round++ {
		s = subBytes(s)
		s = shiftRows(s)
		s = mixColumns(s, mixMatrix)
		s = addRoundKey(s, ks.roundKey(round))
	}

	s = subBytes(s)
	s = shiftRows(s)
	s = addRoundKey(s, ks.roundKey(nr))

	s.bytes(dst)
}

// decrypt is the equivalent inverse cipher and expects a schedule from
// ExpandKeyInverse.
func decrypt(dks Schedule, dst, src []byte) {
	nr := dks.rounds

	s := stateFromBlock(src)
	s = addRoundKey(s, dks.roundKey(nr))

	for round := nr - 1; round > 0; round-- {
		s = invSubBytes(s)
		s = invShiftRows(s)
		s = mixColumns(s, invMixMatrix)
		s = addRoundKey(s, dks.roundKey(round))
	}

	s = invSubBytes(s)
	s = invShiftRows(s)
	s = addRoundKey(s, dks.roundKey(0))

	s.bytes(dst)
}
