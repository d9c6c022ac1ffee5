package aes

import (
	"crypto/cipher"
)

// Cipher holds both expanded schedules for one key. It is immutable after
// NewCipher and safe for concurrent use.
type Cipher struct {
	enc Schedule
	dec Schedule
}

var _ cipher.Block = (*Cipher)(nil)

// NewCipher expands key once for repeated use. The key must be 16, 24 or 32
// bytes to select AES-128, AES-192 or AES-256.
func NewCipher(key []byte) (*Cipher, error) {
	enc, err := ExpandKey(key)
	if err != nil {
		return nil, err
	}
	dec, err := ExpandKeyInverse(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{enc: enc, dec: dec}, nil
}

// BlockSize returns BlockSize.
func (c *Cipher) BlockSize() int { return BlockSize }

// Rounds returns Nr for the cipher's key.
func (c *Cipher) Rounds() int { return c.enc.rounds }

// Encrypt encrypts the first block of src into dst. Like the standard library
// block ciphers it panics when either buffer is shorter than a block.
func (c *Cipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("aes: input not full block")
	}
	if len(dst) < BlockSize {
		panic("aes: output not full block")
	}
	encrypt(c.enc, dst[:BlockSize], src[:BlockSize])
}

// Decrypt decrypts the first block of src into dst, with the same panics as Encrypt.
func (c *Cipher) Decrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("aes: input not full block")
	}
	if len(dst) < BlockSize {
		panic("aes: output not full block")
	}
	decrypt(c.dec, dst[:BlockSize], src[:BlockSize])
}

// EncryptBlock is the error-returning form of Encrypt for exactly one block.
func (c *Cipher) EncryptBlock(plaintext []byte) ([]byte, error) {
	if err := checkBlock(plaintext); err != nil {
		return nil, err
	}
	out := make([]byte, BlockSize)
	encrypt(c.enc, out, plaintext)
	return out, nil
}

// DecryptBlock is the error-returning form of Decrypt for exactly one block.
func (c *Cipher) DecryptBlock(ciphertext []byte) ([]byte, error) {
	if err := checkBlock(ciphertext); err != nil {
		return nil, err
	}
	out := make([]byte, BlockSize)
	decrypt(c.dec, out, ciphertext)
	return out, nil
}

// Wipe zeroes both schedules. The cipher must not be used afterwards.
func (c *Cipher) Wipe() {
	c.enc.wipe()
	c.dec.wipe()
}
