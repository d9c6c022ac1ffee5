// Package rsa implements textbook RSA over math/big. It carries no padding
// and exists to transport short AES session keys one byte at a time.
package rsa

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// MinPrimeBits keeps the modulus above 255 so every byte is encryptable.
const MinPrimeBits = 8

var (
	ErrMessageRange = errors.New("rsa: message out of range")

	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
)

type PublicKey struct {
	N *big.Int
	E *big.Int
}

type PrivateKey struct {
	N *big.Int
	D *big.Int
}

// GenerateKeys draws two distinct primes of the given size. The public
// exponent is the smallest e >= 3 coprime to phi.
func GenerateKeys(bits int) (PublicKey, PrivateKey, error) {
	if bits < MinPrimeBits {
		return PublicKey{}, PrivateKey{}, fmt.Errorf("prime size must be at least %d bits, got %d", MinPrimeBits, bits)
	}

	for {
		p, err := rand.Prime(rand.Reader, bits)
		if err != nil {
			return PublicKey{}, PrivateKey{}, fmt.Errorf("failed to generate prime: %w", err)
		}
		q, err := rand.Prime(rand.Reader, bits)
		if err != nil {
			return PublicKey{}, PrivateKey{}, fmt.Errorf("failed to generate prime: %w", err)
		}
		if p.Cmp(q) == 0 {
			continue
		}

		pub, priv := keysFromPrimes(p, q)
		return pub, priv, nil
	}
}

func keysFromPrimes(p, q *big.Int) (PublicKey, PrivateKey) {
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, one),
		new(big.Int).Sub(q, one),
	)

	e := new(big.Int).Set(three)
	for {
		gcd, _, _ := ExtendedEuclid(e, phi)
		if gcd.Cmp(one) == 0 {
			break
		}
		e.Add(e, one)
	}

	_, d, _ := ExtendedEuclid(e, phi)
	if d.Sign() < 0 {
		d.Add(d, phi)
	}

	return PublicKey{N: n, E: e}, PrivateKey{N: new(big.Int).Set(n), D: d}
}

// ExtendedEuclid returns gcd(a, b) and x, y with ax + by = gcd(a, b).
func ExtendedEuclid(a, b *big.Int) (gcd, x, y *big.Int) {
	if b.Sign() == 0 {
		return new(big.Int).Set(a), big.NewInt(1), big.NewInt(0)
	}

	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	for r.Sign() != 0 {
		quotient := new(big.Int).Div(oldR, r)
		oldR, r = r, new(big.Int).Sub(oldR, new(big.Int).Mul(quotient, r))
		oldS, s = s, new(big.Int).Sub(oldS, new(big.Int).Mul(quotient, s))
		oldT, t = t, new(big.Int).Sub(oldT, new(big.Int).Mul(quotient, t))
	}

	return oldR, oldS, oldT
}

// ModPow computes m^e mod n by square-and-multiply. e must be non-negative.
func ModPow(m, e, n *big.Int) *big.Int {
	result := big.NewInt(1)
	if n.Cmp(one) == 0 {
		return result.SetInt64(0)
	}

	b := new(big.Int).Mod(m, n)
	exp := new(big.Int).Set(e)
	bit := new(big.Int)

	for exp.Sign() > 0 {
		if bit.And(exp, one).Sign() != 0 {
			result.Mul(result, b)
			result.Mod(result, n)
		}
		exp.Rsh(exp, 1)
		b.Mul(b, b)
		b.Mod(b, n)
	}

	return result
}

func Encrypt(m *big.Int, pub PublicKey) (*big.Int, error) {
	if err := checkRange(m, pub.N); err != nil {
		return nil, err
	}
	return ModPow(m, pub.E, pub.N), nil
}

func Decrypt(c *big.Int, priv PrivateKey) (*big.Int, error) {
	if err := checkRange(c, priv.N); err != nil {
		return nil, err
	}
	return ModPow(c, priv.D, priv.N), nil
}

// EncryptBytes encrypts every byte of data as its own integer.
func EncryptBytes(data []byte, pub PublicKey) ([]*big.Int, error) {
	out := make([]*big.Int, len(data))
	for i, b := range data {
		c, err := Encrypt(big.NewInt(int64(b)), pub)
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func DecryptBytes(ciphertext []*big.Int, priv PrivateKey) ([]byte, error) {
	out := make([]byte, len(ciphertext))
	for i, c := range ciphertext {
		m, err := Decrypt(c, priv)
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i, err)
		}
		if !m.IsUint64() || m.Uint64() > 0xff {
			return nil, fmt.Errorf("byte %d: %w: decrypted value %s exceeds a byte", i, ErrMessageRange, m)
		}
		out[i] = byte(m.Uint64())
	}
	return out, nil
}

func checkRange(v, n *big.Int) error {
	if v == nil || n == nil {
		return fmt.Errorf("%w: nil operand", ErrMessageRange)
	}
	if v.Sign() < 0 || v.Cmp(n) >= 0 {
		return fmt.Errorf("%w: %s not in [0, n)", ErrMessageRange, v)
	}
	return nil
}
