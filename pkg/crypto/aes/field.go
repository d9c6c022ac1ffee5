package aes

import "fmt"

// GF(2^8) arithmetic modulo the Rijndael polynomial x^8 + x^4 + x^3 + x + 1 (0x11B).

const (
	// rijndaelPoly is the reduction polynomial; only its low byte is XORed back in.
	rijndaelPoly = 0x11B
)

// XTimes multiplies b by x (the field element 2).
func XTimes(b byte) byte {
	if b&0x80 == 0 {
		return b << 1
	}
	return (b << 1) ^ byte(rijndaelPoly&0xFF)
}

// Mul multiplies b by one of the constants used by the mix matrices:
// 1, 2, 3, 9, 11, 13 or 14. Any other constant returns ErrUnsupportedFieldMultiplier.
func Mul(b, k byte) (byte, error) {
	switch k {
	case 1:
		return b, nil
	case 2:
		return XTimes(b), nil
	case 3:
		return XTimes(b) ^ b, nil
	case 9:
		return XTimes(XTimes(XTimes(b))) ^ b, nil
	case 11:
		return XTimes(XTimes(XTimes(b))^b) ^ b, nil
	case 13:
		return XTimes(XTimes(XTimes(b)^b)) ^ b, nil
	case 14:
		return XTimes(XTimes(XTimes(b)^b) ^ b), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedFieldMultiplier, k)
}

// mul is Mul for the round pipeline, where the constant always comes from
// mixMatrix or invMixMatrix. A failure means the tables are miswired.
func mul(b, k byte) byte {
	p, err := Mul(b, k)
	if err != nil {
		panic(err)
	}
	return p
}
