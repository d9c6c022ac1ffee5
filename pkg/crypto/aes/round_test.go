package aes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateCodec(t *testing.T) {
	block := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	s := stateFromBlock(block)
	assert.Equal(t, state{
		{0, 4, 8, 12},
		{1, 5, 9, 13},
		{2, 6, 10, 14},
		{3, 7, 11, 15},
	}, s)

	out := make([]byte, BlockSize)
	s.bytes(out)
	assert.Equal(t, block, out)
}

func TestRoundKeyMatrix(t *testing.T) {
	words := []Word{
		{0x00, 0x01, 0x02, 0x03},
		{0x04, 0x05, 0x06, 0x07},
		{0x08, 0x09, 0x0a, 0x0b},
		{0x0c, 0x0d, 0x0e, 0x0f},
	}

	m := roundKeyMatrix(words)
	assert.Equal(t, stateFromBlock(mustHex(t, "000102030405060708090a0b0c0d0e0f")), m)

	back := make([]Word, 4)
	wordsFromMatrix(m, back)
	assert.Equal(t, words, back)
}

func TestSubBytes(t *testing.T) {
	assert.Equal(t, byte(0x0d), sbox[0xf3])
	assert.Equal(t, byte(0xed), sbox[0x53])

	s := stateFromBlock(mustHex(t, "328831e0435a3137f6309807a88da234"))
	got := subBytes(s)
	assert.Equal(t, state{
		{35, 26, 66, 194},
		{196, 190, 4, 93},
		{199, 199, 70, 58},
		{225, 154, 197, 24},
	}, got)
	assert.Equal(t, s, invSubBytes(got))
}

func TestSboxIsPermutation(t *testing.T) {
	for i := 0; i < 256; i++ {
		assert.Equal(t, byte(i), invSbox[sbox[i]])
	}
}

func TestShiftRows(t *testing.T) {
	s := state{
		{35, 26, 66, 194},
		{196, 190, 4, 93},
		{199, 199, 70, 58},
		{225, 154, 197, 24},
	}

	shifted := shiftRows(s)
	assert.Equal(t, state{
		{35, 26, 66, 194},
		{190, 4, 93, 196},
		{70, 58, 199, 199},
		{24, 225, 154, 197},
	}, shifted)
	assert.Equal(t, s, invShiftRows(shifted))
}

func TestMixColumn(t *testing.T) {
	got := mixColumn([4]byte{0xdb, 0x13, 0x53, 0x45}, mixMatrix)
	assert.Equal(t, [4]byte{0x8e, 0x4d, 0xa1, 0xbc}, got)

	assert.Equal(t, [4]byte{0xdb, 0x13, 0x53, 0x45}, mixColumn(got, invMixMatrix))
}

func TestMixColumns(t *testing.T) {
	s := state{
		{0xdb, 0xf2, 0x01, 0xc6},
		{0x13, 0x0a, 0x01, 0xc6},
		{0x53, 0x22, 0x01, 0xc6},
		{0x45, 0x5c, 0x01, 0xc6},
	}

	mixed := mixColumns(s, mixMatrix)
	assert.Equal(t, state{
		{142, 159, 1, 198},
		{77, 220, 1, 198},
		{161, 88, 1, 198},
		{188, 157, 1, 198},
	}, mixed)
	assert.Equal(t, s, mixColumns(mixed, invMixMatrix))
}

func TestAddRoundKey(t *testing.T) {
	s := state{
		{0x00, 0x01, 0x02, 0x03},
		{0x04, 0x05, 0x06, 0x07},
		{0x08, 0x09, 0x0A, 0x0B},
		{0x0C, 0x0D, 0x0E, 0x0F},
	}
	k := state{
		{0xFF, 0xFF, 0xFF, 0xFF},
		{0x00, 0x00, 0x00, 0x00},
		{0xAA, 0xAA, 0xAA, 0xAA},
		{0x11, 0x22, 0x33, 0x44},
	}

	got := addRoundKey(s, k)
	assert.Equal(t, state{
		{0xFF, 0xFE, 0xFD, 0xFC},
		{0x04, 0x05, 0x06, 0x07},
		{0xA2, 0xA3, 0xA0, 0xA1},
		{0x1D, 0x2F, 0x3D, 0x4B},
	}, got)
	assert.Equal(t, s, addRoundKey(got, k))
}

func TestTransformsDoNotAlias(t *testing.T) {
	s := stateFromBlock(mustHex(t, "00112233445566778899aabbccddeeff"))
	orig := s

	_ = subBytes(s)
	_ = shiftRows(s)
	_ = mixColumns(s, mixMatrix)
	_ = addRoundKey(s, s)

	assert.Equal(t, orig, s)
}
