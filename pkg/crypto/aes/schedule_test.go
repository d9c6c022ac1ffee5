package aes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRounds(t *testing.T) {
	tests := []struct {
		keyLen int
		want   int
	}{
		{16, 10},
		{24, 12},
		{32, 14},
	}
	for _, tt := range tests {
		nr, err := Rounds(tt.keyLen)
		require.NoError(t, err)
		assert.Equal(t, tt.want, nr)
	}

	for _, bad := range []int{0, 8, 15, 20, 33} {
		nr, err := Rounds(bad)
		assert.ErrorIs(t, err, ErrInvalidKeyLength)
		assert.Zero(t, nr)
	}
}

func TestExpandKey128(t *testing.T) {
	want := strings.Fields(`
		00010203 04050607 08090a0b 0c0d0e0f d6aa74fd d2af72fa daa678f1 d6ab76fe
		b692cf0b 643dbdf1 be9bc500 6830b3fe b6ff744e d2c2c9bf 6c590cbf 0469bf41
		47f7f7bc 95353e03 f96c32bc fd058dfd 3caaa3e8 a99f9deb 50f3af57 adf622aa
		5e390f7d f7a69296 a7553dc1 0aa31f6b 14f9701a e35fe28c 440adf4d 4ea9c026
		47438735 a41c65b9 e016baf4 aebf7ad2 549932d1 f0855768 1093ed9c be2c974e
		13111d7f e3944a17 f307a78b 4d2b30c5`)

	s, err := ExpandKey(mustHex(t, "000102030405060708090a0b0c0d0e0f"))
	require.NoError(t, err)
	require.Equal(t, 44, s.Len())
	assert.Equal(t, 10, s.Rounds())

	words := s.Words()
	for i, w := range words {
		assert.Equal(t, want[i], w.String(), "word %d", i)
	}
	assert.Equal(t, "d6aa74fd", words[4].String())
}

// Last words of the FIPS-197 Appendix A expansions.
func TestExpandKeyAllSizes(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		words int
		last  string
	}{
		{"A.1 128-bit", "2b7e151628aed2a6abf7158809cf4f3c", 44, "b6630ca6"},
		{"A.2 192-bit", "8e73b0f7da0e6452c810f32b809079e562f8ead2522c6b7b", 52, "01002202"},
		{"A.3 256-bit", "603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4", 60, "706c631e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ExpandKey(mustHex(t, tt.key))
			require.NoError(t, err)
			require.Equal(t, tt.words, s.Len())

			words := s.Words()
			assert.Equal(t, tt.last, words[len(words)-1].String())

			// The key itself is the first Nk words.
			var prefix strings.Builder
			for _, w := range words[:len(tt.key)/8] {
				prefix.WriteString(w.String())
			}
			assert.Equal(t, tt.key, prefix.String())
		})
	}
}

func TestExpandKeyInverse(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32} {
		key := make([]byte, keyLen)
		for i := range key {
			key[i] = byte(i)
		}

		enc, err := ExpandKey(key)
		require.NoError(t, err)
		dec, err := ExpandKeyInverse(key)
		require.NoError(t, err)

		nr := enc.Rounds()
		require.Equal(t, nr, dec.Rounds())
		require.Equal(t, enc.Len(), dec.Len())

		encWords, decWords := enc.Words(), dec.Words()

		// Rounds 0 and Nr are untouched.
		assert.Equal(t, encWords[:4], decWords[:4])
		assert.Equal(t, encWords[4*nr:], decWords[4*nr:])

		// Inner rounds carry InvMixColumns of the forward key.
		for round := 1; round < nr; round++ {
			want := mixColumns(enc.roundKey(round), invMixMatrix)
			assert.Equal(t, want, dec.roundKey(round), "key %d round %d", keyLen, round)
		}
	}

	dec, err := ExpandKeyInverse(mustHex(t, "000102030405060708090a0b0c0d0e0f"))
	require.NoError(t, err)
	assert.Equal(t, "8c56dff0", dec.Words()[4].String())

	_, err = ExpandKeyInverse(make([]byte, 20))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestRoundKey(t *testing.T) {
	s, err := ExpandKey(mustHex(t, "000102030405060708090a0b0c0d0e0f"))
	require.NoError(t, err)

	k0, err := s.RoundKey(0)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "000102030405060708090a0b0c0d0e0f"), k0[:])

	k1, err := s.RoundKey(1)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "d6aa74fdd2af72fadaa678f1d6ab76fe"), k1[:])

	_, err = s.RoundKey(11)
	assert.Error(t, err)
	_, err = s.RoundKey(-1)
	assert.Error(t, err)
}

func TestWordsReturnsCopy(t *testing.T) {
	s, err := ExpandKey(make([]byte, 16))
	require.NoError(t, err)

	words := s.Words()
	words[0] = Word{0xff, 0xff, 0xff, 0xff}
	assert.Equal(t, Word{}, s.Words()[0])
}

func TestRotAndSubWord(t *testing.T) {
	assert.Equal(t, Word{0xcf, 0x4f, 0x3c, 0x09}, rotWord(Word{0x09, 0xcf, 0x4f, 0x3c}))
	assert.Equal(t, Word{0x8a, 0x84, 0xeb, 0x01}, subWord(Word{0xcf, 0x4f, 0x3c, 0x09}))
}
