package secure

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	key := []byte("0123456789abcdef")
	original := make([]byte, len(key))
	copy(original, key)

	Zero(key)

	for _, b := range key {
		assert.Equal(t, byte(0), b)
	}
	assert.NotEqual(t, original, key)

	Zero(nil)
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("test data")
	b := []byte("test data")
	c := []byte("different")
	d := []byte("test dat")

	assert.True(t, ConstantTimeCompare(a, b))
	assert.False(t, ConstantTimeCompare(a, c))
	assert.False(t, ConstantTimeCompare(a, d))
	assert.False(t, ConstantTimeCompare(a, []byte{}))
}

func TestSecureRandom(t *testing.T) {
	for _, size := range []int{16, 32, 64} {
		data, err := SecureRandom(size)
		require.NoError(t, err)
		assert.Len(t, data, size)

		data2, err := SecureRandom(size)
		require.NoError(t, err)
		assert.NotEqual(t, data, data2, "Random data should be different")
	}

	data, err := SecureRandom(0)
	assert.NoError(t, err)
	assert.Empty(t, data)

	_, err = SecureRandom(-1)
	assert.Error(t, err)
}

func TestRandomKey(t *testing.T) {
	tests := []struct {
		name      string
		bits      int
		wantLen   int
		wantError bool
	}{
		{"AES-128", 128, 16, false},
		{"AES-192", 192, 24, false},
		{"AES-256", 256, 32, false},
		{"160 bits", 160, 0, true},
		{"zero", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := RandomKey(tt.bits)
			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, tt.wantLen)
		})
	}
}

func BenchmarkConstantTimeCompare(b *testing.B) {
	a := bytes.Repeat([]byte{0x42}, 32)
	b1 := bytes.Repeat([]byte{0x42}, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ConstantTimeCompare(a, b1)
	}
}
