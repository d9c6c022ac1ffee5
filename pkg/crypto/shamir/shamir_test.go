package shamir

import (
	"bytes"
	"testing"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAndCombine(t *testing.T) {
	tests := []struct {
		name      string
		key       []byte
		parts     int
		threshold int
	}{
		{
			name:      "AES-128 3 of 5",
			key:       bytes.Repeat([]byte{0x11}, 16),
			parts:     5,
			threshold: 3,
		},
		{
			name:      "AES-192 2 of 3",
			key:       bytes.Repeat([]byte{0x42}, 24),
			parts:     3,
			threshold: 2,
		},
		{
			name:      "AES-256 5 of 7",
			key:       bytes.Repeat([]byte{0x7f}, 32),
			parts:     7,
			threshold: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Split(tt.key, Config{Parts: tt.parts, Threshold: tt.threshold})
			require.NoError(t, err)
			assert.Len(t, shares, tt.parts)

			for i, share := range shares {
				assert.Len(t, share.Data, len(tt.key)+1)
				assert.Equal(t, byte(i+1), share.Index)
				assert.NoError(t, VerifyShare(share))
			}

			reconstructed, err := Combine(shares[:tt.threshold])
			require.NoError(t, err)
			assert.Equal(t, tt.key, reconstructed)

			reconstructed2, err := Combine(shares[tt.parts-tt.threshold:])
			require.NoError(t, err)
			assert.Equal(t, tt.key, reconstructed2)
		})
	}
}

func TestCombinedKeyEncrypts(t *testing.T) {
	key := []byte("0123456789abcdef")
	shares, err := Split(key, Config{Parts: 3, Threshold: 2})
	require.NoError(t, err)

	combined, err := Combine(shares[1:])
	require.NoError(t, err)

	block := []byte("sixteen byte msg")
	want, err := aes.EncryptBlock(block, key)
	require.NoError(t, err)
	got, err := aes.EncryptBlock(block, combined)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSplitRejectsBadKey(t *testing.T) {
	_, err := Split(make([]byte, 20), Config{Parts: 3, Threshold: 2})
	assert.ErrorIs(t, err, aes.ErrInvalidKeyLength)

	_, err = Split(nil, Config{Parts: 3, Threshold: 2})
	assert.ErrorIs(t, err, aes.ErrInvalidKeyLength)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{"Valid config", Config{Parts: 5, Threshold: 3}, false},
		{"Parts too small", Config{Parts: 1, Threshold: 1}, true},
		{"Threshold too small", Config{Parts: 5, Threshold: 1}, true},
		{"Threshold greater than parts", Config{Parts: 3, Threshold: 5}, true},
		{"Parts exceeds maximum", Config{Parts: 256, Threshold: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCombineInsufficientShares(t *testing.T) {
	shares, err := Split(make([]byte, 16), Config{Parts: 5, Threshold: 3})
	require.NoError(t, err)

	_, err = Combine(shares[:1])
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 shares")
}

func TestCombineInvalidShares(t *testing.T) {
	shares, err := Split(make([]byte, 16), Config{Parts: 5, Threshold: 3})
	require.NoError(t, err)

	invalidShares := []Share{
		{Index: 1, Data: []byte{}},
		shares[1],
		shares[2],
	}

	_, err = Combine(invalidShares)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty data")
}

func TestVerifyShare(t *testing.T) {
	shares, err := Split(make([]byte, 32), Config{Parts: 3, Threshold: 2})
	require.NoError(t, err)

	assert.NoError(t, VerifyShare(shares[0]))

	err = VerifyShare(Share{Index: 0, Data: shares[0].Data})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index cannot be 0")

	err = VerifyShare(Share{Index: 1, Data: []byte{1, 2}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid share length")
}

func BenchmarkSplit(b *testing.B) {
	key := bytes.Repeat([]byte{0x42}, 32)
	config := Config{Parts: 5, Threshold: 3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Split(key, config); err != nil {
			b.Fatal(err)
		}
	}
}
