package validation

import (
	"testing"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"lowercase", "00ff10", ""},
		{"uppercase with prefix", "0xABCD", ""},
		{"surrounding space", "  abcd\n", ""},
		{"empty", "", "cannot be empty"},
		{"prefix only", "0x", "cannot be empty"},
		{"odd length", "abc", "even length"},
		{"bad characters", "zz", "invalid hex characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHex(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, key)

	for _, n := range []int{24, 32} {
		key, err := ParseKey(repeatHex("ab", n))
		require.NoError(t, err)
		assert.Len(t, key, n)
	}

	_, err = ParseKey(repeatHex("ab", 20))
	assert.ErrorIs(t, err, aes.ErrInvalidKeyLength)

	_, err = ParseKey("not hex")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestParseBlock(t *testing.T) {
	block, err := ParseBlock("0x00112233445566778899AABBCCDDEEFF")
	require.NoError(t, err)
	assert.Len(t, block, aes.BlockSize)
	assert.Equal(t, byte(0xff), block[15])

	_, err = ParseBlock(repeatHex("00", 15))
	assert.ErrorIs(t, err, aes.ErrInvalidBlockLength)
	_, err = ParseBlock(repeatHex("00", 17))
	assert.ErrorIs(t, err, aes.ErrInvalidBlockLength)
}

func TestValidateKeySize(t *testing.T) {
	for _, bits := range []int{128, 192, 256} {
		assert.NoError(t, ValidateKeySize(bits))
	}
	for _, bits := range []int{0, 64, 160, 512} {
		assert.Error(t, ValidateKeySize(bits))
	}
}

func TestValidateShare(t *testing.T) {
	assert.NoError(t, ValidateShare(repeatHex("01", 17)))
	assert.NoError(t, ValidateShare(repeatHex("01", 33)))
	assert.Error(t, ValidateShare(repeatHex("01", 16)))
	assert.Error(t, ValidateShare("xyz"))
}

func TestValidateMnemonic(t *testing.T) {
	valid := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	assert.NoError(t, ValidateMnemonic(valid))
	assert.NoError(t, ValidateMnemonic("ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"))

	assert.Error(t, ValidateMnemonic(""))
	assert.Error(t, ValidateMnemonic("abandon abandon"))
	assert.Error(t, ValidateMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon ab"))
	assert.Error(t, ValidateMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon ab0ut"))
}

func TestValidateSplitParams(t *testing.T) {
	assert.NoError(t, ValidateSplitParams(3, 2))
	assert.NoError(t, ValidateSplitParams(255, 255))
	assert.Error(t, ValidateSplitParams(1, 1))
	assert.Error(t, ValidateSplitParams(256, 2))
	assert.Error(t, ValidateSplitParams(3, 4))
	assert.Error(t, ValidateSplitParams(3, 1))
}

func TestValidatePassphrase(t *testing.T) {
	assert.NoError(t, ValidatePassphrase("long enough", 8))
	assert.NoError(t, ValidatePassphrase("", 0))
	assert.Error(t, ValidatePassphrase("short", 8))
	assert.Error(t, ValidatePassphrase("with\x00null", 0))
	assert.Error(t, ValidatePassphrase(string(make([]byte, 300)), 0))
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"alice", "bob-2", "node_1.backup", "A"} {
		assert.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", "-lead", "has space", "semi;colon", string(make([]byte, 65))} {
		assert.Error(t, ValidateName(name), name)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\nb\nc", SanitizeInput("  a \r\n b\r c  "))
}

func repeatHex(pair string, n int) string {
	out := make([]byte, 0, len(pair)*n)
	for i := 0; i < n; i++ {
		out = append(out, pair...)
	}
	return string(out)
}
