package relay

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/big"
	"net"
	"os"
	"testing"
	"time"

	"github.com/Davincible/fips197/pkg/crypto/rsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrame(body string) []byte {
	return append(binary.BigEndian.AppendUint32(nil, uint32(len(body))), body...)
}

func TestWriteFrameLayout(t *testing.T) {
	f, err := NewKeyFrame("alice", rsa.PublicKey{N: big.NewInt(3233), E: big.NewInt(7)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, f))

	want := `{"type":"key","from":"alice","data":["3233","7"]}`
	assert.Equal(t, rawFrame(want), buf.Bytes())
}

func TestFrameRoundTrip(t *testing.T) {
	ct := make([]byte, 16)
	for i := range ct {
		ct[i] = byte(i * 17)
	}
	msg, err := NewMessageFrame("alice", "bob", ct)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, msg))
	require.NoError(t, WriteFrame(&buf, NewErrorFrame("recipient \"carol\" is not connected")))

	got, err := ReadFrame(&buf, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeMessage, got.Type)
	assert.Equal(t, "alice", got.From)
	assert.Equal(t, "bob", got.Recipient)
	assert.Contains(t, string(got.Data), "[0,17,34,")

	back, err := got.Ciphertext()
	require.NoError(t, err)
	assert.Equal(t, ct, back)

	got, err = ReadFrame(&buf, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeError, got.Type)
	assert.Equal(t, ServerName, got.From)
	assert.Contains(t, got.Reason, "carol")

	_, err = ReadFrame(&buf, 0, 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameErrors(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		r := bytes.NewReader(binary.BigEndian.AppendUint32(nil, 2<<20))
		_, err := ReadFrame(r, 0, 0)
		assert.ErrorIs(t, err, ErrFrameTooLarge)

		r = bytes.NewReader(rawFrame(`{"type":"message"}`))
		_, err = ReadFrame(r, 8, 0)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})

	t.Run("truncated body", func(t *testing.T) {
		data := rawFrame(`{"type":"message"}`)
		_, err := ReadFrame(bytes.NewReader(data[:10]), 0, 0)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("malformed keeps stream aligned", func(t *testing.T) {
		var buf bytes.Buffer
		buf.Write(rawFrame("not json"))
		buf.Write(rawFrame(`{"type":"message","from":"a"}`))

		_, err := ReadFrame(&buf, 0, 0)
		assert.ErrorIs(t, err, ErrMalformedFrame)

		f, err := ReadFrame(&buf, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "a", f.From)
	})

	t.Run("body deadline", func(t *testing.T) {
		a, b := net.Pipe()
		defer a.Close()
		defer b.Close()

		go func() {
			_, _ = a.Write(binary.BigEndian.AppendUint32(nil, 32))
		}()

		_, err := ReadFrame(b, 0, 50*time.Millisecond)
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	})
}

func TestKeyFramePayload(t *testing.T) {
	pub, _, err := rsa.GenerateKeys(64)
	require.NoError(t, err)

	f, err := NewKeyFrame("bob", pub)
	require.NoError(t, err)

	got, err := f.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, 0, got.N.Cmp(pub.N))
	assert.Equal(t, 0, got.E.Cmp(pub.E))

	tests := []struct {
		name string
		data string
	}{
		{"not decimal", `["0x10","7"]`},
		{"three fields", `["1","2","3"]`},
		{"numbers not strings", `[3233,7]`},
		{"zero modulus", `["0","7"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Frame{Type: TypeKey, From: "bob", Data: []byte(tt.data)}
			_, err := f.PublicKey()
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestOfferFramePayload(t *testing.T) {
	wrapped := make([]*big.Int, 16)
	for i := range wrapped {
		wrapped[i] = new(big.Int).Lsh(big.NewInt(int64(i+1)), 70)
	}

	f, err := NewOfferFrame(wrapped)
	require.NoError(t, err)
	assert.Equal(t, TypeSharedAESOffer, f.Type)
	assert.Equal(t, ServerName, f.From)

	got, err := f.Offer()
	require.NoError(t, err)
	for i := range wrapped {
		assert.Equal(t, 0, wrapped[i].Cmp(got[i]))
	}

	short, err := NewOfferFrame(wrapped[:15])
	require.NoError(t, err)
	_, err = short.Offer()
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestCiphertextValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"fifteen bytes", `[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15]`},
		{"out of range", `[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,256]`},
		{"negative", `[-1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16]`},
		{"base64 string", `"AAECAwQFBgcICQoLDA0ODw=="`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Frame{Type: TypeMessage, Data: []byte(tt.data)}
			_, err := f.Ciphertext()
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestPadBlock(t *testing.T) {
	assert.Equal(t, append([]byte("hi"), make([]byte, 14)...), PadBlock([]byte("hi")))
	assert.Equal(t, []byte("0123456789abcdef"), PadBlock([]byte("0123456789abcdefXYZ")))
	assert.Len(t, PadBlock(nil), 16)

	assert.Equal(t, []byte("hi"), UnpadBlock(PadBlock([]byte("hi"))))
	assert.Empty(t, UnpadBlock(make([]byte, 16)))
	// Interior NULs survive.
	assert.Equal(t, []byte("a\x00b"), UnpadBlock(PadBlock([]byte("a\x00b"))))
}
