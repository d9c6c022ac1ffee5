// Package relay forwards short AES-encrypted messages between named clients.
//
// Every client announces an RSA public key, receives a fresh AES-128 session
// key wrapped byte by byte under it, and from then on exchanges single
// 16-byte blocks with the server. The server decrypts with the sender's
// session key and re-encrypts with the recipient's before forwarding.
package relay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/Davincible/fips197/pkg/crypto/rsa"
	"github.com/goccy/go-json"
)

const (
	DefaultMaxFrameSize = 1 << 20
	DefaultReadTimeout  = 10 * time.Second

	// ServerName is the sender name the server uses for its own frames.
	ServerName = "server"

	headerSize = 4
)

const (
	TypeKey            = "key"
	TypeSharedAESOffer = "shared_aes_offer"
	TypeMessage        = "message"
	TypeError          = "error"
)

var (
	ErrFrameTooLarge  = errors.New("relay: frame too large")
	ErrMalformedFrame = errors.New("relay: malformed frame")
)

type Frame struct {
	Type      string          `json:"type"`
	From      string          `json:"from"`
	Recipient string          `json:"recipient,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// NewKeyFrame announces pub. Integers travel as decimal strings.
func NewKeyFrame(name string, pub rsa.PublicKey) (*Frame, error) {
	data, err := json.Marshal([]string{pub.N.String(), pub.E.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}
	return &Frame{Type: TypeKey, From: name, Data: data}, nil
}

func (f *Frame) PublicKey() (rsa.PublicKey, error) {
	ints, err := f.bigInts()
	if err != nil {
		return rsa.PublicKey{}, err
	}
	if len(ints) != 2 {
		return rsa.PublicKey{}, fmt.Errorf("%w: public key has %d fields", ErrMalformedFrame, len(ints))
	}
	if ints[0].Sign() <= 0 || ints[1].Sign() <= 0 {
		return rsa.PublicKey{}, fmt.Errorf("%w: public key fields must be positive", ErrMalformedFrame)
	}
	return rsa.PublicKey{N: ints[0], E: ints[1]}, nil
}

func NewOfferFrame(wrapped []*big.Int) (*Frame, error) {
	fields := make([]string, len(wrapped))
	for i, c := range wrapped {
		fields[i] = c.String()
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode key offer: %w", err)
	}
	return &Frame{Type: TypeSharedAESOffer, From: ServerName, Data: data}, nil
}

// Offer returns the RSA-wrapped bytes of an AES-128 session key.
func (f *Frame) Offer() ([]*big.Int, error) {
	ints, err := f.bigInts()
	if err != nil {
		return nil, err
	}
	if len(ints) != 16 {
		return nil, fmt.Errorf("%w: key offer has %d bytes", ErrMalformedFrame, len(ints))
	}
	return ints, nil
}

func NewMessageFrame(from, to string, ciphertext []byte) (*Frame, error) {
	ints := make([]int, len(ciphertext))
	for i, b := range ciphertext {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return &Frame{Type: TypeMessage, From: from, Recipient: to, Data: data}, nil
}

// Ciphertext returns the single block carried by a message frame.
func (f *Frame) Ciphertext() ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(f.Data, &ints); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(ints) != aes.BlockSize {
		return nil, fmt.Errorf("%w: message carries %d bytes", ErrMalformedFrame, len(ints))
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xff {
			return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrMalformedFrame, i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func NewErrorFrame(reason string) *Frame {
	return &Frame{Type: TypeError, From: ServerName, Reason: reason}
}

func (f *Frame) bigInts() ([]*big.Int, error) {
	var fields []string
	if err := json.Unmarshal(f.Data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	out := make([]*big.Int, len(fields))
	for i, s := range fields {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: field %d is not a decimal integer", ErrMalformedFrame, i)
		}
		out[i] = v
	}
	return out, nil
}

// WriteFrame writes f as a 4-byte big-endian length followed by its JSON body.
func WriteFrame(w io.Writer, f *Frame) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if len(body) > DefaultMaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(body))
	}

	buf := binary.BigEndian.AppendUint32(make([]byte, 0, headerSize+len(body)), uint32(len(body)))
	buf = append(buf, body...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// ReadFrame blocks until a length header arrives, then allows timeout for the
// body when r supports read deadlines. A body that is not valid JSON returns
// ErrMalformedFrame with the stream still aligned on the next frame.
func ReadFrame(r io.Reader, maxSize int, timeout time.Duration) (*Frame, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if uint64(size) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFrameTooLarge, size, maxSize)
	}

	dl, hasDeadline := r.(readDeadliner)
	if hasDeadline && timeout > 0 {
		if err := dl.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	body := make([]byte, size)
	_, err := io.ReadFull(r, body)

	if hasDeadline && timeout > 0 {
		_ = dl.SetReadDeadline(time.Time{})
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read frame body: %w", err)
	}

	var f Frame
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &f, nil
}

// PadBlock null-pads or truncates b to exactly one block.
func PadBlock(b []byte) []byte {
	out := make([]byte, aes.BlockSize)
	copy(out, b)
	return out
}

// UnpadBlock strips trailing NUL bytes.
func UnpadBlock(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}
