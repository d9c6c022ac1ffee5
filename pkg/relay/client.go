package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/Davincible/fips197/pkg/crypto/rsa"
	"github.com/Davincible/fips197/pkg/secure"
)

// DefaultPrimeBits sizes each RSA prime a client generates.
const DefaultPrimeBits = 512

var ErrClientClosed = errors.New("relay: client closed")

// ServerError is an error frame sent back by the server.
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string {
	return "relay: server rejected message: " + e.Reason
}

// Message is a decrypted message delivered to a client.
type Message struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type event struct {
	msg Message
	err error
}

type Client struct {
	name    string
	conn    net.Conn
	session *aes.Cipher

	maxFrame int
	timeout  time.Duration

	writeLock sync.Mutex
	events    chan event
	closed    atomic.Bool
	quit      chan struct{}
	done      chan struct{}
	readErr   atomic.Pointer[error]
}

// Dial connects to the relay at addr as name and completes the key exchange.
// bits sizes the RSA primes; zero selects DefaultPrimeBits.
func Dial(ctx context.Context, addr, name string, bits int) (*Client, error) {
	if name == "" || name == ServerName {
		return nil, fmt.Errorf("invalid client name %q", name)
	}
	if bits == 0 {
		bits = DefaultPrimeBits
	}

	pub, priv, err := rsa.GenerateKeys(bits)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c := &Client{
		name:     name,
		conn:     conn,
		maxFrame: DefaultMaxFrameSize,
		timeout:  DefaultReadTimeout,
		events:   make(chan event, 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := c.handshake(ctx, pub, priv); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) handshake(ctx context.Context, pub rsa.PublicKey, priv rsa.PrivateKey) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	hello, err := NewKeyFrame(c.name, pub)
	if err != nil {
		return err
	}
	if err := c.write(hello); err != nil {
		return err
	}

	f, err := ReadFrame(c.conn, c.maxFrame, c.timeout)
	if err != nil {
		return fmt.Errorf("failed to read key offer: %w", err)
	}
	if f.Type == TypeError {
		return &ServerError{Reason: f.Reason}
	}
	if f.Type != TypeSharedAESOffer {
		return fmt.Errorf("expected key offer, got %q", f.Type)
	}

	wrapped, err := f.Offer()
	if err != nil {
		return err
	}
	key, err := rsa.DecryptBytes(wrapped, priv)
	if err != nil {
		return fmt.Errorf("failed to unwrap session key: %w", err)
	}
	defer secure.Zero(key)

	c.session, err = aes.NewCipher(key)
	return err
}

func (c *Client) Name() string {
	return c.name
}

// Send encrypts text for to. Text is truncated or null-padded to one block.
func (c *Client) Send(to, text string) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if c.closed.Load() {
		return ErrClientClosed
	}

	ciphertext, err := c.session.EncryptBlock(PadBlock([]byte(text)))
	if err != nil {
		return err
	}

	f, err := NewMessageFrame(c.name, to, ciphertext)
	if err != nil {
		return err
	}
	return WriteFrame(c.conn, f)
}

// Receive waits for the next message. Error frames from the server are
// returned as *ServerError.
func (c *Client) Receive(ctx context.Context) (Message, error) {
	select {
	case ev := <-c.events:
		return ev.msg, ev.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-c.done:
		// Drain anything read before the connection ended.
		select {
		case ev := <-c.events:
			return ev.msg, ev.err
		default:
		}
		if errp := c.readErr.Load(); errp != nil {
			return Message{}, *errp
		}
		return Message{}, ErrClientClosed
	}
}

func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.quit)
	err := c.conn.Close()
	<-c.done

	c.writeLock.Lock()
	c.session.Wipe()
	c.writeLock.Unlock()
	return err
}

func (c *Client) write(f *Frame) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return WriteFrame(c.conn, f)
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		f, err := ReadFrame(c.conn, c.maxFrame, c.timeout)
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				continue
			}
			if !c.closed.Load() {
				err = fmt.Errorf("connection lost: %w", err)
				c.readErr.Store(&err)
			}
			return
		}

		var ev event
		switch f.Type {
		case TypeMessage:
			ev.msg, ev.err = c.decode(f)
		case TypeError:
			ev.err = &ServerError{Reason: f.Reason}
		default:
			continue
		}

		select {
		case c.events <- ev:
		case <-c.quit:
			return
		}
	}
}

func (c *Client) decode(f *Frame) (Message, error) {
	ciphertext, err := f.Ciphertext()
	if err != nil {
		return Message{}, err
	}
	plaintext, err := c.session.DecryptBlock(ciphertext)
	if err != nil {
		return Message{}, err
	}
	return Message{
		From: f.From,
		To:   f.Recipient,
		Text: string(UnpadBlock(plaintext)),
	}, nil
}
