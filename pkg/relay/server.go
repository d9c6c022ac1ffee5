package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/Davincible/fips197/pkg/crypto/rsa"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/dolthub/swiss"
)

type Config struct {
	Listen string
	// ReadTimeout bounds the handshake and the body of every frame.
	ReadTimeout time.Duration
	// WriteTimeout bounds each frame written to a client. Zero uses ReadTimeout.
	WriteTimeout time.Duration
	MaxFrameSize int
	Logger       *slog.Logger
}

type Server struct {
	cfg Config
	log *slog.Logger

	clientsLock sync.Mutex
	clients     *swiss.Map[string, *peer]

	wg sync.WaitGroup
}

type peer struct {
	name    string
	conn    net.Conn
	pub     rsa.PublicKey
	session *aes.Cipher

	writeTimeout time.Duration
	writeLock    sync.Mutex
}

// send writes f within the peer's write timeout. A failed write may leave a
// partial frame on the wire, so callers close the connection on error.
func (p *peer) send(f *Frame) error {
	p.writeLock.Lock()
	defer p.writeLock.Unlock()

	if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
		return err
	}
	defer p.conn.SetWriteDeadline(time.Time{})

	return WriteFrame(p.conn, f)
}

func NewServer(cfg Config) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = cfg.ReadTimeout
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		cfg:     cfg,
		log:     log.With("component", "relay"),
		clients: swiss.NewMap[string, *peer](16),
	}
}

// ListenAndServe listens on the configured TCP address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. It closes ln and every
// client connection before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("listening", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var err error
	for {
		var conn net.Conn
		conn, err = ln.Accept()
		if err != nil {
			break
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}

	s.wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("accept failed: %w", err)
}

// Clients returns the names of the registered clients in sorted order.
func (s *Server) Clients() []string {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	names := make([]string, 0, s.clients.Count())
	s.clients.Iter(func(name string, _ *peer) (stop bool) {
		names = append(names, name)
		return false
	})
	slices.Sort(names)
	return names
}

func (s *Server) lookup(name string) (*peer, bool) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	return s.clients.Get(name)
}

func (s *Server) register(p *peer) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	s.clients.Put(p.name, p)
}

// unregister removes p unless its name has since been claimed by a newer
// connection.
func (s *Server) unregister(p *peer) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	if current, ok := s.clients.Get(p.name); ok && current == p {
		s.clients.Delete(p.name)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	remote := conn.RemoteAddr().String()

	p, offer, err := s.handshake(conn)
	if err != nil {
		s.log.Warn("handshake failed", "remote", remote, "error", err)
		return
	}
	s.register(p)
	defer s.unregister(p)

	if err := p.send(offer); err != nil {
		s.log.Warn("failed to send key offer", "name", p.name, "error", err)
		return
	}
	s.log.Info("client connected", "name", p.name, "remote", remote)

	for {
		f, err := ReadFrame(conn, s.cfg.MaxFrameSize, s.cfg.ReadTimeout)
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				s.log.Warn("malformed frame", "name", p.name, "error", err)
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.log.Info("client disconnected", "name", p.name)
			} else {
				s.log.Warn("client dropped", "name", p.name, "error", err)
			}
			return
		}

		switch f.Type {
		case TypeMessage:
			s.forward(p, f)
		default:
			s.log.Warn("unknown frame type", "name", p.name, "type", f.Type)
		}
	}
}

// handshake reads the client's key frame and prepares a fresh AES-128
// session key wrapped under that key.
func (s *Server) handshake(conn net.Conn) (*peer, *Frame, error) {
	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		return nil, nil, err
	}
	f, err := ReadFrame(conn, s.cfg.MaxFrameSize, s.cfg.ReadTimeout)
	_ = conn.SetReadDeadline(time.Time{})
	if err != nil {
		return nil, nil, err
	}
	if f.Type != TypeKey || f.From == "" {
		return nil, nil, fmt.Errorf("expected key frame, got %q from %q", f.Type, f.From)
	}
	if f.From == ServerName {
		return nil, nil, fmt.Errorf("client name %q is reserved", f.From)
	}

	pub, err := f.PublicKey()
	if err != nil {
		return nil, nil, err
	}

	key, err := secure.RandomKey(128)
	if err != nil {
		return nil, nil, err
	}
	defer secure.Zero(key)

	wrapped, err := rsa.EncryptBytes(key, pub)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to wrap session key: %w", err)
	}

	session, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	offer, err := NewOfferFrame(wrapped)
	if err != nil {
		return nil, nil, err
	}

	p := &peer{
		name:         f.From,
		conn:         conn,
		pub:          pub,
		session:      session,
		writeTimeout: s.cfg.WriteTimeout,
	}
	return p, offer, nil
}

func (s *Server) forward(sender *peer, f *Frame) {
	if f.From != sender.name {
		s.log.Warn("sender mismatch, discarding", "name", sender.name, "from", f.From)
		s.reject(sender, fmt.Sprintf("sender %q does not match connection %q", f.From, sender.name))
		return
	}

	recipient, ok := s.lookup(f.Recipient)
	if !ok {
		s.log.Warn("unknown recipient", "from", sender.name, "recipient", f.Recipient)
		s.reject(sender, fmt.Sprintf("recipient %q is not connected", f.Recipient))
		return
	}

	ciphertext, err := f.Ciphertext()
	if err != nil {
		s.reject(sender, err.Error())
		return
	}

	plaintext, err := sender.session.DecryptBlock(ciphertext)
	if err != nil {
		s.log.Warn("failed to decrypt", "from", sender.name, "error", err)
		return
	}
	text := UnpadBlock(plaintext)
	s.log.Debug("forwarding", "from", sender.name, "recipient", recipient.name, "bytes", len(text))

	out, err := recipient.session.EncryptBlock(PadBlock(text))
	secure.Zero(plaintext)
	if err != nil {
		s.log.Warn("failed to re-encrypt", "recipient", recipient.name, "error", err)
		return
	}

	msg, err := NewMessageFrame(sender.name, recipient.name, out)
	if err != nil {
		s.log.Warn("failed to encode message", "error", err)
		return
	}

	if err := recipient.send(msg); err != nil {
		s.log.Warn("failed to forward, dropping recipient", "recipient", recipient.name, "error", err)
		s.unregister(recipient)
		_ = recipient.conn.Close()
	}
}

func (s *Server) reject(p *peer, reason string) {
	if err := p.send(NewErrorFrame(reason)); err != nil {
		s.log.Warn("failed to send error frame, dropping client", "name", p.name, "error", err)
		_ = p.conn.Close()
	}
}
