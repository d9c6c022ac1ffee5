// Package storage keeps AES keys in a passphrase-protected keyring file.
//
// Each entry is sealed on its own with AES-256-GCM, using this module's
// block cipher under a key stretched from the passphrase. The entry name is
// authenticated as additional data so entries cannot be swapped.
package storage

import (
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 32
	NonceSize  = 12
	KeySize    = 32
	Iterations = 100000

	KDFPBKDF2   = "pbkdf2-sha256"
	KDFArgon2id = "argon2id"

	fileVersion = 1
)

var (
	ErrNotFound        = errors.New("storage: key not found")
	ErrWrongPassphrase = errors.New("storage: wrong passphrase or corrupted entry")
)

type Argon2Params struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 4,
}

type Entry struct {
	KeyBits    int           `json:"key_bits"`
	KDF        string        `json:"kdf"`
	Iterations int           `json:"iterations,omitempty"`
	Argon2     *Argon2Params `json:"argon2,omitempty"`
	Salt       []byte        `json:"salt"`
	Nonce      []byte        `json:"nonce"`
	Ciphertext []byte        `json:"ciphertext"`
	Created    time.Time     `json:"created"`
}

type keyringFile struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

type Keyring struct {
	path       string
	kdf        string
	iterations int
	argon2     Argon2Params
}

type Option func(*Keyring)

// WithIterations sets the PBKDF2 iteration count for new entries.
func WithIterations(n int) Option {
	return func(k *Keyring) {
		if n > 0 {
			k.iterations = n
		}
	}
}

// WithArgon2 makes new entries use Argon2id instead of PBKDF2.
func WithArgon2(params Argon2Params) Option {
	return func(k *Keyring) {
		k.kdf = KDFArgon2id
		k.argon2 = params
	}
}

func NewKeyring(path string, opts ...Option) *Keyring {
	k := &Keyring{
		path:       path,
		kdf:        KDFPBKDF2,
		iterations: Iterations,
		argon2:     DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Keyring) Path() string {
	return k.path
}

// Save seals key under passphrase and stores it as name, replacing any
// existing entry with that name.
func (k *Keyring) Save(name string, key, passphrase []byte) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(passphrase) == 0 {
		return fmt.Errorf("passphrase cannot be empty")
	}
	if _, err := aes.Rounds(len(key)); err != nil {
		return err
	}

	f, err := k.read()
	if err != nil {
		return err
	}

	salt, err := secure.SecureRandom(SaltSize)
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce, err := secure.SecureRandom(NonceSize)
	if err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	entry := Entry{
		KeyBits: len(key) * 8,
		KDF:     k.kdf,
		Salt:    salt,
		Nonce:   nonce,
		Created: time.Now().UTC(),
	}
	switch k.kdf {
	case KDFArgon2id:
		params := k.argon2
		entry.Argon2 = &params
	default:
		entry.Iterations = k.iterations
	}

	gcm, err := entry.aead(passphrase)
	if err != nil {
		return err
	}
	entry.Ciphertext = gcm.Seal(nil, nonce, key, []byte(name))

	f.Entries[name] = entry
	return k.write(f)
}

// Load opens the entry stored as name.
func (k *Keyring) Load(name string, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	f, err := k.read()
	if err != nil {
		return nil, err
	}

	entry, ok := f.Entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if len(entry.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: bad nonce length %d", ErrWrongPassphrase, len(entry.Nonce))
	}

	gcm, err := entry.aead(passphrase)
	if err != nil {
		return nil, err
	}

	key, err := gcm.Open(nil, entry.Nonce, entry.Ciphertext, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}
	if _, err := aes.Rounds(len(key)); err != nil {
		secure.Zero(key)
		return nil, fmt.Errorf("stored key: %w", err)
	}

	return key, nil
}

// Names lists the stored entries in sorted order.
func (k *Keyring) Names() ([]string, error) {
	f, err := k.read()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.Entries))
	for name := range f.Entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (k *Keyring) Entry(name string) (Entry, error) {
	f, err := k.read()
	if err != nil {
		return Entry{}, err
	}
	entry, ok := f.Entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return entry, nil
}

func (k *Keyring) Delete(name string) error {
	f, err := k.read()
	if err != nil {
		return err
	}
	if _, ok := f.Entries[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(f.Entries, name)
	return k.write(f)
}

func (e *Entry) aead(passphrase []byte) (cipher.AEAD, error) {
	var key []byte
	switch e.KDF {
	case KDFPBKDF2:
		if e.Iterations <= 0 {
			return nil, fmt.Errorf("invalid iteration count: %d", e.Iterations)
		}
		key = pbkdf2.Key(passphrase, e.Salt, e.Iterations, KeySize, sha256.New)
	case KDFArgon2id:
		if e.Argon2 == nil {
			return nil, fmt.Errorf("missing argon2 parameters")
		}
		key = argon2.IDKey(passphrase, e.Salt, e.Argon2.Time, e.Argon2.Memory, e.Argon2.Threads, KeySize)
	default:
		return nil, fmt.Errorf("unsupported kdf %q", e.KDF)
	}
	defer secure.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func (k *Keyring) read() (*keyringFile, error) {
	data, err := os.ReadFile(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return &keyringFile{Version: fileVersion, Entries: make(map[string]Entry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var f keyringFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keyring: %w", err)
	}
	if f.Version != fileVersion {
		return nil, fmt.Errorf("unsupported keyring version %d", f.Version)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]Entry)
	}
	return &f, nil
}

// write replaces the keyring file atomically.
func (k *Keyring) write(f *keyringFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keyring: %w", err)
	}

	dir := filepath.Dir(k.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keyring-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), k.path); err != nil {
		return fmt.Errorf("failed to replace keyring: %w", err)
	}
	return nil
}
