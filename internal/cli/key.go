package cli

import (
	"crypto/sha256"
	"fmt"

	"github.com/Davincible/fips197/internal/validation"
	"github.com/Davincible/fips197/pkg/crypto/mnemonic"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"
	"golang.org/x/crypto/pbkdf2"
)

const deriveSaltSize = 16

// NewKeyCommand groups the key management subcommands.
func NewKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate, derive, split, back up and store AES keys",
	}

	cmd.AddCommand(
		NewGenerateCommand(),
		NewDeriveCommand(),
		NewSplitCommand(),
		NewCombineCommand(),
		NewVerifyCommand(),
		NewMnemonicCommand(),
		NewRecoverCommand(),
		NewSaveCommand(),
		NewLoadCommand(),
		NewListCommand(),
		NewDeleteCommand(),
	)

	return cmd
}

type KeyResult struct {
	KeyBits    int    `json:"key_bits"`
	Key        string `json:"key"`
	Mnemonic   string `json:"mnemonic,omitempty"`
	Salt       string `json:"salt,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

func NewGenerateCommand() *cobra.Command {
	var (
		size         int
		withMnemonic bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random AES key",
		Long: `Generate a new AES key from the operating system's secure random
source. With --mnemonic the key is also shown as a BIP-39 word list that
can be written down and later restored with 'fips197 key recover'.`,
		Example: `  # 128-bit key (default from config)
  fips197 key generate

  # 256-bit key with a 24-word backup phrase
  fips197 key generate --size 256 --mnemonic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("size") {
				cm, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				size = cm.GetConfig().Defaults.KeySize
			}
			if err := validation.ValidateKeySize(size); err != nil {
				return err
			}

			key, err := secure.RandomKey(size)
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			defer secure.Zero(key)

			result := KeyResult{
				KeyBits: size,
				Key:     hex.EncodeToString(key),
			}

			if withMnemonic {
				m, err := mnemonic.FromKey(key)
				if err != nil {
					return fmt.Errorf("failed to create mnemonic: %w", err)
				}
				result.Mnemonic = m.Words()
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			printHeader(cmd, fmt.Sprintf("NEW AES-%d KEY", size))
			printField(cmd, "Key", result.Key)
			if result.Mnemonic != "" {
				printField(cmd, "Mnemonic", result.Mnemonic)
			}
			printWarning(cmd, "Anyone holding this key can decrypt your data. Store it securely.")
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 128, "Key size in bits (128, 192 or 256)")
	cmd.Flags().BoolVarP(&withMnemonic, "mnemonic", "m", false, "Also print the key as a BIP-39 mnemonic")

	return cmd
}

func NewDeriveCommand() *cobra.Command {
	var (
		size       int
		saltHex    string
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive an AES key from a passphrase",
		Long: `Derive an AES key from a passphrase with PBKDF2-HMAC-SHA256.

The same passphrase, salt and iteration count always give the same key.
Without --salt a fresh random salt is generated and printed; keep it to
derive the key again.`,
		Example: `  # New salt, 256-bit key
  fips197 key derive --size 256

  # Re-derive with a known salt
  fips197 key derive --salt 9f86d081884c7d659a2feaa0c55ad015`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg := cm.GetConfig()
			if !cmd.Flags().Changed("size") {
				size = cfg.Defaults.KeySize
			}
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Defaults.Iterations
			}
			if err := validation.ValidateKeySize(size); err != nil {
				return err
			}
			if iterations <= 0 {
				return fmt.Errorf("iterations must be positive")
			}

			var salt []byte
			if saltHex != "" {
				salt, err = validation.DecodeHex(saltHex)
				if err != nil {
					return fmt.Errorf("invalid salt: %w", err)
				}
			} else {
				salt, err = secure.SecureRandom(deriveSaltSize)
				if err != nil {
					return fmt.Errorf("failed to generate salt: %w", err)
				}
			}

			passphrase, err := readPassphrase(cmd, "Enter passphrase: ")
			if err != nil {
				return err
			}
			if err := validation.ValidatePassphrase(passphrase, cfg.Security.MinPassphraseLength); err != nil {
				return err
			}

			pass := []byte(passphrase)
			key := pbkdf2.Key(pass, salt, iterations, size/8, sha256.New)
			secure.Zero(pass)
			defer secure.Zero(key)

			result := KeyResult{
				KeyBits:    size,
				Key:        hex.EncodeToString(key),
				Salt:       hex.EncodeToString(salt),
				Iterations: iterations,
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			printHeader(cmd, fmt.Sprintf("DERIVED AES-%d KEY", size))
			printField(cmd, "Key       ", result.Key)
			printField(cmd, "Salt      ", result.Salt)
			printField(cmd, "Iterations", fmt.Sprint(result.Iterations))
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 128, "Key size in bits (128, 192 or 256)")
	cmd.Flags().StringVar(&saltHex, "salt", "", "Salt in hex (random if omitted)")
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 100000, "PBKDF2 iterations")

	return cmd
}
