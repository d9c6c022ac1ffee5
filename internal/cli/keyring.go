package cli

import (
	"fmt"
	"time"

	"github.com/Davincible/fips197/internal/validation"
	"github.com/Davincible/fips197/pkg/config"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/Davincible/fips197/pkg/storage"
	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"
)

type KeyringEntryInfo struct {
	Name    string    `json:"name"`
	KeyBits int       `json:"key_bits"`
	KDF     string    `json:"kdf"`
	Created time.Time `json:"created"`
}

// openKeyring returns the keyring configured for this invocation along with
// the loaded config.
func openKeyring(cmd *cobra.Command) (*storage.Keyring, *config.Config, error) {
	cm, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg := cm.GetConfig()

	path, err := cm.KeyringPath()
	if err != nil {
		return nil, nil, err
	}

	opts := []storage.Option{storage.WithIterations(cfg.Defaults.Iterations)}
	if cfg.Security.KDF == storage.KDFArgon2id {
		opts = append(opts, storage.WithArgon2(storage.DefaultArgon2Params))
	}
	return storage.NewKeyring(path, opts...), cfg, nil
}

func NewSaveCommand() *cobra.Command {
	var keyHex string

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Store a key in the passphrase-protected keyring",
		Long: `Seal an AES key under a passphrase and store it in the keyring file.
An existing entry with the same name is replaced.

The passphrase is stretched with PBKDF2-SHA256 or Argon2id, depending on
security.kdf in the config, and the key is sealed with AES-GCM.`,
		Example: `  fips197 key save backup --key 000102030405060708090a0b0c0d0e0f`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validation.ValidateName(name); err != nil {
				return err
			}

			kr, cfg, err := openKeyring(cmd)
			if err != nil {
				return err
			}

			key, err := readKey(cmd, keyHex)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			passphrase, err := readNewPassphrase(cmd, cfg.Security.MinPassphraseLength)
			if err != nil {
				return err
			}
			pass := []byte(passphrase)
			defer secure.Zero(pass)

			if err := kr.Save(name, key, pass); err != nil {
				return fmt.Errorf("failed to save key: %w", err)
			}

			entry, err := kr.Entry(name)
			if err != nil {
				return err
			}
			info := KeyringEntryInfo{Name: name, KeyBits: entry.KeyBits, KDF: entry.KDF, Created: entry.Created}

			if jsonOutput(cmd) {
				return writeJSON(cmd, info)
			}

			okColor.Fprintf(cmd.OutOrStdout(), "✓ Saved AES-%d key %q to %s\n", info.KeyBits, name, kr.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyHex, "key", "k", "", "AES key in hex (prompted if omitted)")

	return cmd
}

func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "load NAME",
		Short:   "Print a key stored in the keyring",
		Example: `  fips197 key load backup`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, _, err := openKeyring(cmd)
			if err != nil {
				return err
			}

			passphrase, err := readPassphrase(cmd, "Enter passphrase: ")
			if err != nil {
				return err
			}
			pass := []byte(passphrase)
			defer secure.Zero(pass)

			key, err := kr.Load(args[0], pass)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			result := KeyResult{
				KeyBits: len(key) * 8,
				Key:     hex.EncodeToString(key),
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			printField(cmd, args[0], result.Key)
			return nil
		},
	}

	return cmd
}

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keyring entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, _, err := openKeyring(cmd)
			if err != nil {
				return err
			}

			names, err := kr.Names()
			if err != nil {
				return err
			}

			infos := make([]KeyringEntryInfo, 0, len(names))
			for _, name := range names {
				entry, err := kr.Entry(name)
				if err != nil {
					return err
				}
				infos = append(infos, KeyringEntryInfo{Name: name, KeyBits: entry.KeyBits, KDF: entry.KDF, Created: entry.Created})
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, infos)
			}

			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Keyring is empty")
				return nil
			}

			printHeader(cmd, "KEYRING")
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s AES-%d  %-14s %s\n",
					info.Name, info.KeyBits, info.KDF, info.Created.Format(time.RFC3339))
			}
			return nil
		},
	}

	return cmd
}

func NewDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a key from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, _, err := openKeyring(cmd)
			if err != nil {
				return err
			}
			if err := kr.Delete(args[0]); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]string{"deleted": args[0]})
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Deleted %q\n", args[0])
			return nil
		},
	}

	return cmd
}
