package cli

import (
	"fmt"

	"github.com/Davincible/fips197/internal/validation"
	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/Davincible/fips197/pkg/relay"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"
)

func NewDecryptCommand() *cobra.Command {
	var (
		keyHex   string
		blockHex string
		asText   bool
	)

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a single 16-byte block",
		Long: `Decrypt exactly one 16-byte block with a 128, 192 or 256-bit AES key.

With --text the trailing NUL padding is stripped and the result is
printed as text.`,
		Example: `  # FIPS-197 Appendix C.1
  fips197 decrypt --key 000102030405060708090a0b0c0d0e0f \
    --block 69c4e0d86a7b0430d8cdb78070b4c55a

  # Recover a text message
  fips197 decrypt --key 000102030405060708090a0b0c0d0e0f --block <hex> --text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if blockHex == "" {
				return fmt.Errorf("--block is required")
			}

			block, err := validation.ParseBlock(blockHex)
			if err != nil {
				return err
			}

			key, err := readKey(cmd, keyHex)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			plaintext, err := aes.DecryptBlock(block, key)
			if err != nil {
				return fmt.Errorf("failed to decrypt block: %w", err)
			}

			rounds, _ := aes.Rounds(len(key))
			result := BlockResult{
				KeyBits:    len(key) * 8,
				Rounds:     rounds,
				Plaintext:  hex.EncodeToString(plaintext),
				Ciphertext: hex.EncodeToString(block),
			}
			if asText {
				result.Text = string(relay.UnpadBlock(plaintext))
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			if asText {
				fmt.Fprintln(cmd.OutOrStdout(), result.Text)
				return nil
			}

			printHeader(cmd, fmt.Sprintf("AES-%d DECRYPT", result.KeyBits))
			printField(cmd, "Rounds    ", fmt.Sprint(result.Rounds))
			printField(cmd, "Ciphertext", result.Ciphertext)
			printField(cmd, "Plaintext ", result.Plaintext)
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyHex, "key", "k", "", "AES key in hex (prompted if omitted)")
	cmd.Flags().StringVarP(&blockHex, "block", "b", "", "Ciphertext block in hex (32 digits)")
	cmd.Flags().BoolVarP(&asText, "text", "t", false, "Print the plaintext as text")

	return cmd
}
