package cli

import (
	"fmt"
	"strings"

	"github.com/Davincible/fips197/internal/validation"
	"github.com/Davincible/fips197/pkg/crypto/mnemonic"
	"github.com/Davincible/fips197/pkg/crypto/shamir"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"
)

type SplitResult struct {
	KeyBits   int      `json:"key_bits"`
	Parts     int      `json:"parts"`
	Threshold int      `json:"threshold"`
	Shares    []string `json:"shares"`
}

func NewSplitCommand() *cobra.Command {
	var (
		keyHex    string
		parts     int
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split an AES key into threshold shares",
		Long: `Split an AES key into N shares using Shamir's Secret Sharing.
Any T shares recover the key; fewer reveal nothing about it.

Each share is printed as hex and is one byte longer than the key.`,
		Example: `  # 2-of-3 (defaults from config)
  fips197 key split --key 000102030405060708090a0b0c0d0e0f

  # 3-of-5
  fips197 key split --parts 5 --threshold 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("parts") || !cmd.Flags().Changed("threshold") {
				cm, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				defaults := cm.GetConfig().Defaults
				if !cmd.Flags().Changed("parts") {
					parts = defaults.Parts
				}
				if !cmd.Flags().Changed("threshold") {
					threshold = defaults.Threshold
				}
			}
			if err := validation.ValidateSplitParams(parts, threshold); err != nil {
				return err
			}

			key, err := readKey(cmd, keyHex)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			shares, err := shamir.Split(key, shamir.Config{Parts: parts, Threshold: threshold})
			if err != nil {
				return err
			}

			result := SplitResult{
				KeyBits:   len(key) * 8,
				Parts:     parts,
				Threshold: threshold,
				Shares:    make([]string, len(shares)),
			}
			for i, s := range shares {
				result.Shares[i] = hex.EncodeToString(s.Data)
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			printHeader(cmd, fmt.Sprintf("KEY SHARES (%d of %d)", threshold, parts))
			for i, s := range result.Shares {
				printField(cmd, fmt.Sprintf("Share %d", i+1), s)
			}
			printWarning(cmd, fmt.Sprintf("Distribute the shares separately. Any %d of them recover the key.", threshold))
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyHex, "key", "k", "", "AES key in hex (prompted if omitted)")
	cmd.Flags().IntVarP(&parts, "parts", "n", 3, "Number of shares to create")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "Shares required to recover")

	return cmd
}

func NewCombineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine SHARE SHARE [SHARE...]",
		Short: "Recover an AES key from shares",
		Long: `Recombine hex shares produced by 'fips197 key split'.

Supplying fewer shares than the threshold does not fail: it yields a
different, wrong key.`,
		Example: `  fips197 key combine 3f1c...a2 9be0...17`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares := make([]shamir.Share, len(args))
			for i, arg := range args {
				if err := validation.ValidateShare(arg); err != nil {
					return fmt.Errorf("share %d: %w", i+1, err)
				}
				data, err := validation.DecodeHex(arg)
				if err != nil {
					return fmt.Errorf("share %d: %w", i+1, err)
				}
				shares[i] = shamir.Share{Index: byte(i + 1), Data: data}
			}

			key, err := shamir.Combine(shares)
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

			printHeader(cmd, fmt.Sprintf("RECOVERED AES-%d KEY", result.KeyBits))
			printField(cmd, "Key", result.Key)
			return nil
		},
	}

	return cmd
}

func NewMnemonicCommand() *cobra.Command {
	var keyHex string

	cmd := &cobra.Command{
		Use:   "mnemonic",
		Short: "Show an AES key as a BIP-39 mnemonic",
		Long: `Encode an AES key as a BIP-39 word list: 12 words for 128-bit keys,
18 for 192-bit and 24 for 256-bit.`,
		Example: `  fips197 key mnemonic --key 000102030405060708090a0b0c0d0e0f`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, keyHex)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			m, err := mnemonic.FromKey(key)
			if err != nil {
				return err
			}

			result := KeyResult{
				KeyBits:  len(key) * 8,
				Key:      hex.EncodeToString(key),
				Mnemonic: m.Words(),
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			printHeader(cmd, fmt.Sprintf("%d-WORD MNEMONIC", m.WordCount()))
			out := cmd.OutOrStdout()
			for i, word := range m.WordList() {
				fmt.Fprintf(out, "%2d. %s\n", i+1, word)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyHex, "key", "k", "", "AES key in hex (prompted if omitted)")

	return cmd
}

func NewRecoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover [WORD...]",
		Short: "Recover an AES key from a BIP-39 mnemonic",
		Long: `Decode a 12, 18 or 24 word mnemonic back into the AES key. The words
are read from the arguments, or prompted for when none are given.`,
		Example: `  fips197 key recover abandon abandon abandon ... about`,
		RunE: func(cmd *cobra.Command, args []string) error {
			words := validation.SanitizeInput(strings.Join(args, " "))
			if words == "" {
				var err error
				words, err = readPassphrase(cmd, "Enter mnemonic: ")
				if err != nil {
					return err
				}
			}
			if err := validation.ValidateMnemonic(words); err != nil {
				return err
			}

			m, err := mnemonic.FromWords(words)
			if err != nil {
				return err
			}
			key, err := m.Key()
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

			printHeader(cmd, fmt.Sprintf("RECOVERED AES-%d KEY", result.KeyBits))
			printField(cmd, "Key", result.Key)
			return nil
		},
	}

	return cmd
}

func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify SHARE",
		Short: "Check that a share is well formed",
		Long: `Check that a share decodes and has the length of a 128, 192 or
256-bit key share. This cannot tell whether the share belongs to a
particular key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := validation.DecodeHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid share format: %w", err)
			}

			if err := shamir.VerifyShare(shamir.Share{Index: 1, Data: data}); err != nil {
				return err
			}

			keyBits := (len(data) - 1) * 8
			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]any{"valid": true, "key_bits": keyBits})
			}

			okColor.Fprintln(cmd.OutOrStdout(), "✓ Share format is valid")
			printField(cmd, "Length ", fmt.Sprintf("%d bytes", len(data)))
			printField(cmd, "Key size", fmt.Sprintf("%d bits", keyBits))
			return nil
		},
	}

	return cmd
}
