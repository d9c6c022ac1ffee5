package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the fips197 command tree. level is lowered to
// Debug when --verbose is given.
func NewRootCommand(version string, level *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fips197",
		Short: "AES (FIPS-197) block cipher toolkit",
		Long: `fips197 implements the AES block cipher as specified in FIPS-197.

It encrypts and decrypts single 16-byte blocks with 128, 192 or 256-bit
keys and exposes the expanded key schedule.

Features:
- Single-block AES encryption and decryption
- Forward and equivalent-inverse key schedules
- Known-answer self test against the FIPS-197 appendices
- Key generation, derivation, threshold splitting and mnemonic backup
- Passphrase-protected keyring
- Encrypted relay chat with RSA-wrapped session keys`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
	}

	rootCmd.AddCommand(
		NewEncryptCommand(),
		NewDecryptCommand(),
		NewScheduleCommand(),
		NewSelftestCommand(),
		NewKeyCommand(),
		NewRelayCommand(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	return rootCmd
}
