package cli

import (
	"fmt"

	"github.com/Davincible/fips197/pkg/crypto/aes"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"
)

type ScheduleResult struct {
	KeyBits  int      `json:"key_bits"`
	Rounds   int      `json:"rounds"`
	Inverse  bool     `json:"inverse"`
	Words    []string `json:"words,omitempty"`
	Round    *int     `json:"round,omitempty"`
	RoundKey string   `json:"round_key,omitempty"`
}

func NewScheduleCommand() *cobra.Command {
	var (
		keyHex  string
		inverse bool
		round   int
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the expanded key schedule",
		Long: `Expand an AES key into its 4*(Nr+1) round-key words.

With --inverse the equivalent inverse schedule used for decryption is
printed instead: rounds 1..Nr-1 are passed through InvMixColumns.`,
		Example: `  # FIPS-197 Appendix A.1
  fips197 schedule --key 2b7e151628aed2a6abf7158809cf4f3c

  # Only round key 1 of the decryption schedule
  fips197 schedule --key 000102030405060708090a0b0c0d0e0f --inverse --round 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, keyHex)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			expand := aes.ExpandKey
			if inverse {
				expand = aes.ExpandKeyInverse
			}
			schedule, err := expand(key)
			if err != nil {
				return fmt.Errorf("failed to expand key: %w", err)
			}

			result := ScheduleResult{
				KeyBits: len(key) * 8,
				Rounds:  schedule.Rounds(),
				Inverse: inverse,
			}

			if cmd.Flags().Changed("round") {
				rk, err := schedule.RoundKey(round)
				if err != nil {
					return err
				}
				result.Round = &round
				result.RoundKey = hex.EncodeToString(rk[:])
			} else {
				for _, w := range schedule.Words() {
					result.Words = append(result.Words, w.String())
				}
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if result.Round != nil {
				fmt.Fprintln(out, result.RoundKey)
				return nil
			}
			for i, w := range result.Words {
				fmt.Fprintf(out, "w[%2d] = %s\n", i, w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyHex, "key", "k", "", "AES key in hex (prompted if omitted)")
	cmd.Flags().BoolVar(&inverse, "inverse", false, "Print the equivalent inverse schedule")
	cmd.Flags().IntVarP(&round, "round", "r", 0, "Print only this round key")

	return cmd
}
