package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Davincible/fips197/internal/validation"
	"github.com/Davincible/fips197/pkg/config"
	"github.com/Davincible/fips197/pkg/secure"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readLine reads up to a newline one byte at a time so that successive
// prompts on a piped stdin do not swallow each other's input.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	var buf [1]byte
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				break
			}
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

// stdinTerminal reports whether the command reads from an interactive terminal.
func stdinTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readPassphrase reads a passphrase without echo when attached to a terminal.
// Prompts go to stderr so stdout stays machine-readable.
func readPassphrase(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if stdinTerminal(cmd) {
		f := cmd.InOrStdin().(*os.File)
		passBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(passBytes), nil
	}

	// Fallback for non-terminal
	pass, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return strings.TrimSpace(pass), nil
}

// readNewPassphrase asks twice and enforces the configured minimum length.
func readNewPassphrase(cmd *cobra.Command, minLength int) (string, error) {
	pass, err := readPassphrase(cmd, "Enter passphrase: ")
	if err != nil {
		return "", err
	}
	if err := validation.ValidatePassphrase(pass, minLength); err != nil {
		return "", err
	}

	confirm, err := readPassphrase(cmd, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if !secure.ConstantTimeCompare([]byte(pass), []byte(confirm)) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return pass, nil
}

// readKey returns the key given by flag, or prompts for it without echo.
func readKey(cmd *cobra.Command, keyHex string) ([]byte, error) {
	if keyHex == "" {
		var err error
		keyHex, err = readPassphrase(cmd, "Enter key (hex): ")
		if err != nil {
			return nil, err
		}
	}
	return validation.ParseKey(keyHex)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// loadConfig reads the file named by --config, or the default location.
func loadConfig(cmd *cobra.Command) (*config.ConfigManager, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cm  *config.ConfigManager
		err error
	)
	if path != "" {
		cm, err = config.NewConfigManagerAt(path)
	} else {
		cm, err = config.NewConfigManager()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cm.GetConfig().UI.UseColor {
		disableColor.Do(func() { color.NoColor = true })
	}
	return cm, nil
}

// disableColor guards the write to color.NoColor, which commands running
// concurrently in one process would otherwise race on.
var disableColor sync.Once

var (
	headerColor  = color.New(color.FgGreen, color.Bold)
	labelColor   = color.New(color.FgYellow)
	warningColor = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
)

func printHeader(cmd *cobra.Command, title string) {
	headerColor.Fprintf(cmd.OutOrStdout(), "=== %s ===\n", title)
}

func printField(cmd *cobra.Command, label, value string) {
	labelColor.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	fmt.Fprintln(cmd.OutOrStdout(), value)
}

func printWarning(cmd *cobra.Command, msg string) {
	warningColor.Fprintln(cmd.ErrOrStderr(), "⚠️  "+msg)
}
