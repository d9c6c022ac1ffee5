package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Davincible/fips197/internal/validation"
	"github.com/Davincible/fips197/pkg/relay"
	"github.com/spf13/cobra"
)

const (
	dialTimeout = 10 * time.Second
	// sendGrace is how long 'relay send' waits for an error frame before
	// assuming the message was forwarded.
	sendGrace = 300 * time.Millisecond
)

// NewRelayCommand groups the relay server and client subcommands.
func NewRelayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Encrypted one-block message relay",
		Long: `The relay forwards 16-byte messages between named clients.

Each client announces an RSA public key and receives its own AES-128
session key wrapped under it. The server decrypts every message with the
sender's session key and re-encrypts it with the recipient's.`,
	}

	cmd.AddCommand(
		NewRelayServeCommand(),
		NewRelaySendCommand(),
		NewRelayListenCommand(),
	)

	return cmd
}

func NewRelayServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the relay server",
		Example: `  fips197 relay serve --listen 0.0.0.0:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg := cm.GetConfig().Relay
			if listen == "" {
				listen = cfg.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := relay.NewServer(relay.Config{
				Listen:       listen,
				ReadTimeout:  time.Duration(cfg.ReadTimeout),
				MaxFrameSize: cfg.MaxFrameSize,
				Logger:       slog.Default(),
			})

			headerColor.Fprintf(cmd.OutOrStdout(), "Relay listening on %s (Ctrl+C to stop)\n", listen)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config)")

	return cmd
}

// dialRelay connects as name using the server address and prime size from
// the config unless overridden.
func dialRelay(ctx context.Context, cmd *cobra.Command, server, name string) (*relay.Client, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	cm, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg := cm.GetConfig().Relay
	if server == "" {
		server = cfg.Server
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	slog.Debug("connecting to relay", "server", server, "name", name, "prime_bits", cfg.PrimeBits)
	return relay.Dial(dialCtx, server, name, cfg.PrimeBits)
}

func NewRelaySendCommand() *cobra.Command {
	var (
		server  string
		name    string
		to      string
		message string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message through the relay",
		Long: `Connect as --name, send --message to --to and disconnect.
Messages longer than 16 bytes are truncated.`,
		Example: `  fips197 relay send --name alice --to bob --message "hi bob"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || to == "" {
				return fmt.Errorf("--name and --to are required")
			}
			if len(message) > 16 {
				printWarning(cmd, fmt.Sprintf("Message is %d bytes; only the first 16 are sent.", len(message)))
			}

			client, err := dialRelay(cmd.Context(), cmd, server, name)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Send(to, message); err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}

			if err := awaitRejection(cmd.Context(), client); err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, relay.Message{From: name, To: to, Text: message})
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Sent to %s\n", to)
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "Relay address (default from config)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name to connect as")
	cmd.Flags().StringVar(&to, "to", "", "Recipient name")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message text")

	return cmd
}

// awaitRejection waits sendGrace for an error frame answering the message
// just sent. Messages addressed to the client meanwhile are discarded.
func awaitRejection(ctx context.Context, client *relay.Client) error {
	ctx, cancel := context.WithTimeout(ctx, sendGrace)
	defer cancel()

	for {
		_, err := client.Receive(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			return err
		}
	}
}

func NewRelayListenCommand() *cobra.Command {
	var (
		server string
		name   string
		count  int
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print messages delivered to a name",
		Example: `  fips197 relay listen --name bob

  # Exit after the first message
  fips197 relay listen --name bob --count 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := dialRelay(ctx, cmd, server, name)
			if err != nil {
				return err
			}
			defer client.Close()

			if !jsonOutput(cmd) {
				headerColor.Fprintf(cmd.OutOrStdout(), "Listening as %s (Ctrl+C to stop)\n", name)
			}

			for received := 0; count <= 0 || received < count; {
				msg, err := client.Receive(ctx)
				var serverErr *relay.ServerError
				switch {
				case errors.As(err, &serverErr):
					printWarning(cmd, serverErr.Reason)
					continue
				case ctx.Err() != nil:
					return nil
				case err != nil:
					return err
				}

				received++
				if jsonOutput(cmd) {
					if err := writeJSON(cmd, msg); err != nil {
						return err
					}
					continue
				}
				labelColor.Fprintf(cmd.OutOrStdout(), "%s: ", msg.From)
				fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "Relay address (default from config)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name to connect as")
	cmd.Flags().IntVarP(&count, "count", "c", 0, "Exit after this many messages (0 = run until interrupted)")

	return cmd
}
