package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/wsconn"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	URL string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live events from a running server",
		Long: `Connect to a server's live endpoint and print every event as it arrives.

Text output prints one line per event. JSON output prints the event's
canonical JSON, one per line.

Exit codes:
  0 - Server closed the connection normally, or interrupted
  1 - Connection lost
  2 - Could not connect

Examples:
  listsync watch
  listsync watch --url ws://lists.example.com/ws --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "ws://localhost:9000/ws", "live endpoint URL")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	client, err := wsconn.Dial(ctx, opts.URL, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	logger.Debug("connected", "url", opts.URL)

	// Next blocks on the socket, closing it unblocks the reader
	go func() {
		<-ctx.Done()
		client.Close()
	}()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	for {
		ev, err := client.Next()
		if err != nil {
			if ctx.Err() != nil || wsconn.IsNormalClose(err) {
				return nil
			}
			return WrapExitError(ExitFailure, "connection lost", err)
		}

		raw, err := ev.MarshalJSON()
		if err != nil {
			return WrapExitError(ExitFailure, "invalid event", err)
		}
		if err := out.Line(ev.String(), raw); err != nil {
			return err
		}
	}
}
