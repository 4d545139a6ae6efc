package cli

import (
	"context"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/roach88/listsync/internal/api"
	"github.com/roach88/listsync/internal/bus"
	"github.com/roach88/listsync/internal/config"
	"github.com/roach88/listsync/internal/live"
	"github.com/roach88/listsync/internal/model"
	"github.com/roach88/listsync/internal/service"
	"github.com/roach88/listsync/internal/store"
)

// ServeOptions holds flags for the serve command. Flags override the
// matching LISTSYNC_* variables.
type ServeOptions struct {
	*RootOptions
	Addr     string
	DBDriver string
	DBDSN    string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: `Run the REST API and the live websocket endpoint.

Settings come from LISTSYNC_* environment variables; flags override them.
Shutdown on SIGINT or SIGTERM drains REST requests and closes every live
session.

Exit codes:
  0 - Clean shutdown
  1 - Server failure
  2 - Invalid configuration or unreachable database

Examples:
  listsync serve
  listsync serve --addr :8080 --db-dsn /var/lib/listsync/lists.db
  LISTSYNC_DB_DRIVER=postgres LISTSYNC_DB_DSN=postgres://localhost/lists listsync serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (LISTSYNC_ADDR)")
	cmd.Flags().StringVar(&opts.DBDriver, "db-driver", "", "database driver: sqlite or postgres (LISTSYNC_DB_DRIVER)")
	cmd.Flags().StringVar(&opts.DBDSN, "db-dsn", "", "database path or connection string (LISTSYNC_DB_DSN)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadServeConfig(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	return serve(ctx, cfg, ln, logger)
}

// loadServeConfig reads the environment and applies explicitly set flags.
func loadServeConfig(cmd *cobra.Command, opts *ServeOptions) (config.Config, error) {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = opts.Addr
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver = opts.DBDriver
	}
	if flags.Changed("db-dsn") {
		cfg.DBDSN = opts.DBDSN
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// serve wires the store, bus, service and session manager behind the HTTP
// server and blocks until ctx ends.
func serve(ctx context.Context, cfg config.Config, ln net.Listener, logger *slog.Logger) error {
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		ln.Close()
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	logger.Info("database opened", "driver", cfg.DBDriver)

	events := bus.New[model.Event](cfg.BusCapacity)
	defer events.Close()

	svc := service.New(st, events, service.WithLogger(logger))
	sessions := live.NewManager(events,
		live.WithManagerLogger(logger),
		live.WithSessionTimeouts(cfg.PongWait, cfg.IdleWait),
	)

	serverOpts := []api.Option{
		api.WithLogger(logger),
		api.WithPinger(st),
		api.WithRequestTimeout(cfg.RequestTimeout),
		api.WithWriteWait(cfg.WriteWait),
	}
	if cfg.AuthEnabled() {
		auth, err := api.NewBasicAuth(cfg.AuthUser, cfg.AuthPasswordHash)
		if err != nil {
			ln.Close()
			return WrapExitError(ExitCommandError, "invalid auth settings", err)
		}
		serverOpts = append(serverOpts, api.WithBasicAuth(auth))
		logger.Info("basic auth enabled", "user", cfg.AuthUser)
	}

	srv := api.NewServer(svc, sessions, serverOpts...)
	if err := srv.Serve(ctx, ln); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}

	logger.Info("server stopped", "events_published", events.Published())
	return nil
}
