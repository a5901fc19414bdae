// Package cli implements the nexttrip command-line tool. Every command runs
// against the same store and services the API server uses.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkordes/nexttrip/backend/internal/app"
	"github.com/pkordes/nexttrip/backend/internal/config"
)

// Opener builds an App from configuration. The default opens the
// configured store; tests substitute an in-memory one.
type Opener func(ctx context.Context, cfg config.Config, log *slog.Logger) (*app.App, error)

// Options controls how the root command loads its dependencies.
type Options struct {
	// LoadConfig defaults to reading .env and the environment.
	LoadConfig func() (config.Config, error)
	// Open defaults to app.New.
	Open Opener
}

type root struct {
	opts    Options
	envFile string
	output  string
	verbose bool

	cfg config.Config
	log *slog.Logger
}

// NewRootCmd returns the nexttrip command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = defaultConfig
	}
	if opts.Open == nil {
		opts.Open = app.New
	}
	r := &root{opts: opts}

	cmd := &cobra.Command{
		Use:   "nexttrip",
		Short: "NexTrip CLI - plan trips and manage the NexTrip store",
		Long: `nexttrip serves the NexTrip API and gives command-line access to the
same store: run migrations, inspect trip statistics, export trips and
account data, and change the saved theme.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&r.envFile, "env-file", "", "dotenv file to load (default .env)")
	cmd.PersistentFlags().StringVarP(&r.output, "output", "o", "table", "output format: table, json, yaml")
	cmd.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(r.newServeCmd())
	cmd.AddCommand(r.newMigrateCmd())
	cmd.AddCommand(r.newStatsCmd())
	cmd.AddCommand(r.newExportCmd())
	cmd.AddCommand(r.newThemeCmd())
	return cmd
}

// Execute runs the command tree with os.Args. SIGINT and SIGTERM cancel
// the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(Options{}).ExecuteContext(ctx)
}

func defaultConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	return config.Load()
}

func (r *root) setup(cmd *cobra.Command) error {
	switch r.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", r.output)
	}
	if r.envFile != "" {
		if err := config.LoadDotEnv(r.envFile); err != nil {
			return err
		}
	}
	cfg, err := r.opts.LoadConfig()
	if err != nil {
		return err
	}
	r.cfg = cfg

	level := cfg.SlogLevel()
	if r.verbose {
		level = slog.LevelDebug
	}
	// Logs go to stderr so command output stays pipeable.
	r.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// withApp opens the store, runs fn and closes everything again.
func (r *root) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := r.opts.Open(ctx, r.cfg, r.log)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
