package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"thothsync/internal/config"
	"thothsync/internal/syncer"
)

// version of the thoth-sync job itself.
const version = "0.1.2"

var componentVersion = version + "+storages" + syncer.Version

type runFunc func(ctx context.Context, cfg config.Config) error

type options struct {
	configPath      string
	forceSync       bool
	graceful        bool
	debug           bool
	documentClasses []string
}

func main() {
	if err := newRootCommand(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(fn runFunc) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "thoth-sync",
		Short:         "Sync Thoth result documents into the knowledge graph",
		Version:       componentVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return fn(ctx, cfg)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	bindFlags(cmd.Flags(), opts)
	return cmd
}

func bindFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.configPath, "config", os.Getenv("THOTH_SYNC_CONFIG"), "Path to a YAML config file.")
	flags.BoolVar(&opts.forceSync, "force-sync", false, "Perform force sync of documents.")
	flags.BoolVar(&opts.graceful, "graceful", false, "Continue on any error during the sync process.")
	flags.BoolVar(&opts.debug, "debug", false, "Be verbose about what's going on.")
	flags.StringArrayVar(&opts.documentClasses, "sync-document-classes", nil,
		"Comma separated list of capabilities to run, e.g. sync_adviser_documents,sync_solver_documents.")
}

// resolveConfig layers command line flags over the config file and the
// environment. Only flags set explicitly override.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("force-sync") {
		cfg.Sync.Force = opts.forceSync
	}
	if flags.Changed("graceful") {
		cfg.Sync.Graceful = opts.graceful
	}
	if flags.Changed("debug") {
		cfg.Sync.Debug = opts.debug
	}
	if flags.Changed("sync-document-classes") && len(opts.documentClasses) > 0 {
		// Repeated occurrences are ignored.
		cfg.Sync.DocumentClasses = config.SplitCSV(opts.documentClasses[0])
	}
	return cfg, nil
}
