package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"snapkeep/internal/config"
	"snapkeep/internal/logging"
)

// errRunFailed is returned when a run completed but reported errors. The
// run log already holds the details.
var errRunFailed = errors.New("run reported errors")

// app holds the global flags and the state shared by every command.
type app struct {
	// Global flags
	verbose      bool
	configPath   string
	workers      int
	workDir      string
	shardTimeout time.Duration
	noLedger     bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "snapkeep",
		Short: "Archive and verify numbered simulation snapshots",
		Long: `snapkeep checks that numbered snapshot directories (DD0000, RD0042, ...)
form an unbroken sequence with no empty files, archives them into .tar.gz
files, and verifies the archives.

Archiving and archive verification are spread over a fixed-size group of
workers. Each command takes an optional manifest file listing the entries to
process; without one, every configured series in the working directory is
used.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.CloseAll()
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: <dir>/"+config.DefaultPath+")")
	rootCmd.PersistentFlags().IntVarP(&a.workers, "workers", "n", 0, "Worker group size (default: config, then one per CPU)")
	rootCmd.PersistentFlags().StringVarP(&a.workDir, "dir", "C", ".", "Directory holding the entries and run logs")
	rootCmd.PersistentFlags().DurationVar(&a.shardTimeout, "shard-timeout", 0, "Fail a run whose worker does not finish its shard in time")
	rootCmd.PersistentFlags().BoolVar(&a.noLedger, "no-ledger", false, "Do not record the run in the run history")

	rootCmd.AddCommand(newTarCmd(a))
	rootCmd.AddCommand(newVerifyCmd(a))
	rootCmd.AddCommand(newVerifyTarCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	return rootCmd
}

// setup initializes the logger, resolves configuration and applies flag
// overrides. Configuration errors stop the run before any work starts.
func (a *app) setup(cmd *cobra.Command) error {
	// Arguments are already validated; later errors are not usage errors.
	cmd.SilenceUsage = true

	zcfg := zap.NewProductionConfig()
	if a.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	var err error
	a.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	path := a.configPath
	if path == "" {
		path = resolve(a.workDir, config.DefaultPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Group.Workers = a.workers
	}
	if flags.Changed("shard-timeout") {
		cfg.Group.ShardTimeout = a.shardTimeout.String()
	}
	if a.noLedger {
		cfg.Ledger.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := cfg.Logging.Options()
	opts.Dir = resolve(a.workDir, opts.Dir)
	if err := logging.Initialize(opts); err != nil {
		return err
	}
	logging.Boot("config %s: workers=%d shard_timeout=%v", path, cfg.WorkerCount(), cfg.GetShardTimeout())
	a.logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.Int("workers", cfg.WorkerCount()),
		zap.Duration("shard_timeout", cfg.GetShardTimeout()),
		zap.Bool("ledger", cfg.Ledger.Enabled),
	)

	a.cfg = cfg
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
