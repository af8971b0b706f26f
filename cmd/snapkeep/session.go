package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snapkeep/internal/collective"
	"snapkeep/internal/coordinator"
	"snapkeep/internal/ledger"
	"snapkeep/internal/logging"
	"snapkeep/internal/series"
)

// session is everything one run needs: the worker group, the optional run
// ledger and the run log.
type session struct {
	app    *app
	root   string
	coord  *coordinator.Coordinator
	ledger *ledger.Ledger
	runLog *logging.RunLog
}

func (a *app) openSession(cmd *cobra.Command, logName string) (*session, error) {
	group, err := collective.NewGroup(a.cfg.WorkerCount(), collective.WithShardTimeout(a.cfg.GetShardTimeout()))
	if err != nil {
		return nil, err
	}

	s := &session{app: a, root: a.workDir}
	var opts []coordinator.Option
	if a.cfg.Ledger.Enabled {
		l, err := ledger.Open(resolve(a.workDir, a.cfg.Ledger.Path))
		if err != nil {
			// The run itself does not depend on its history.
			a.logger.Warn("run ledger unavailable", zap.Error(err))
		} else {
			s.ledger = l
			opts = append(opts, coordinator.WithRecorder(l))
		}
	}
	s.coord = coordinator.New(group, opts...)

	s.runLog, err = logging.OpenRunLog(filepath.Join(a.workDir, logName), cmd.OutOrStdout())
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// input builds the work list: the manifest when one is given, otherwise
// every configured series found in the working directory.
func (s *session) input(args []string, layout series.Layout) (coordinator.Input, error) {
	if len(args) == 1 {
		return coordinator.FromManifest(s.root, args[0], layout, s.app.cfg.Series.Prefixes[0])
	}
	return coordinator.Discover(s.root, layout, s.app.cfg.Series.Prefixes)
}

func (s *session) layout() series.Layout {
	return series.Layout{
		PrefixLen:   s.app.cfg.Series.PrefixLen,
		SuffixWidth: s.app.cfg.Series.SuffixWidth,
	}
}

// finish reports a run summary and maps it to the command's result.
func (s *session) finish(summary coordinator.Summary, err error) error {
	fields := []zap.Field{
		zap.String("kind", summary.Kind),
		zap.Int("items", summary.Items),
		zap.Int("errors", summary.Errors),
		zap.Int("failed", summary.Failed),
	}
	if summary.RunID != "" {
		fields = append(fields, zap.String("run_id", summary.RunID))
	}
	if err != nil {
		s.app.logger.Error("run aborted", append(fields, zap.Error(err))...)
		return err
	}
	s.app.logger.Info("run finished", fields...)
	if !summary.OK() {
		return fmt.Errorf("%w: %d errors, see %s", errRunFailed, summary.Errors, s.runLog.Path())
	}
	return nil
}

func (s *session) Close() {
	if s.runLog != nil {
		if err := s.runLog.Close(); err != nil {
			s.app.logger.Warn("close run log", zap.Error(err))
		}
	}
	if s.ledger != nil {
		_ = s.ledger.Close()
	}
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
