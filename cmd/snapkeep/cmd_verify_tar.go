package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snapkeep/internal/archive"
	"snapkeep/internal/config"
	"snapkeep/internal/coordinator"
)

func newVerifyTarCmd(a *app) *cobra.Command {
	var integrity string
	cmd := &cobra.Command{
		Use:   "verify-tar [manifest]",
		Short: "Check that every archive is present and a valid gzip file",
		Long: `Checks each series of <entry>.tar.gz archives for gaps, then tests every
archive for integrity, spread over the worker group. By default each archive
is tested with "gzip -t"; --integrity stream checks it in-process instead.
Results are logged to verify_tar.log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("integrity") {
				a.cfg.Archive.Integrity = integrity
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			return a.runVerifyTar(cmd, args)
		},
	}
	cmd.Flags().StringVar(&integrity, "integrity", "", "Integrity check: exec or stream (default: config)")
	return cmd
}

func (a *app) checker() (coordinator.Action, error) {
	switch a.cfg.Archive.Integrity {
	case config.IntegrityExec:
		return archive.NewExecChecker(a.cfg.Archive.IntegrityCommand, a.cfg.GetCheckTimeout()), nil
	case config.IntegrityStream:
		return archive.StreamChecker{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown integrity mode %q", config.ErrInvalidConfiguration, a.cfg.Archive.Integrity)
	}
}

func (a *app) runVerifyTar(cmd *cobra.Command, args []string) error {
	checker, err := a.checker()
	if err != nil {
		return err
	}
	s, err := a.openSession(cmd, "verify_tar.log")
	if err != nil {
		return err
	}
	defer s.Close()

	in, err := s.input(args, s.layout().WithFileSuffix(a.cfg.Archive.Suffix))
	if err != nil {
		return err
	}
	return s.finish(s.coord.VerifyArchives(commandContext(cmd), in, checker, s.runLog))
}
