package main

import (
	"github.com/spf13/cobra"

	"snapkeep/internal/verify"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [manifest]",
		Short: "Check that snapshot directories are complete",
		Long: `Checks that each series of entry directories has no gaps, that every
entry's numbered member files are contiguous and non-empty, and that every
companion file exists and is non-empty. Runs on a single worker and logs to
verify_snapshots.log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args)
		},
	}
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	s, err := a.openSession(cmd, "verify_snapshots.log")
	if err != nil {
		return err
	}
	defer s.Close()

	in, err := s.input(args, s.layout())
	if err != nil {
		return err
	}
	opts := verify.EntryOptions{
		MemberTag:         a.cfg.Verify.MemberTag,
		MemberWidth:       a.cfg.Series.SuffixWidth,
		CompanionSuffixes: a.cfg.Verify.CompanionSuffixes,
	}
	return s.finish(s.coord.VerifySnapshots(commandContext(cmd), in, opts, s.runLog))
}
