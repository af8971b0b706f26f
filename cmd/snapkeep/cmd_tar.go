package main

import (
	"github.com/spf13/cobra"

	"snapkeep/internal/archive"
)

func newTarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tar [manifest]",
		Short: "Archive every entry directory into <entry>.tar.gz",
		Long: `Builds one gzip-compressed tar archive per entry directory, spread over
the worker group. Each archive is written beside its directory and rooted at
the directory's name. Results are logged to tar_snapshots.log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTar(cmd, args)
		},
	}
}

func (a *app) runTar(cmd *cobra.Command, args []string) error {
	s, err := a.openSession(cmd, "tar_snapshots.log")
	if err != nil {
		return err
	}
	defer s.Close()

	in, err := s.input(args, s.layout())
	if err != nil {
		return err
	}
	builder := archive.NewTarGzBuilder(a.cfg.Archive.Suffix)
	return s.finish(s.coord.Archive(commandContext(cmd), in, builder, s.runLog))
}
