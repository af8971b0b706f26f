package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"snapkeep/internal/ledger"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, args, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, args []string, limit int) error {
	if !a.cfg.Ledger.Enabled {
		return errors.New("run history is disabled (ledger.enabled=false)")
	}
	l, err := ledger.Open(resolve(a.workDir, a.cfg.Ledger.Path))
	if err != nil {
		return err
	}
	defer l.Close()

	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)
	if len(args) == 1 {
		outcomes, err := l.Outcomes(ctx, args[0])
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			fmt.Fprintf(out, "No outcomes recorded for run %s.\n", args[0])
			return nil
		}
		for _, o := range outcomes {
			fmt.Fprintf(out, "%-6s  %s", o.Status, o.Item)
			if o.Text != "" {
				fmt.Fprintf(out, "  %s", o.Text)
			}
			fmt.Fprintln(out)
		}
		return nil
	}

	runs, err := l.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	printRuns(out, runs)
	return nil
}

func printRuns(out io.Writer, runs []ledger.Run) {
	r := lipgloss.NewRenderer(out)
	bad := r.NewStyle().Foreground(lipgloss.Color("9"))
	good := r.NewStyle().Foreground(lipgloss.Color("10"))
	header := r.NewStyle().Bold(true)

	fmt.Fprintln(out, header.Render(fmt.Sprintf("%-19s  %-10s  %-36s  %7s  %5s  %6s", "STARTED", "KIND", "RUN", "WORKERS", "ITEMS", "ERRORS")))
	for _, run := range runs {
		status := good
		if run.Errors > 0 || !run.Finished() {
			status = bad
		}
		errs := fmt.Sprintf("%6d", run.Errors)
		if !run.Finished() {
			errs = fmt.Sprintf("%6s", "-")
		}
		fmt.Fprintf(out, "%-19s  %-10s  %-36s  %7d  %5d  %s\n",
			run.StartedAt.Format(time.DateTime), run.Kind, run.ID, run.Workers, run.Items, status.Render(errs))
		if run.Summary != "" {
			fmt.Fprintf(out, "    %s\n", run.Summary)
		}
	}
}
