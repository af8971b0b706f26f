package coordinator

import (
	"context"
	"fmt"
	"path/filepath"

	"snapkeep/internal/logging"
	"snapkeep/internal/verify"
	"snapkeep/internal/work"
)

// Archive builds an archive for every entry with builder and logs each
// result. Every build line is echoed, failures first in the order reported.
func (c *Coordinator) Archive(ctx context.Context, in Input, builder Action, log RunLog) (Summary, error) {
	items := in.Items()
	s := Summary{Kind: KindArchive, Items: len(items)}
	s.RunID = c.begin(ctx, s.Kind, c.Workers(), len(items))

	outcomes, err := c.Distribute(ctx, items, builder)
	if err != nil {
		return c.abort(ctx, s, log, err)
	}

	reported := work.Reportable(outcomes)
	if len(reported) == 0 {
		s.Errors++
		s.Message = "Tar didn't operate properly."
		log.Echo(s.Message)
		c.finish(ctx, &s, outcomes)
		return s, nil
	}

	for _, o := range reported {
		log.Echo(o.Text)
	}
	s.Failed = work.Count(outcomes, work.StatusFailed)
	s.Errors += s.Failed
	s.Message = fmt.Sprintf("Summary of tar files in %s", filepath.Base(log.Path()))
	log.Echo(s.Message)

	c.finish(ctx, &s, outcomes)
	return s, nil
}

// VerifyArchives checks each series of archives for gaps on the leader, then
// distributes the integrity check of every archive.
func (c *Coordinator) VerifyArchives(ctx context.Context, in Input, checker Action, log RunLog) (Summary, error) {
	items := in.Items()
	s := Summary{Kind: KindIntegrity, Items: len(items)}
	s.RunID = c.begin(ctx, s.Kind, c.Workers(), len(items))

	for i, ser := range in.Series {
		r, err := verify.CheckSeries(ser.Entries, verify.SeriesCheck{
			Label:  ser.Label,
			Kind:   "tar files",
			Verb:   "Verifying tar files",
			Layout: in.Layout,
			Gap:    i > 0,
		})
		r.Emit(log)
		if err != nil {
			return c.abort(ctx, s, log, err)
		}
		s.Errors += r.Errors
	}
	if err := log.Flush(); err != nil {
		logging.CoordinatorError("flush %s: %v", log.Path(), err)
	}

	outcomes, err := c.Distribute(ctx, items, checker)
	if err != nil {
		return c.abort(ctx, s, log, err)
	}

	failures := work.Reportable(outcomes)
	s.Failed = work.Count(outcomes, work.StatusFailed)
	s.Errors += s.Failed
	if len(failures) > 0 {
		for _, o := range failures {
			log.Echo(o.Text)
		}
		s.Message = "*** SOME TAR FILES INCOMPLETE. ***"
	} else {
		s.Message = "All tar files verified as valid gzip files."
	}
	log.Echo(s.Message)

	c.finish(ctx, &s, outcomes)
	return s, nil
}

// VerifySnapshots checks every series of entry directories for gaps and
// every entry for its member and companion files. It runs on the leader
// only.
func (c *Coordinator) VerifySnapshots(ctx context.Context, in Input, opts verify.EntryOptions, log RunLog) (Summary, error) {
	s := Summary{Kind: KindSnapshot, Items: len(in.Items())}
	s.RunID = c.begin(ctx, s.Kind, 1, s.Items)

	for i, ser := range in.Series {
		if err := ctx.Err(); err != nil {
			return c.abort(ctx, s, log, err)
		}
		r, err := verify.CheckSeries(ser.Entries, verify.SeriesCheck{
			Label:  ser.Label,
			Kind:   "directories",
			Verb:   "Checking directories",
			Layout: in.Layout,
			Gap:    i > 0,
			Root:   in.Root,
			Entry:  &opts,
		})
		r.Emit(log)
		if err != nil {
			return c.abort(ctx, s, log, err)
		}
		s.Errors += r.Errors
		if err := log.Flush(); err != nil {
			logging.CoordinatorError("flush %s: %v", log.Path(), err)
		}
	}

	if s.Errors == 0 {
		s.Message = "All expected files present. Ready for tar and storage."
	} else {
		s.Message = fmt.Sprintf("%d errors detected.  Please see %s file for more info.", s.Errors, filepath.Base(log.Path()))
	}
	log.Echo(s.Message)

	c.finish(ctx, &s, nil)
	return s, nil
}

func (c *Coordinator) abort(ctx context.Context, s Summary, log RunLog, err error) (Summary, error) {
	s.Errors++
	s.Message = err.Error()
	log.Echo(fmt.Sprintf("*** %s ***", err))
	c.finish(ctx, &s, nil)
	return s, err
}
