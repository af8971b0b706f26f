// Package coordinator drives a run on the leader: it builds the work list,
// partitions it across the worker group, applies an action to every item,
// and reports the gathered outcomes in the run log.
package coordinator

import (
	"context"
	"fmt"

	"snapkeep/internal/collective"
	"snapkeep/internal/logging"
	"snapkeep/internal/verify"
	"snapkeep/internal/work"
)

// Action is applied to one work item on a worker rank. It must not panic
// and must report failure through the outcome.
type Action interface {
	Apply(ctx context.Context, item string) work.Outcome
}

// ActionFunc adapts a function to Action.
type ActionFunc func(ctx context.Context, item string) work.Outcome

// Apply calls f.
func (f ActionFunc) Apply(ctx context.Context, item string) work.Outcome {
	return f(ctx, item)
}

// RunLog is the leader's run report. logging.RunLog implements it.
type RunLog interface {
	verify.Sink
	Path() string
	Flush() error
}

// Recorder persists run history. ledger.Ledger implements it.
type Recorder interface {
	BeginRun(ctx context.Context, kind string, workers, items int) (string, error)
	RecordOutcomes(ctx context.Context, runID string, outcomes []work.Outcome) error
	FinishRun(ctx context.Context, runID string, errCount int, summary string) error
}

// Run kinds, as recorded in the ledger.
const (
	KindArchive   = "tar"
	KindIntegrity = "verify-tar"
	KindSnapshot  = "verify"
)

// Summary is the leader's view of a finished run.
type Summary struct {
	Kind    string
	RunID   string // empty without a recorder
	Items   int
	Errors  int // sequence, content and per-item failures
	Failed  int // per-item failures only
	Message string
}

// OK reports whether the run found nothing wrong.
func (s Summary) OK() bool {
	return s.Errors == 0
}

// Coordinator owns the worker group for the lifetime of the process.
type Coordinator struct {
	group    *collective.Group
	recorder Recorder
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecorder records every run in r.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// New creates a coordinator over group.
func New(group *collective.Group, opts ...Option) *Coordinator {
	c := &Coordinator{group: group}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Workers returns the group size.
func (c *Coordinator) Workers() int {
	return c.group.Size()
}

// Distribute partitions items across the group, applies action to every
// item, and returns all outcomes once every rank has finished. Outcomes come
// back in rank order, each rank's in shard order.
func (c *Coordinator) Distribute(ctx context.Context, items []string, action Action) ([]work.Outcome, error) {
	timer := logging.StartTimer(logging.CategoryCoordinator, "distribute")
	defer timer.Stop()

	shards, err := work.Partition(items, c.group.Size())
	if err != nil {
		return nil, err
	}
	logging.Coordinator("distributing %d items over %d ranks", len(items), c.group.Size())
	for rank, shard := range shards {
		logging.CoordinatorDebug("rank %d: %d items", rank, len(shard))
	}

	perRank, err := collective.ScatterGather(ctx, c.group, shards,
		func(ctx context.Context, rank int, shard []string) []work.Outcome {
			out := make([]work.Outcome, 0, len(shard))
			for _, item := range shard {
				o := action.Apply(ctx, item)
				logging.WorkerDebug("rank %d: %s -> %s", rank, item, o.Status)
				out = append(out, o)
			}
			return out
		})
	if err != nil {
		logging.CoordinatorError("distribution failed: %v", err)
		return nil, fmt.Errorf("distribute: %w", err)
	}

	outcomes := work.Flatten(perRank)
	logging.Coordinator("gathered %d outcomes", len(outcomes))
	return outcomes, nil
}

// begin opens a ledger record. Ledger trouble never fails a run.
func (c *Coordinator) begin(ctx context.Context, kind string, workers, items int) string {
	if c.recorder == nil {
		return ""
	}
	id, err := c.recorder.BeginRun(ctx, kind, workers, items)
	if err != nil {
		logging.CoordinatorError("ledger: %v", err)
		return ""
	}
	return id
}

func (c *Coordinator) finish(ctx context.Context, s *Summary, outcomes []work.Outcome) {
	if c.recorder == nil || s.RunID == "" {
		return
	}
	// A cancelled run is still recorded.
	ctx = context.WithoutCancel(ctx)
	if len(outcomes) > 0 {
		if err := c.recorder.RecordOutcomes(ctx, s.RunID, outcomes); err != nil {
			logging.CoordinatorError("ledger: %v", err)
		}
	}
	if err := c.recorder.FinishRun(ctx, s.RunID, s.Errors, s.Message); err != nil {
		logging.CoordinatorError("ledger: %v", err)
	}
}
