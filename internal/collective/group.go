// Package collective runs one unit of work on every rank of a fixed-size
// worker group.
//
// A run has exactly two synchronization points. Scatter hands rank r its
// shard, and no rank sees another rank's shard. Gather is a join barrier: no
// result is visible until every rank has finished, and results come back in
// rank order.
//
// Without a shard timeout a rank that never returns blocks the gather
// forever. WithShardTimeout turns such a rank into a *StallError instead.
package collective

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"snapkeep/internal/logging"
)

var (
	// ErrInvalidConfiguration is returned for a group size below one.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrShardCount is returned when shards do not match the group size.
	ErrShardCount = errors.New("shard count does not match group size")
)

// StallError reports a rank that did not finish its shard in time.
type StallError struct {
	Rank    int
	Items   int
	Timeout time.Duration
}

func (e *StallError) Error() string {
	return fmt.Sprintf("rank %d did not finish its %d-item shard within %v", e.Rank, e.Items, e.Timeout)
}

// Group is a fixed-size set of ranks. Rank 0 is the leader.
type Group struct {
	size         int
	shardTimeout time.Duration
}

// Option configures a Group.
type Option func(*Group)

// WithShardTimeout bounds how long each rank may spend on its shard. Zero
// means wait indefinitely.
func WithShardTimeout(d time.Duration) Option {
	return func(g *Group) {
		g.shardTimeout = d
	}
}

// NewGroup creates a group of size ranks.
func NewGroup(size int, opts ...Option) (*Group, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: group size must be positive, got %d", ErrInvalidConfiguration, size)
	}
	g := &Group{size: size}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Size returns the number of ranks.
func (g *Group) Size() int {
	return g.size
}

// ShardTimeout returns the per-shard deadline, zero if none.
func (g *Group) ShardTimeout() time.Duration {
	return g.shardTimeout
}

// WorkFunc processes one rank's shard and returns one result per item.
// It runs on its own goroutine; ctx is cancelled if the run is abandoned.
type WorkFunc[T, R any] func(ctx context.Context, rank int, shard []T) []R

// ScatterGather delivers shards[r] to rank r, runs fn on every rank
// concurrently, and returns each rank's results in rank order once all ranks
// are done.
func ScatterGather[T, R any](ctx context.Context, g *Group, shards [][]T, fn WorkFunc[T, R]) ([][]R, error) {
	if len(shards) != g.size {
		return nil, fmt.Errorf("%w: %d shards for %d ranks", ErrShardCount, len(shards), g.size)
	}

	inboxes := make([]chan []T, g.size)
	results := make([][]R, g.size)
	eg, egCtx := errgroup.WithContext(ctx)

	for rank := 0; rank < g.size; rank++ {
		inbox := make(chan []T, 1)
		inboxes[rank] = inbox
		eg.Go(func() error {
			var shard []T
			select {
			case shard = <-inbox:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			logging.WorkerDebug("rank %d received %d items", rank, len(shard))

			out, err := runShard(egCtx, g, rank, shard, fn)
			if err != nil {
				return err
			}
			results[rank] = out
			logging.WorkerDebug("rank %d finished with %d results", rank, len(out))
			return nil
		})
	}

	// Scatter.
	for rank, shard := range shards {
		inboxes[rank] <- shard
	}

	// Gather.
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func runShard[T, R any](ctx context.Context, g *Group, rank int, shard []T, fn WorkFunc[T, R]) ([]R, error) {
	if g.shardTimeout <= 0 {
		return fn(ctx, rank, shard), nil
	}

	shardCtx, cancel := context.WithTimeout(ctx, g.shardTimeout)
	defer cancel()

	done := make(chan []R, 1)
	go func() {
		done <- fn(shardCtx, rank, shard)
	}()

	select {
	case out := <-done:
		return out, nil
	case <-shardCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WorkerWarn("rank %d stalled after %v", rank, g.shardTimeout)
		return nil, &StallError{Rank: rank, Items: len(shard), Timeout: g.shardTimeout}
	}
}
