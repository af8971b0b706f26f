package collective

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewGroup_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := NewGroup(size)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	}
}

func TestScatterGather_RankOrderAndIsolation(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGroup(3)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Size())

	shards := [][]string{
		{"DD0000", "DD0003"},
		{"DD0001"},
		{"DD0002"},
	}

	var mu sync.Mutex
	seen := make(map[int][]string)

	results, err := ScatterGather(context.Background(), g, shards,
		func(ctx context.Context, rank int, shard []string) []string {
			mu.Lock()
			seen[rank] = append([]string(nil), shard...)
			mu.Unlock()

			out := make([]string, 0, len(shard))
			for _, item := range shard {
				out = append(out, item+".done")
			}
			return out
		})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"DD0000.done", "DD0003.done"},
		{"DD0001.done"},
		{"DD0002.done"},
	}, results)
	for rank, shard := range shards {
		assert.Equal(t, shard, seen[rank], "rank %d must see only its own shard", rank)
	}
}

func TestScatterGather_BarrierWaitsForSlowestRank(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGroup(4)
	require.NoError(t, err)

	release := make(chan struct{})
	var finished sync.WaitGroup
	finished.Add(4)

	type result struct {
		out [][]int
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		out, err := ScatterGather(context.Background(), g, [][]int{{1}, {2}, {3}, {4}},
			func(ctx context.Context, rank int, shard []int) []int {
				defer finished.Done()
				if rank == 2 {
					<-release
				}
				return []int{shard[0] * 10}
			})
		resCh <- result{out, err}
	}()

	select {
	case <-resCh:
		t.Fatal("gather returned before every rank finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, [][]int{{10}, {20}, {30}, {40}}, res.out)
	finished.Wait()
}

func TestScatterGather_ShardCountMismatch(t *testing.T) {
	g, err := NewGroup(2)
	require.NoError(t, err)

	_, err = ScatterGather(context.Background(), g, [][]string{{"a"}},
		func(ctx context.Context, rank int, shard []string) []string { return shard })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShardCount))
}

func TestScatterGather_EmptyShards(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGroup(3)
	require.NoError(t, err)

	results, err := ScatterGather(context.Background(), g, [][]string{{}, {}, {}},
		func(ctx context.Context, rank int, shard []string) []string { return shard })
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Empty(t, r)
	}
}

func TestScatterGather_ShardTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGroup(2, WithShardTimeout(30*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, g.ShardTimeout())

	_, err = ScatterGather(context.Background(), g, [][]string{{"fast"}, {"stuck", "next"}},
		func(ctx context.Context, rank int, shard []string) []string {
			if rank == 1 {
				<-ctx.Done()
			}
			return shard
		})
	require.Error(t, err)

	var stall *StallError
	require.True(t, errors.As(err, &stall), "expected StallError, got %v", err)
	assert.Equal(t, 1, stall.Rank)
	assert.Equal(t, 2, stall.Items)
	assert.Contains(t, stall.Error(), "rank 1")
}

func TestScatterGather_ParentCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	g, err := NewGroup(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = ScatterGather(ctx, g, [][]string{{"a"}, {"b"}},
		func(ctx context.Context, rank int, shard []string) []string {
			cancel()
			return shard
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
