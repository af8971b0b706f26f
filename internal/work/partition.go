// Package work holds the unit-of-work types shared by the coordinator and
// the worker ranks: partitioning a work list into shards and the per-item
// outcomes that flow back.
package work

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned for a non-positive shard count.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Partition deals items round-robin into count shards: item i lands in shard
// i mod count. Shard sizes differ by at most one. Order within a shard
// follows the input, but locality across shards is not preserved.
func Partition(items []string, count int) ([][]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: shard count must be positive, got %d", ErrInvalidConfiguration, count)
	}
	shards := make([][]string, count)
	for i := range shards {
		shards[i] = make([]string, 0, len(items)/count+1)
	}
	for i, item := range items {
		shards[i%count] = append(shards[i%count], item)
	}
	return shards, nil
}
