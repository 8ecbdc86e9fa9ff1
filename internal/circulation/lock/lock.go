// Package lock provides the per-item critical section of the circulation
// engine. Keys are item IDs; holders of the same key never overlap.
package lock

import (
	"context"
	"fmt"

	"circulation/pkg/platform/sentinel"
)

// Locker acquires an exclusive lock on key. The returned unlock must be
// called exactly once. Acquisition honours ctx; giving up because the lock is
// held elsewhere returns an error wrapping sentinel.ErrContention.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// numShards trades memory for parallelism: distinct items that hash to the
// same shard serialize with each other.
const numShards = 128

// Sharded is an in-process Locker over a fixed table of mutexes selected by
// an FNV-1a hash of the key. Each shard is a one-slot channel so waiting can
// be abandoned when ctx ends.
type Sharded struct {
	shards [numShards]chan struct{}
}

func NewSharded() *Sharded {
	s := &Sharded{}
	for i := range s.shards {
		s.shards[i] = make(chan struct{}, 1)
	}
	return s
}

func (s *Sharded) Lock(ctx context.Context, key string) (func(), error) {
	shard := s.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: item %s: %w", sentinel.ErrContention, key, ctx.Err())
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-shard
	}, nil
}

// hashKey uses FNV-1a for better hash distribution than simple multiply-add.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
