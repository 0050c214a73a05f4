// Package frontier holds the shared crawl state: the queue of URLs awaiting
// fetch and the registry of URLs already handled.
package frontier

import (
	"context"
	"errors"
	"fmt"
)

// ErrStoreUnavailable reports that the shared queue/registry could not be reached.
var ErrStoreUnavailable = errors.New("frontier store unavailable")

// Queue is the shared FIFO of URLs awaiting fetch. Dequeue must hand each
// pending entry to exactly one caller, across every process sharing the store.
type Queue interface {
	Enqueue(ctx context.Context, urls ...string) error
	// Dequeue returns ok=false when nothing is pending.
	Dequeue(ctx context.Context) (url string, ok bool, err error)
	Len(ctx context.Context) (int64, error)
}

// Seeder bootstraps an empty queue.
type Seeder interface {
	// SeedIfEmpty enqueues urls only if the queue currently holds nothing and
	// reports how many were added. The check and the push are one atomic step.
	SeedIfEmpty(ctx context.Context, urls []string) (int, error)
}

// Registry is the permanent set of URLs already dispatched or completed.
type Registry interface {
	Contains(ctx context.Context, url string) (bool, error)
	// Mark is idempotent; added is true only for the call that inserted url.
	Mark(ctx context.Context, url string) (added bool, err error)
	Size(ctx context.Context) (int64, error)
}

// Store bundles the three contracts; both backends implement it.
type Store interface {
	Queue
	Seeder
	Registry
}

// StoreError wraps a failed shared-store call.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStoreUnavailable) match any StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
