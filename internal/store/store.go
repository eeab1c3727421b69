// Package store defines the contract between the synchronizer and a remote
// document collection. Implementations live in subpackages: wsstore talks to
// a sync server over WebSocket, localstore keeps everything in a JSON file.
package store

import (
	"context"

	"github.com/idilsaglam/lista/internal/model"
)

// Collection is a remote document collection keyed by document id.
// All writes are per-document atomic; Merge has partial-update semantics.
type Collection interface {
	// Subscribe opens a live subscription. Every remote change produces a
	// full Snapshot on the subscription channel, not a delta. The
	// subscription ends when ctx is cancelled or Close is called.
	Subscribe(ctx context.Context) (Subscription, error)

	// Create stores a new item and returns its assigned id. The id is
	// available immediately; the write itself resolves asynchronously and
	// comes back through the subscription.
	Create(ctx context.Context, it model.Item) (string, error)

	// Merge applies a partial update. Fields left nil in the patch are
	// untouched.
	Merge(ctx context.Context, id string, p Patch) error

	// Delete removes the item. The removal is observed via the next
	// snapshot.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Subscription is a live feed of full snapshots.
type Subscription interface {
	// Snapshots delivers full-state events. The channel closes when the
	// subscription ends; Err then reports why.
	Snapshots() <-chan Snapshot

	// Err returns the terminal subscription error, or nil after a clean
	// Close.
	Err() error

	Close() error
}

// Snapshot is a full, self-consistent copy of the collection. Seq increases
// with every broadcast so a late stale delivery can be recognized and
// dropped.
type Snapshot struct {
	Seq   uint64       `json:"seq"`
	Items []model.Item `json:"items"`
}

// Patch is a merge update: nil fields are left untouched.
type Patch struct {
	Content *string `json:"content,omitempty"`
	Done    *bool   `json:"done,omitempty"`
}

// Empty reports whether the patch would touch nothing.
func (p Patch) Empty() bool {
	return p.Content == nil && p.Done == nil
}
