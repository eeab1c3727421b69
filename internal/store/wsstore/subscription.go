package wsstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/lista/internal/store"
)

// subscription adapts the server's snapshot pushes to store.Subscription.
// Latest-wins buffering: an undelivered snapshot is displaced by a newer
// one, since only the most recent needs to be trusted.
type subscription struct {
	ch   chan store.Snapshot
	once sync.Once
	err  error

	detach func()
}

// Subscribe attaches to the connection's snapshot stream. The server sends
// the current snapshot on connect, so a fresh subscription fills promptly.
// Only one subscription is active per connection; a newer one displaces the
// older, which never leaks.
func (s *Store) Subscribe(ctx context.Context) (store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &store.SyncError{Err: fmt.Errorf("store is closed")}
	}
	if s.sub != nil {
		s.sub.terminate(nil)
	}
	sub := &subscription{ch: make(chan store.Snapshot, 1)}
	sub.detach = func() {
		s.mu.Lock()
		if s.sub == sub {
			s.sub = nil
		}
		s.mu.Unlock()
	}
	s.sub = sub

	// The server pushes the current snapshot on connect; replay it in case
	// it already arrived before this subscription existed.
	if s.last != nil {
		sub.push(*s.last)
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.detach()
			sub.terminate(nil)
		}()
	}
	return sub, nil
}

func (sub *subscription) push(snap store.Snapshot) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

func (sub *subscription) terminate(err error) {
	sub.once.Do(func() {
		sub.err = err
		close(sub.ch)
	})
}

func (sub *subscription) Snapshots() <-chan store.Snapshot { return sub.ch }

func (sub *subscription) Err() error { return sub.err }

func (sub *subscription) Close() error {
	sub.detach()
	sub.terminate(nil)
	return nil
}
