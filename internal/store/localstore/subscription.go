package localstore

import (
	"context"
	"sync"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

// subscription is a latest-wins snapshot feed: the channel holds at most one
// snapshot, and a newer broadcast displaces an undelivered older one. Only
// the most recent snapshot needs to be trusted.
type subscription struct {
	ch   chan store.Snapshot
	once sync.Once
	err  error

	unsubscribe func()
}

// Subscribe registers a feed and delivers the current state immediately.
func (s *Store) Subscribe(ctx context.Context) (store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscription{ch: make(chan store.Snapshot, 1)}
	sub.unsubscribe = func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}
	s.subs[sub] = struct{}{}

	s.seq++
	sub.push(s.snapshotLocked())

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.unsubscribe()
			sub.terminate(nil)
		}()
	}
	return sub, nil
}

// broadcast pushes the current state to every subscriber. Caller holds mu.
func (s *Store) broadcast() {
	s.seq++
	snap := s.snapshotLocked()
	for sub := range s.subs {
		sub.push(snap)
	}
}

func (s *Store) snapshotLocked() store.Snapshot {
	return store.Snapshot{
		Seq:   s.seq,
		Items: append([]model.Item(nil), s.items...),
	}
}

func (sub *subscription) push(snap store.Snapshot) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
			// displace the undelivered older snapshot
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
	sub.unsubscribe()
	sub.terminate(nil)
	return nil
}
