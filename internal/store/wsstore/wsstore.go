// Package wsstore is the WebSocket-backed Collection client. One connection
// carries everything: mutations go out as correlated ops, acks and errors
// come back per op, and the server pushes a full snapshot on every change.
package wsstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
	"github.com/idilsaglam/lista/internal/wire"
)

const (
	writeWait    = 10 * time.Second
	opTimeout    = 15 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Store implements store.Collection over a single WebSocket connection.
type Store struct {
	conn *websocket.Conn

	writeMu sync.Mutex // serializes writes on the socket

	mu      sync.Mutex
	pending map[string]chan error // op id -> ack/error result
	sub     *subscription
	last    *store.Snapshot // most recent snapshot, replayed to a late Subscribe
	closed  bool
}

// Dial connects to the sync server and starts the read loop.
func Dial(ctx context.Context, url string) (*Store, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &store.SyncError{Err: fmt.Errorf("dial %s: %w", url, err)}
	}
	s := &Store{
		conn:    conn,
		pending: make(map[string]chan error),
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

// readLoop dispatches server messages: snapshots to the subscription,
// ack/error replies to their waiting op.
func (s *Store) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.teardown(&store.SyncError{Err: err})
			return
		}
		env, err := wire.Decode(raw)
		if err != nil {
			// A malformed frame poisons nothing else; skip it.
			continue
		}
		switch env.Type {
		case wire.TypeSnapshot:
			s.mu.Lock()
			s.last = env.Snapshot
			if s.sub != nil {
				s.sub.push(*env.Snapshot)
			}
			s.mu.Unlock()
		case wire.TypeAck:
			s.resolve(env.Op, nil)
		case wire.TypeError:
			s.resolve(env.Op, fmt.Errorf("%s", env.Error))
		}
	}
}

func (s *Store) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.writeMu.Lock()
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := s.conn.WriteMessage(websocket.PingMessage, nil)
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (s *Store) resolve(op string, result error) {
	s.mu.Lock()
	ch, ok := s.pending[op]
	if ok {
		delete(s.pending, op)
	}
	s.mu.Unlock()
	if ok {
		ch <- result
	}
}

// teardown fails every pending op and ends the subscription.
func (s *Store) teardown(err error) {
	s.mu.Lock()
	if s.closed {
		err = nil // a deliberate Close is not a failure
	}
	for op, ch := range s.pending {
		delete(s.pending, op)
		ch <- fmt.Errorf("connection lost")
	}
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.terminate(err)
	}
}

// send issues one op envelope and waits for its ack or error.
func (s *Store) send(ctx context.Context, env wire.Envelope) error {
	env.Op = uuid.NewString()
	env.Timestamp = time.Now().Unix()
	b, err := wire.Encode(env)
	if err != nil {
		return err
	}

	result := make(chan error, 1)
	s.mu.Lock()
	s.pending[env.Op] = result
	s.mu.Unlock()

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = s.conn.WriteMessage(websocket.TextMessage, b)
	s.writeMu.Unlock()
	if err != nil {
		s.resolve(env.Op, nil) // drop the waiter, report the write error
		return fmt.Errorf("send: %w", err)
	}

	timer := time.NewTimer(opTimeout)
	defer timer.Stop()
	select {
	case err := <-result:
		return err
	case <-timer.C:
		s.resolve(env.Op, nil)
		return fmt.Errorf("timed out waiting for server")
	case <-ctx.Done():
		s.resolve(env.Op, nil)
		return ctx.Err()
	}
}

// Create issues a create op. The document id is assigned here, before the
// server confirms, so callers have a stable handle immediately.
func (s *Store) Create(ctx context.Context, it model.Item) (string, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.CreatedAt = model.PendingMarker()
	if err := s.send(ctx, wire.Envelope{Type: wire.TypeCreate, Item: &it}); err != nil {
		return "", err
	}
	return it.ID, nil
}

// Merge issues a partial-update op.
func (s *Store) Merge(ctx context.Context, id string, p store.Patch) error {
	if p.Empty() {
		return nil
	}
	return s.send(ctx, wire.Envelope{Type: wire.TypeMerge, ID: id, Patch: &p})
}

// Delete issues a delete op.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.send(ctx, wire.Envelope{Type: wire.TypeDelete, ID: id})
}

// Close shuts the connection down; the subscription channel closes with a
// nil Err.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	return s.conn.Close()
}
