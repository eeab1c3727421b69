// Package server is the reference sync backend: a single process that owns
// the todos collection in SQLite and mirrors every accepted change to all
// connected clients as a full snapshot.
package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/lista/internal/store"
	"github.com/idilsaglam/lista/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Self-hosted, no browser origin policy to enforce.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server wires the repo to the hub and applies the wire protocol.
type Server struct {
	repo *Repo
	hub  *hub
	log  *logrus.Logger

	seqMu sync.Mutex
	seq   uint64
}

// New builds a Server over an open repo.
func New(repo *Repo, log *logrus.Logger) *Server {
	return &Server{
		repo: repo,
		hub:  newHub(log),
		log:  log,
	}
}

// HandleWS upgrades the connection, registers the client and sends it the
// current snapshot so a fresh subscriber fills immediately.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("upgrade failed")
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  s.hub,
		srv:  s,
	}
	s.hub.register <- c

	go c.writePump()
	go c.readPump()

	if snap, err := s.snapshot(false); err == nil {
		s.hub.direct <- delivery{to: c, msg: snap}
	} else {
		s.log.WithError(err).Error("initial snapshot failed")
	}
}

// handleMessage applies one client op and returns the reply envelope bytes.
// Accepted mutations also broadcast a fresh snapshot to everyone.
func (s *Server) handleMessage(raw []byte) []byte {
	env, err := wire.Decode(raw)
	if err != nil {
		s.log.WithError(err).Warn("bad envelope")
		return encodeOrNil(wire.Envelope{Type: wire.TypeError, Error: err.Error()})
	}

	var opErr error
	switch env.Type {
	case wire.TypeCreate:
		it := *env.Item
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		_, opErr = s.repo.Insert(it)
	case wire.TypeMerge:
		opErr = s.repo.Merge(env.ID, *env.Patch)
	case wire.TypeDelete:
		opErr = s.repo.Delete(env.ID)
	default:
		opErr = fmt.Errorf("client cannot send %q", env.Type)
	}

	if opErr != nil {
		s.log.WithError(opErr).WithField("type", env.Type).Info("op rejected")
		return encodeOrNil(wire.Envelope{
			Type:      wire.TypeError,
			Op:        env.Op,
			Error:     opErr.Error(),
			Timestamp: time.Now().Unix(),
		})
	}

	if snap, err := s.snapshot(true); err == nil {
		s.hub.broadcast <- snap
	} else {
		s.log.WithError(err).Error("snapshot after op failed")
	}
	return encodeOrNil(wire.Envelope{
		Type:      wire.TypeAck,
		Op:        env.Op,
		Timestamp: time.Now().Unix(),
	})
}

// snapshot reads the full collection and encodes it; bump advances the
// sequence number (every accepted mutation does, a fresh subscriber reuses
// the current one).
func (s *Server) snapshot(bump bool) ([]byte, error) {
	items, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	s.seqMu.Lock()
	if bump || s.seq == 0 {
		s.seq++
	}
	seq := s.seq
	s.seqMu.Unlock()
	return wire.Encode(wire.Envelope{
		Type:      wire.TypeSnapshot,
		Snapshot:  &store.Snapshot{Seq: seq, Items: items},
		Timestamp: time.Now().Unix(),
	})
}

func encodeOrNil(env wire.Envelope) []byte {
	b, err := wire.Encode(env)
	if err != nil {
		return nil
	}
	return b
}
