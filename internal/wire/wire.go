// Package wire defines the JSON envelopes exchanged between a client and the
// sync server over a single WebSocket.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

// Message types. Clients send create/merge/delete, the server answers each
// op with ack or error and pushes snapshot to every connected client on
// subscribe and after each accepted mutation.
const (
	TypeCreate   = "create"
	TypeMerge    = "merge"
	TypeDelete   = "delete"
	TypeAck      = "ack"
	TypeError    = "error"
	TypeSnapshot = "snapshot"
)

// Envelope wraps every message. Op correlates a mutation with its ack/error
// reply; Timestamp is the sender's Unix time, informational only.
type Envelope struct {
	Type      string          `json:"type"`
	Op        string          `json:"op,omitempty"`
	Item      *model.Item     `json:"item,omitempty"`
	ID        string          `json:"id,omitempty"`
	Patch     *store.Patch    `json:"patch,omitempty"`
	Snapshot  *store.Snapshot `json:"snapshot,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Encode marshals the envelope for the socket.
func Encode(env Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return b, nil
}

// Decode parses one raw socket message and checks the minimal shape for its
// type so handlers can rely on the relevant fields being set.
func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	switch env.Type {
	case TypeCreate:
		if env.Item == nil {
			return Envelope{}, fmt.Errorf("create without item")
		}
	case TypeMerge:
		if env.ID == "" || env.Patch == nil {
			return Envelope{}, fmt.Errorf("merge without id or patch")
		}
	case TypeDelete:
		if env.ID == "" {
			return Envelope{}, fmt.Errorf("delete without id")
		}
	case TypeAck, TypeError:
		if env.Op == "" {
			return Envelope{}, fmt.Errorf("%s without op id", env.Type)
		}
	case TypeSnapshot:
		if env.Snapshot == nil {
			return Envelope{}, fmt.Errorf("snapshot without payload")
		}
	case "":
		return Envelope{}, fmt.Errorf("envelope without type")
	default:
		return Envelope{}, fmt.Errorf("unknown envelope type: %q", env.Type)
	}
	return env, nil
}
