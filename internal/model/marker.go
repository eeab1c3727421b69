package model

import (
	"encoding/json"
	"time"
)

// Marker is an item's creation marker. It has three representations,
// depending on write/read timing:
//
//   - pending: the write was issued but the store has not resolved a
//     timestamp yet
//   - resolved: the store acknowledged the write and assigned a timestamp
//   - absent: the item has not been synced at all (zero Marker)
//
// Ordering tolerates all three: anything unresolved sorts as key 0.
type Marker struct {
	Pending bool
	At      *Timestamp
}

// PendingMarker is the sentinel attached to a freshly issued create.
func PendingMarker() Marker {
	return Marker{Pending: true}
}

// MarkerAt builds a resolved marker from a wall-clock time.
func MarkerAt(t time.Time) Marker {
	return Marker{At: &Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}}
}

// Resolved reports whether the store has assigned a timestamp.
func (m Marker) Resolved() bool {
	return !m.Pending && m.At != nil
}

// SortKey maps the marker to a total order: resolved markers use their
// nanosecond epoch value, pending and absent markers use 0 so they sort
// before everything resolved. Freshly created items float to the top during
// the pending-write window.
func (m Marker) SortKey() int64 {
	if !m.Resolved() {
		return 0
	}
	return m.At.Seconds*int64(time.Second) + int64(m.At.Nanos)
}

// markerJSON is the wire shape: null for absent, {"pending":true} for the
// sentinel, {"seconds":s,"nanos":n} when resolved.
type markerJSON struct {
	Pending bool   `json:"pending,omitempty"`
	Seconds *int64 `json:"seconds,omitempty"`
	Nanos   int32  `json:"nanos,omitempty"`
}

func (m Marker) MarshalJSON() ([]byte, error) {
	switch {
	case m.Pending:
		return json.Marshal(markerJSON{Pending: true})
	case m.At != nil:
		return json.Marshal(markerJSON{Seconds: &m.At.Seconds, Nanos: m.At.Nanos})
	default:
		return []byte("null"), nil
	}
}

func (m *Marker) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Marker{}
		return nil
	}
	var raw markerJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Pending {
		*m = Marker{Pending: true}
		return nil
	}
	if raw.Seconds == nil {
		*m = Marker{}
		return nil
	}
	*m = Marker{At: &Timestamp{Seconds: *raw.Seconds, Nanos: raw.Nanos}}
	return nil
}
