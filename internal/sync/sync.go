// Package sync holds the view-model synchronizer: the one piece of state the
// client owns. It mirrors a remote collection through full snapshots, issues
// CRUD intents against it, and layers unflushed local edits on top so the UI
// stays responsive while the store remains authoritative.
package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

// Deferred is a staged remote mutation. Staging happens on the event loop
// and applies the local effects; the returned call only talks to the store,
// so it is safe to run off the loop. Feed its result back through Observe.
type Deferred func(ctx context.Context) error

// Synchronizer reconciles remote snapshots with in-flight local edits.
//
// It is not internally locked: it is meant to be driven by a single event
// loop (the TUI update loop, or the CLI's drain loop). The subscription
// goroutine only delivers snapshots into that loop; Apply is called from the
// loop itself.
type Synchronizer struct {
	coll    store.Collection
	session string

	// committed mirrors the last applied snapshot, in delivery order.
	committed []model.Item
	seq       uint64
	seen      bool

	// drafts holds per-item pending edits: typed locally, not yet flushed.
	drafts map[string]string

	input  string
	status string

	sub store.Subscription
}

// New builds a synchronizer over coll. session is the anonymous session id
// attached to created items as createdBy.
func New(coll store.Collection, session string) *Synchronizer {
	return &Synchronizer{
		coll:   coll,
		drafts: make(map[string]string),

		session: session,
	}
}

// Session returns the anonymous session id this synchronizer writes with.
func (s *Synchronizer) Session() string { return s.session }

// ---------------------------------------------------
// Subscription lifecycle
// ---------------------------------------------------

// Subscribe opens a live subscription and returns its snapshot channel. Any
// previous subscription is closed first, so re-subscribing never leaks one.
// The caller feeds every received snapshot back through Apply.
func (s *Synchronizer) Subscribe(ctx context.Context) (<-chan store.Snapshot, error) {
	if s.sub != nil {
		_ = s.sub.Close()
		s.sub = nil
	}
	sub, err := s.coll.Subscribe(ctx)
	if err != nil {
		serr := asSyncError(err)
		s.status = serr.Error()
		return nil, serr
	}
	s.sub = sub
	return sub.Snapshots(), nil
}

// SubscriptionLost records why the snapshot channel closed. Re-subscribing
// is the caller's decision; the synchronizer only surfaces the status.
func (s *Synchronizer) SubscriptionLost() {
	if s.sub == nil {
		return
	}
	if err := s.sub.Err(); err != nil {
		s.status = asSyncError(err).Error()
	}
	s.sub = nil
}

// asSyncError wraps err in a SyncError unless it already carries one, so
// status strings never stack "sync:" prefixes.
func asSyncError(err error) error {
	var se *store.SyncError
	if errors.As(err, &se) {
		return err
	}
	return &store.SyncError{Err: err}
}

// Close tears the subscription down deterministically.
func (s *Synchronizer) Close() error {
	if s.sub == nil {
		return nil
	}
	err := s.sub.Close()
	s.sub = nil
	return err
}

// Apply replaces the committed state with a snapshot. It returns false when
// the snapshot is stale (an older delivery superseded by one already
// applied) and was dropped. Drafts survive a snapshot, except for items
// that no longer exist or whose committed content caught up with the draft.
func (s *Synchronizer) Apply(snap store.Snapshot) bool {
	if s.seen && snap.Seq <= s.seq {
		return false
	}
	s.seen = true
	s.seq = snap.Seq
	s.committed = append(s.committed[:0:0], snap.Items...)

	present := make(map[string]string, len(s.committed))
	for _, it := range s.committed {
		present[it.ID] = it.Content
	}
	for id, draft := range s.drafts {
		content, ok := present[id]
		if !ok || content == draft {
			delete(s.drafts, id)
		}
	}
	return true
}

// ---------------------------------------------------
// Mutation intents
// ---------------------------------------------------

// StageAdd validates content and stages one create. The input buffer clears
// right away (optimistic, not gated on remote confirmation); the item itself
// shows up only once the subscription echoes it back. Returns
// model.ErrEmptyContent and no Deferred when content is blank.
func (s *Synchronizer) StageAdd(content string, cat model.Category) (Deferred, error) {
	it, err := s.buildItem(content, cat)
	if err != nil {
		return nil, err
	}
	s.input = ""
	return s.stageCreate(it, "add"), nil
}

// Add is the blocking form of StageAdd, for one-shot callers that wait for
// the ack anyway. The input buffer clears on success only.
func (s *Synchronizer) Add(ctx context.Context, content string, cat model.Category) error {
	it, err := s.buildItem(content, cat)
	if err != nil {
		return err
	}
	if err := s.stageCreate(it, "add")(ctx); err != nil {
		return s.fail(err)
	}
	s.input = ""
	return nil
}

func (s *Synchronizer) buildItem(content string, cat model.Category) (model.Item, error) {
	if err := model.ValidateContent(content); err != nil {
		return model.Item{}, err
	}
	return model.Item{
		Content:   strings.TrimSpace(content),
		Category:  cat,
		Done:      false,
		CreatedAt: model.PendingMarker(),
		CreatedBy: s.session,
	}, nil
}

func (s *Synchronizer) stageCreate(it model.Item, op string) Deferred {
	coll := s.coll
	return func(ctx context.Context) error {
		if _, err := coll.Create(ctx, it); err != nil {
			return &store.WriteError{Op: op, Err: err}
		}
		return nil
	}
}

// StageRestore stages the re-creation of a previously removed item
// (single-level undo). The store assigns a fresh id and creation marker;
// content, category and done survive.
func (s *Synchronizer) StageRestore(it model.Item) (Deferred, error) {
	if err := model.ValidateContent(it.Content); err != nil {
		return nil, err
	}
	it.ID = ""
	it.CreatedAt = model.PendingMarker()
	it.CreatedBy = s.session
	return s.stageCreate(it, "undo"), nil
}

// Restore is the blocking form of StageRestore.
func (s *Synchronizer) Restore(ctx context.Context, it model.Item) error {
	d, err := s.StageRestore(it)
	if err != nil {
		return err
	}
	return s.runNow(ctx, d)
}

// StageRemove stages a delete. There is no optimistic removal: the item
// leaves the view when the next snapshot omits it.
func (s *Synchronizer) StageRemove(id string) Deferred {
	coll := s.coll
	return func(ctx context.Context) error {
		if err := coll.Delete(ctx, id); err != nil {
			return &store.WriteError{Op: "remove", Err: err}
		}
		return nil
	}
}

// Remove is the blocking form of StageRemove.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	return s.runNow(ctx, s.StageRemove(id))
}

// StageToggleDone stages a merge patch flipping the done flag; other fields
// are untouched. Unknown ids return nil (the item may have been removed
// remotely since the keypress).
func (s *Synchronizer) StageToggleDone(id string) Deferred {
	it, ok := s.find(id)
	if !ok {
		return nil
	}
	done := !it.Done
	coll := s.coll
	return func(ctx context.Context) error {
		if err := coll.Merge(ctx, id, store.Patch{Done: &done}); err != nil {
			return &store.WriteError{Op: "toggle", Err: err}
		}
		return nil
	}
}

// ToggleDone is the blocking form of StageToggleDone.
func (s *Synchronizer) ToggleDone(ctx context.Context, id string) error {
	return s.runNow(ctx, s.StageToggleDone(id))
}

// runNow executes a staged mutation synchronously, recording failures on
// the status line. A nil Deferred (nothing to do) is a no-op.
func (s *Synchronizer) runNow(ctx context.Context, d Deferred) error {
	if d == nil {
		return nil
	}
	if err := d(ctx); err != nil {
		return s.fail(err)
	}
	return nil
}

// ---------------------------------------------------
// Drafts (edit-on-blur)
// ---------------------------------------------------

// SetDraft records a locally edited, unflushed content value for an item.
// Called on every keystroke; nothing is persisted until FlushDraft.
func (s *Synchronizer) SetDraft(id, text string) {
	if _, ok := s.find(id); !ok {
		return
	}
	s.drafts[id] = text
}

// Draft returns the pending edit for an item, if any.
func (s *Synchronizer) Draft(id string) (string, bool) {
	d, ok := s.drafts[id]
	return d, ok
}

// DiscardDraft drops a pending edit without persisting it.
func (s *Synchronizer) DiscardDraft(id string) {
	delete(s.drafts, id)
}

// StageFlushDraft ends editing for an item: a blank draft is discarded
// silently and the committed content stands; an unchanged draft issues no
// write (both return nil); otherwise the trimmed draft is staged as a
// content-only merge patch. The draft stays layered over the view until the
// snapshot echoes it back, and is kept untouched when the write fails.
func (s *Synchronizer) StageFlushDraft(id string) Deferred {
	draft, ok := s.drafts[id]
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(draft)
	if trimmed == "" {
		delete(s.drafts, id)
		return nil
	}
	it, found := s.find(id)
	if !found {
		delete(s.drafts, id)
		return nil
	}
	if trimmed == it.Content {
		delete(s.drafts, id)
		return nil
	}
	s.drafts[id] = trimmed
	coll := s.coll
	return func(ctx context.Context) error {
		if err := coll.Merge(ctx, id, store.Patch{Content: &trimmed}); err != nil {
			return &store.WriteError{Op: "edit", Err: err}
		}
		return nil
	}
}

// FlushDraft is the blocking form of StageFlushDraft.
func (s *Synchronizer) FlushDraft(ctx context.Context, id string) error {
	return s.runNow(ctx, s.StageFlushDraft(id))
}

// ---------------------------------------------------
// Projection
// ---------------------------------------------------

// Items returns the display projection: committed items overlaid with
// drafts, sorted ascending by creation marker. Pending and absent markers
// sort as the earliest value; ties keep the last snapshot's order.
func (s *Synchronizer) Items() []model.Item {
	out := append(s.committed[:0:0], s.committed...)
	for i := range out {
		if d, ok := s.drafts[out[i].ID]; ok {
			out[i].Content = d
		}
	}
	model.SortByCreation(out)
	return out
}

func (s *Synchronizer) find(id string) (model.Item, bool) {
	for _, it := range s.committed {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// ---------------------------------------------------
// Input buffer and status
// ---------------------------------------------------

// SetInput mirrors the add-form text. Add clears it on success.
func (s *Synchronizer) SetInput(text string) { s.input = text }

// Input returns the current add-form text.
func (s *Synchronizer) Input() string { return s.input }

// Status is the human-readable indicator the presentation layer observes.
// Empty means no failure has been recorded since the last ClearStatus.
func (s *Synchronizer) Status() string { return s.status }

// ClearStatus resets the indicator, typically after the UI displayed it.
func (s *Synchronizer) ClearStatus() { s.status = "" }

// Observe records the outcome of a staged mutation that ran off the loop.
// A failure lands on the status line; a success clears any stale one.
func (s *Synchronizer) Observe(err error) {
	if err != nil {
		s.status = err.Error()
		return
	}
	s.status = ""
}

func (s *Synchronizer) fail(err error) error {
	s.status = err.Error()
	return err
}
