package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todos.json")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func receive(t *testing.T, ch <-chan store.Snapshot) store.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "subscription ended unexpectedly")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return store.Snapshot{}
	}
}

func TestCreateResolvesMarkerAndBroadcasts(t *testing.T) {
	s, _ := openTestStore(t)
	sub, err := s.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	first := receive(t, sub.Snapshots())
	assert.Empty(t, first.Items)

	id, err := s.Create(context.Background(), model.Item{
		Content:   "buy milk",
		Category:  model.CategoryPersonal,
		CreatedAt: model.PendingMarker(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap := receive(t, sub.Snapshots())
	require.Len(t, snap.Items, 1)
	assert.Equal(t, id, snap.Items[0].ID)
	assert.True(t, snap.Items[0].CreatedAt.Resolved(), "local store resolves immediately")
	assert.Greater(t, snap.Seq, first.Seq)
}

func TestCreateRejectsInvalidItem(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Create(context.Background(), model.Item{Content: "  ", Category: model.CategoryPersonal})
	assert.ErrorIs(t, err, model.ErrEmptyContent)
}

func TestMergeSemantics(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, model.Item{Content: "one", Category: model.CategoryBusiness})
	require.NoError(t, err)

	done := true
	require.NoError(t, s.Merge(ctx, id, store.Patch{Done: &done}))

	sub, err := s.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()
	snap := receive(t, sub.Snapshots())
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Items[0].Done)
	assert.Equal(t, "one", snap.Items[0].Content, "untouched field survives the merge")

	assert.ErrorIs(t, s.Merge(ctx, "nope", store.Patch{Done: &done}), store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, model.Item{Content: "one", Category: model.CategoryBusiness})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	assert.ErrorIs(t, s.Delete(ctx, id), store.ErrNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Create(context.Background(), model.Item{Content: "one", Category: model.CategoryPersonal})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	sub, err := reopened.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	snap := receive(t, sub.Snapshots())
	require.Len(t, snap.Items, 1)
	assert.Equal(t, id, snap.Items[0].ID)
	assert.True(t, snap.Items[0].CreatedAt.Resolved())
}

func TestLatestSnapshotDisplacesUndelivered(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	sub, err := s.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()
	receive(t, sub.Snapshots())

	// two writes before the subscriber reads: only the newest state matters
	_, err = s.Create(ctx, model.Item{Content: "one", Category: model.CategoryPersonal})
	require.NoError(t, err)
	_, err = s.Create(ctx, model.Item{Content: "two", Category: model.CategoryPersonal})
	require.NoError(t, err)

	snap := receive(t, sub.Snapshots())
	assert.Len(t, snap.Items, 2)
}

func TestSubscriptionEndsOnContextCancel(t *testing.T) {
	s, _ := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := s.Subscribe(ctx)
	require.NoError(t, err)
	receive(t, sub.Snapshots())

	cancel()
	select {
	case _, ok := <-sub.Snapshots():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after cancel")
	}
	assert.NoError(t, sub.Err())
}
