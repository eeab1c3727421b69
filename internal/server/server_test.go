package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
	"github.com/idilsaglam/lista/internal/store/wsstore"
)

// End-to-end over a real socket: wsstore client against the server.

func startTestServer(t *testing.T) string {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	repo, err := OpenRepo(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv := New(repo, log)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) (*wsstore.Store, store.Subscription) {
	t.Helper()
	ctx := context.Background()
	st, err := wsstore.Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	sub, err := st.Subscribe(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })
	return st, sub
}

func nextSnapshot(t *testing.T, sub store.Subscription) store.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription ended: %v", sub.Err())
		return snap
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return store.Snapshot{}
	}
}

// waitForItems reads snapshots until one has n items. Acks and broadcasts
// race on distinct connections, so intermediate states are allowed through.
func waitForItems(t *testing.T, sub store.Subscription, n int) store.Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap, ok := <-sub.Snapshots():
			require.True(t, ok, "subscription ended: %v", sub.Err())
			if len(snap.Items) == n {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a snapshot with %d items", n)
		}
	}
}

func TestCreateFlowsBackThroughSnapshot(t *testing.T) {
	url := startTestServer(t)
	st, sub := dial(t, url)
	ctx := context.Background()

	first := nextSnapshot(t, sub)
	assert.Empty(t, first.Items)

	id, err := st.Create(ctx, model.Item{
		Content:   "buy milk",
		Category:  model.CategoryPersonal,
		CreatedBy: "session-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap := waitForItems(t, sub, 1)
	assert.Greater(t, snap.Seq, first.Seq)
	it := snap.Items[0]
	assert.Equal(t, id, it.ID)
	assert.Equal(t, "buy milk", it.Content)
	assert.True(t, it.CreatedAt.Resolved(), "server resolves the pending marker")
	assert.Equal(t, "session-1", it.CreatedBy)
}

func TestMergeAndDeleteFlow(t *testing.T) {
	url := startTestServer(t)
	st, sub := dial(t, url)
	ctx := context.Background()

	id, err := st.Create(ctx, model.Item{Content: "one", Category: model.CategoryBusiness})
	require.NoError(t, err)
	waitForItems(t, sub, 1)

	done := true
	require.NoError(t, st.Merge(ctx, id, store.Patch{Done: &done}))
	snap := waitForItems(t, sub, 1)
	assert.True(t, snap.Items[0].Done)
	assert.Equal(t, "one", snap.Items[0].Content)

	require.NoError(t, st.Delete(ctx, id))
	waitForItems(t, sub, 0)
}

func TestRejectedOpsReturnErrors(t *testing.T) {
	url := startTestServer(t)
	st, _ := dial(t, url)
	ctx := context.Background()

	_, err := st.Create(ctx, model.Item{Content: "   ", Category: model.CategoryPersonal})
	assert.Error(t, err)

	done := true
	assert.Error(t, st.Merge(ctx, "missing", store.Patch{Done: &done}))
	assert.Error(t, st.Delete(ctx, "missing"))
}

func TestSecondClientSeesBroadcast(t *testing.T) {
	url := startTestServer(t)
	writer, _ := dial(t, url)
	_, watcherSub := dial(t, url)
	ctx := context.Background()

	nextSnapshot(t, watcherSub)
	_, err := writer.Create(ctx, model.Item{Content: "shared", Category: model.CategoryPersonal})
	require.NoError(t, err)

	snap := waitForItems(t, watcherSub, 1)
	assert.Equal(t, "shared", snap.Items[0].Content)
}
