package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := OpenRepo(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInsertResolvesMarker(t *testing.T) {
	repo := openTestRepo(t)

	it, err := repo.Insert(model.Item{
		ID:        "a",
		Content:   "buy milk",
		Category:  model.CategoryPersonal,
		CreatedAt: model.PendingMarker(),
		CreatedBy: "session-1",
	})
	require.NoError(t, err)
	assert.True(t, it.CreatedAt.Resolved(), "server assigns the timestamp at insert")

	items, err := repo.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "buy milk", items[0].Content)
	assert.Equal(t, "session-1", items[0].CreatedBy)
	assert.True(t, items[0].CreatedAt.Resolved())
}

func TestInsertRejectsBlankContent(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Insert(model.Item{ID: "a", Content: "  ", Category: model.CategoryPersonal})
	assert.ErrorIs(t, err, model.ErrEmptyContent)
}

func TestMergePatchesOnlyTouchedFields(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Insert(model.Item{ID: "a", Content: "one", Category: model.CategoryBusiness})
	require.NoError(t, err)

	done := true
	require.NoError(t, repo.Merge("a", store.Patch{Done: &done}))

	items, err := repo.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)
	assert.Equal(t, "one", items[0].Content)

	content := "one edited"
	require.NoError(t, repo.Merge("a", store.Patch{Content: &content}))
	items, err = repo.List()
	require.NoError(t, err)
	assert.Equal(t, "one edited", items[0].Content)
	assert.True(t, items[0].Done, "done untouched by the content patch")
}

func TestMergeRejectsBlankContent(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Insert(model.Item{ID: "a", Content: "one", Category: model.CategoryBusiness})
	require.NoError(t, err)

	blank := "   "
	assert.ErrorIs(t, repo.Merge("a", store.Patch{Content: &blank}), model.ErrEmptyContent)
}

func TestMergeAndDeleteUnknownID(t *testing.T) {
	repo := openTestRepo(t)
	done := true
	assert.ErrorIs(t, repo.Merge("missing", store.Patch{Done: &done}), store.ErrNotFound)
	assert.ErrorIs(t, repo.Delete("missing"), store.ErrNotFound)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	repo := openTestRepo(t)
	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.Insert(model.Item{ID: id, Content: "x " + id, Category: model.CategoryPersonal})
		require.NoError(t, err)
	}
	items, err := repo.List()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, "b", items[2].ID)
}
