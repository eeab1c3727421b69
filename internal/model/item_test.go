package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("business")
	require.NoError(t, err)
	assert.Equal(t, CategoryBusiness, c)

	c, err = ParseCategory("  Personal ")
	require.NoError(t, err)
	assert.Equal(t, CategoryPersonal, c)

	_, err = ParseCategory("work")
	assert.Error(t, err)
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("buy milk"))
	assert.ErrorIs(t, ValidateContent(""), ErrEmptyContent)
	assert.ErrorIs(t, ValidateContent("   \t "), ErrEmptyContent)
}

func TestItemValidate(t *testing.T) {
	it := Item{ID: "a", Content: "buy milk", Category: CategoryPersonal}
	assert.NoError(t, it.Validate())

	it.Content = "  "
	assert.Error(t, it.Validate())

	it.Content = "buy milk"
	it.Category = "work"
	assert.Error(t, it.Validate())
}

func TestSortByCreation(t *testing.T) {
	at := func(sec int64) Marker { return MarkerAt(time.Unix(sec, 0)) }
	items := []Item{
		{ID: "c", CreatedAt: at(300)},
		{ID: "a", CreatedAt: at(100)},
		{ID: "p", CreatedAt: PendingMarker()},
		{ID: "b", CreatedAt: at(200)},
		{ID: "n"}, // absent marker
	}

	SortByCreation(items)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	// unresolved first, in delivery order; resolved ascending
	assert.Equal(t, []string{"p", "n", "a", "b", "c"}, ids)
}

func TestSortByCreationStable(t *testing.T) {
	same := MarkerAt(time.Unix(500, 0))
	items := []Item{
		{ID: "x", CreatedAt: same},
		{ID: "y", CreatedAt: same},
		{ID: "z", CreatedAt: same},
	}
	SortByCreation(items)
	assert.Equal(t, "x", items[0].ID)
	assert.Equal(t, "y", items[1].ID)
	assert.Equal(t, "z", items[2].ID)
}
