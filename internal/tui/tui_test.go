package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
	"github.com/idilsaglam/lista/internal/sync"
)

// slowCollection stands in for a store whose round trips take real time,
// so tests can tell a dispatched write from a blocking one.
type slowCollection struct {
	delay     time.Duration
	createErr error
	created   []model.Item
}

func (c *slowCollection) Subscribe(ctx context.Context) (store.Subscription, error) {
	return nil, fmt.Errorf("not used")
}

func (c *slowCollection) Create(_ context.Context, it model.Item) (string, error) {
	time.Sleep(c.delay)
	if c.createErr != nil {
		return "", c.createErr
	}
	c.created = append(c.created, it)
	return "id-1", nil
}

func (c *slowCollection) Merge(_ context.Context, id string, p store.Patch) error {
	time.Sleep(c.delay)
	return nil
}

func (c *slowCollection) Delete(_ context.Context, id string) error {
	time.Sleep(c.delay)
	return nil
}

func (c *slowCollection) Close() error { return nil }

func newTestModel(coll store.Collection) modelTUI {
	m := modelTUI{
		ctx:    context.Background(),
		sync:   sync.New(coll, "session-1"),
		live:   true,
		list:   list.New(nil, itemDelegate{}, 0, 0),
		addCat: model.CategoryPersonal,
		width:  80,
		height: 24,
	}
	m.ti = textinput.New()
	return m
}

func enterKey() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func TestAddDoesNotBlockUpdateLoop(t *testing.T) {
	coll := &slowCollection{delay: 500 * time.Millisecond}
	m := newTestModel(coll)
	m.adding = true
	m.ti.SetValue("buy milk")

	start := time.Now()
	next, cmd := m.Update(enterKey())
	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"the update loop must not wait for the store's ack")
	require.NotNil(t, cmd, "the create is dispatched as a command")

	mm := next.(modelTUI)
	assert.False(t, mm.adding)
	assert.Empty(t, mm.ti.Value())

	// the command carries the round trip and reports back as a message
	res, ok := cmd().(opResultMsg)
	require.True(t, ok)
	assert.NoError(t, res.err)
	require.Len(t, coll.created, 1)
	assert.Equal(t, "buy milk", coll.created[0].Content)
}

func TestToggleAndFlushDispatchAsCommands(t *testing.T) {
	coll := &slowCollection{delay: 200 * time.Millisecond}
	m := newTestModel(coll)
	m.sync.Apply(store.Snapshot{Seq: 1, Items: []model.Item{
		{ID: "a", Content: "one", Category: model.CategoryPersonal},
	}})
	m.refresh()

	start := time.Now()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	require.NotNil(t, cmd)

	m.editing = true
	m.editID = "a"
	m.sync.SetDraft("a", "one edited")
	start = time.Now()
	_, cmd = m.Update(enterKey())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	require.NotNil(t, cmd)
}

func TestFailedAddRestoresInput(t *testing.T) {
	coll := &slowCollection{createErr: fmt.Errorf("connection refused")}
	m := newTestModel(coll)
	m.adding = true
	m.ti.SetValue("walk dog")

	next, cmd := m.Update(enterKey())
	require.NotNil(t, cmd)
	mm := next.(modelTUI)
	assert.Empty(t, mm.ti.Value(), "cleared optimistically on dispatch")

	next2, _ := mm.Update(cmd())
	mm2 := next2.(modelTUI)
	assert.True(t, mm2.adding, "add mode resumes so the text is not lost")
	assert.Equal(t, "walk dog", mm2.ti.Value())
	assert.Contains(t, mm2.sync.Status(), "add")
}

func TestStatusClearsAfterLaterSuccess(t *testing.T) {
	m := newTestModel(&slowCollection{})
	next, _ := m.Update(opResultMsg{err: fmt.Errorf("add: connection refused")})
	mm := next.(modelTUI)
	assert.NotEmpty(t, mm.sync.Status())

	next2, _ := mm.Update(opResultMsg{})
	mm2 := next2.(modelTUI)
	assert.Empty(t, mm2.sync.Status(), "a successful op unpins the old error")
}
