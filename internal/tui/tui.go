// Package tui is the live list view. It drives the synchronizer from the
// Bubble Tea update loop: snapshots arrive as messages, key presses become
// mutation intents, and the list repaints from the synchronizer's ordered
// projection after every event.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
	"github.com/idilsaglam/lista/internal/sync"
)

// listItem adapts a model.Item to bubbles/list.Item
type listItem struct {
	it model.Item
}

func (i listItem) TitleText() string {
	box := boxUnchecked
	if i.it.Done {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.it.Content)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.TitleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.it.Content }

// snapshotMsg carries one subscription event into the update loop. ok is
// false when the channel closed (subscription ended).
type snapshotMsg struct {
	snap store.Snapshot
	ok   bool
}

func waitForSnapshot(ch <-chan store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg{snap: snap, ok: ok}
	}
}

// opResultMsg reports a completed remote mutation back into the loop.
// restore carries the add text to hand back when the create failed.
type opResultMsg struct {
	err     error
	restore string
}

// runOp performs a staged mutation in a command goroutine, keeping the
// update loop free while the store round trip is in flight.
func runOp(ctx context.Context, d sync.Deferred, restore string) tea.Cmd {
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		return opResultMsg{err: d(ctx), restore: restore}
	}
}

type modelTUI struct {
	ctx   context.Context
	sync  *sync.Synchronizer
	snaps <-chan store.Snapshot
	live  bool

	list   list.Model
	width  int
	height int

	// Inline add
	adding bool
	ti     textinput.Model // shared text input model (used for add & edit)
	addCat model.Category
	addErr string

	// Inline edit (tracked by id: a snapshot can reorder the list mid-edit)
	editing bool
	editID  string

	// Undo support (single-level)
	canUndo  bool
	undoItem *model.Item
}

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	li, _ := item.(listItem)

	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := li.it.Content
	if li.it.Done {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(li.it.Content)
	}
	line := fmt.Sprintf("%s %s %s", boxStyled, badge(li.it.Category), textStyled)
	if !li.it.CreatedAt.Resolved() {
		line += " " + pendingStyle.Render("•")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// Run starts the live list and blocks until the user quits.
func Run(ctx context.Context, s *sync.Synchronizer, snaps <-chan store.Snapshot) error {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = titleStyle.Render("Todos")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	// Extend help with Add / Edit / Undo bindings
	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	undoBind := key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, undoBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, undoBind} }

	m := modelTUI{
		ctx:    ctx,
		sync:   s,
		snaps:  snaps,
		live:   true,
		list:   l,
		addCat: model.CategoryPersonal,
		width:  80,
		height: 24,
	}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.Placeholder = "New item..."
	m.ti.CharLimit = 200

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m modelTUI) Init() tea.Cmd { return waitForSnapshot(m.snaps) }

// refresh rebuilds the visible list from the synchronizer's projection,
// keeping the cursor on the same item when it survived the snapshot.
func (m *modelTUI) refresh() {
	var selected string
	if li, ok := m.list.SelectedItem().(listItem); ok {
		selected = li.it.ID
	}

	items := m.sync.Items()
	li := make([]list.Item, 0, len(items))
	reselect := -1
	for i, it := range items {
		if it.ID == selected {
			reselect = i
		}
		li = append(li, listItem{it: it})
	}
	m.list.SetItems(li)
	if reselect >= 0 {
		m.list.Select(reselect)
	}

	dn, pn := stats(items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(items),
	)
}

func (m modelTUI) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.it, true
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Snapshots apply in every mode: remote state is authoritative.
	switch x := msg.(type) {
	case snapshotMsg:
		if !x.ok {
			m.sync.SubscriptionLost()
			m.live = false
			return m, nil
		}
		m.sync.Apply(x.snap)
		m.refresh()
		return m, waitForSnapshot(m.snaps)

	case opResultMsg:
		m.sync.Observe(x.err)
		if x.err != nil && x.restore != "" {
			// the failed add's text comes back instead of being lost
			m.sync.SetInput(x.restore)
			m.ti.SetValue(x.restore)
			m.ti.CursorEnd()
			m.ti.Placeholder = "New item..."
			m.ti.Focus()
			m.adding = true
			m.editing = false
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		return m, nil
	}

	// add mode
	if m.adding {
		var cmd tea.Cmd
		switch x := msg.(type) {
		case tea.KeyMsg:
			switch x.String() {
			case "enter":
				content := m.ti.Value()
				d, err := m.sync.StageAdd(content, m.addCat)
				if errors.Is(err, model.ErrEmptyContent) {
					m.addErr = "Content cannot be empty"
					return m, nil
				}
				// The create runs off the loop; a failure lands on the
				// status line and the item shows up once the subscription
				// echoes it back.
				m.ti.SetValue("")
				m.ti.Blur()
				m.adding = false
				return m, runOp(m.ctx, d, content)
			case "tab":
				if m.addCat == model.CategoryPersonal {
					m.addCat = model.CategoryBusiness
				} else {
					m.addCat = model.CategoryPersonal
				}
				return m, nil
			case "esc":
				m.adding = false
				m.ti.SetValue("")
				m.ti.Blur()
				m.sync.SetInput("")
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		m.sync.SetInput(m.ti.Value())
		return m, cmd
	}

	// edit mode: keystrokes stay local drafts, enter flushes (blur), esc
	// discards
	if m.editing {
		var cmd tea.Cmd
		switch x := msg.(type) {
		case tea.KeyMsg:
			switch x.String() {
			case "enter":
				d := m.sync.StageFlushDraft(m.editID)
				m.ti.SetValue("")
				m.ti.Blur()
				m.editing = false
				m.refresh()
				return m, runOp(m.ctx, d, "")
			case "esc":
				m.sync.DiscardDraft(m.editID)
				m.editing = false
				m.ti.SetValue("")
				m.ti.Blur()
				m.refresh()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		m.sync.SetDraft(m.editID, m.ti.Value())
		m.refresh()
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case " ":
			if it, ok := m.selected(); ok {
				return m, runOp(m.ctx, m.sync.StageToggleDone(it.ID), "")
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				tmp := it
				m.undoItem = &tmp
				m.canUndo = true
				return m, runOp(m.ctx, m.sync.StageRemove(it.ID), "")
			}
			return m, nil
		case "a":
			m.adding = true
			m.addErr = ""
			m.ti.SetValue("")
			m.ti.Placeholder = "New item..."
			m.ti.Focus()
			return m, nil
		case "e":
			if it, ok := m.selected(); ok {
				m.editing = true
				m.editID = it.ID
				m.ti.SetValue(it.Content)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item..."
				m.ti.Focus()
			}
			return m, nil
		case "u":
			if m.canUndo && m.undoItem != nil {
				d, err := m.sync.StageRestore(*m.undoItem)
				m.canUndo = false
				m.undoItem = nil
				if err == nil {
					return m, runOp(m.ctx, d, "")
				}
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) View() string {
	listHeight := m.height - 5
	if m.adding || m.editing {
		listHeight = m.height - 7
	}
	m.list.SetSize(m.width-2, listHeight)

	content := m.list.View()
	if m.adding || m.editing {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := fmt.Sprintf("Add new item %s (tab switches category)", badge(m.addCat))
		if m.editing {
			title = "Edit item (enter saves, esc discards)"
		}
		if m.addErr != "" && m.adding {
			title += "  " + errorStyle.Render(m.addErr)
		}
		inputLine := title + "\n" + m.ti.View()
		content = content + "\n" + bar.Render(inputLine)
	}
	return panelString(content) + "\n" + m.statusLine()
}

func (m modelTUI) statusLine() string {
	if st := m.sync.Status(); st != "" {
		return errorStyle.Render("✖ " + st)
	}
	if !m.live {
		return errorStyle.Render("✖ sync lost")
	}
	return mutedStyle.Render("live")
}

// small list stats used for the header
func stats(items []model.Item) (done, pending int) {
	for _, it := range items {
		if it.Done {
			done++
		} else {
			pending++
		}
	}
	return
}
