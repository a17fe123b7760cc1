package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/pkg/models"
)

type memPersister struct {
	queue *models.Queue
}

func (p *memPersister) Load() (*models.Queue, error) { return p.queue, nil }
func (p *memPersister) Save(q *models.Queue) error   { p.queue = q; return nil }

func newModelWithTasks(t *testing.T, titles ...string) (Model, core.Store) {
	t.Helper()
	store, err := core.NewStore(&memPersister{queue: models.NewQueue("test")}, time.Hour, nil, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	// Descending priorities keep the list order matching the title order.
	priorities := []models.Priority{models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
	for i, title := range titles {
		if _, err := store.AddTask(core.TaskDraft{Title: title, Priority: priorities[i%len(priorities)]}); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}
	return NewModel(store), store
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestNavigationClamps(t *testing.T) {
	m, _ := newModelWithTasks(t, "one", "two", "three")

	for i := 0; i < 5; i++ {
		m = press(t, m, runes("j"))
	}
	if m.selected != 2 {
		t.Errorf("selected = %d after overshooting down, want 2", m.selected)
	}

	for i := 0; i < 5; i++ {
		m = press(t, m, runes("k"))
	}
	if m.selected != 0 {
		t.Errorf("selected = %d after overshooting up, want 0", m.selected)
	}
}

func TestTabTogglesDetails(t *testing.T) {
	m, _ := newModelWithTasks(t, "one")

	m = press(t, m, key(tea.KeyTab))
	if m.mode != modeDetails {
		t.Fatalf("mode = %d, want details", m.mode)
	}
	m = press(t, m, key(tea.KeyTab))
	if m.mode != modeBrowsing {
		t.Errorf("mode = %d, want browsing", m.mode)
	}
}

func TestSpaceTogglesStatusThroughStore(t *testing.T) {
	m, store := newModelWithTasks(t, "one")
	id := m.tasks[0].ID

	expect := []models.TaskStatus{models.StatusInProgress, models.StatusCompleted, models.StatusPending}
	for _, want := range expect {
		m = press(t, m, runes(" "))
		got, ok := store.GetTask(id)
		if !ok {
			t.Fatal("task disappeared")
		}
		if got.Status != want {
			t.Fatalf("status = %s, want %s", got.Status, want)
		}
	}
}

func TestFilterCycleResetsCursor(t *testing.T) {
	m, store := newModelWithTasks(t, "one", "two", "three")

	done := models.StatusCompleted
	if _, err := store.UpdateTask(m.tasks[0].ID, core.TaskPatch{Status: &done}); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, runes("j"))
	m = press(t, m, runes("f")) // filter: pending
	if m.currentFilter() != models.StatusPending {
		t.Fatalf("filter = %q, want pending", m.currentFilter())
	}
	if m.selected != 0 {
		t.Errorf("cursor not reset: %d", m.selected)
	}
	if len(m.tasks) != 2 {
		t.Errorf("pending filter shows %d tasks, want 2", len(m.tasks))
	}

	// A full cycle returns to no filter.
	for i := 0; i < len(filterCycle)-1; i++ {
		m = press(t, m, runes("f"))
	}
	if m.currentFilter() != "" {
		t.Errorf("filter = %q after full cycle, want none", m.currentFilter())
	}
	if len(m.tasks) != 3 {
		t.Errorf("unfiltered list shows %d tasks", len(m.tasks))
	}
}

func TestSearchFiltersTasks(t *testing.T) {
	m, _ := newModelWithTasks(t, "wire the cache", "write docs", "cache eviction")

	m = press(t, m, runes("/"))
	if !m.searching {
		t.Fatal("slash did not enter search")
	}
	m = press(t, m, runes("cache"))
	m = press(t, m, key(tea.KeyEnter))

	if m.searching {
		t.Error("enter did not leave search")
	}
	if m.search != "cache" {
		t.Errorf("search = %q", m.search)
	}
	if len(m.tasks) != 2 {
		t.Errorf("search matched %d tasks, want 2", len(m.tasks))
	}

	// Esc cancels without applying.
	m = press(t, m, runes("/"))
	m = press(t, m, runes("extra"))
	m = press(t, m, key(tea.KeyEsc))
	if m.search != "cache" {
		t.Errorf("cancelled search changed the filter to %q", m.search)
	}
}

func TestEditSavesValidDraft(t *testing.T) {
	m, store := newModelWithTasks(t, "old title")
	id := m.tasks[0].ID

	m = press(t, m, runes("e"))
	if m.mode != modeEditing {
		t.Fatal("e did not enter editing")
	}
	m = press(t, m, key(tea.KeyCtrlU)) // clear the seeded title
	m = press(t, m, runes("renamed task"))
	m = press(t, m, key(tea.KeyEnter))

	if m.mode != modeBrowsing {
		t.Fatalf("save left mode = %d, errMsg = %q", m.mode, m.errMsg)
	}
	got, ok := store.GetTask(id)
	if !ok {
		t.Fatal("task disappeared")
	}
	if got.Title != "renamed task" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestEditInvalidStatusStaysEditing(t *testing.T) {
	m, store := newModelWithTasks(t, "one")
	id := m.tasks[0].ID

	m = press(t, m, runes("e"))
	for i := 0; i < 3; i++ {
		m = press(t, m, key(tea.KeyDown))
	}
	if m.editField != fieldStatus {
		t.Fatalf("editField = %d, want status", m.editField)
	}
	m = press(t, m, key(tea.KeyCtrlU))
	m = press(t, m, runes("paused"))
	m = press(t, m, key(tea.KeyEnter))

	if m.mode != modeEditing {
		t.Error("invalid draft left the editor")
	}
	if m.errMsg == "" {
		t.Error("no error shown for invalid status")
	}
	got, _ := store.GetTask(id)
	if got.Status != models.StatusPending {
		t.Errorf("rejected draft mutated the store: %s", got.Status)
	}
}

func TestEditEmptyTitleStaysEditing(t *testing.T) {
	m, _ := newModelWithTasks(t, "one")

	m = press(t, m, runes("e"))
	m = press(t, m, key(tea.KeyCtrlU))
	m = press(t, m, key(tea.KeyEnter))

	if m.mode != modeEditing {
		t.Error("empty title accepted")
	}
	if m.errMsg != "title cannot be empty" {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

func TestEscDiscardsDraft(t *testing.T) {
	m, store := newModelWithTasks(t, "keep me")
	id := m.tasks[0].ID

	m = press(t, m, runes("e"))
	m = press(t, m, key(tea.KeyCtrlU))
	m = press(t, m, runes("scratch"))
	m = press(t, m, key(tea.KeyEsc))

	if m.mode != modeBrowsing {
		t.Error("esc did not leave editing")
	}
	got, _ := store.GetTask(id)
	if got.Title != "keep me" {
		t.Errorf("discarded draft was written: %q", got.Title)
	}
}

func TestReloadRestoresCursorByID(t *testing.T) {
	m, store := newModelWithTasks(t, "one", "two", "three")
	if err := store.Flush(); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, runes("j"))
	want := m.tasks[m.selected].ID

	m = press(t, m, runes("r"))
	if m.errMsg != "" {
		t.Fatalf("reload failed: %s", m.errMsg)
	}
	if got := m.tasks[m.selected].ID; got != want {
		t.Errorf("cursor moved from %s to %s across reload", want, got)
	}
}
