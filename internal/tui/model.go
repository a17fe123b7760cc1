// Package tui implements the interactive task viewer. All keyboard input
// flows through a single bubbletea model with three modes: browsing the
// list, inspecting details, and editing one task's fields.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/pkg/models"
)

type mode int

const (
	modeBrowsing mode = iota
	modeDetails
	modeEditing
)

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldStatus
	fieldCount
)

// filterCycle orders the status filters reached by the f key. The empty
// value means no filter.
var filterCycle = []models.TaskStatus{
	"",
	models.StatusPending,
	models.StatusInProgress,
	models.StatusCompleted,
	models.StatusBlocked,
	models.StatusCancelled,
}

// editDraft holds the in-flight field values while editing. Nothing is
// written to the store until the whole draft validates.
type editDraft struct {
	title       string
	description string
	priority    string
	status      string
}

// Model drives the task viewer. It reads through the store's query
// methods and mutates through UpdateTask only.
type Model struct {
	store core.Store

	tasks    []*models.Task
	selected int
	mode     mode

	filterIdx int
	search    string

	searching   bool
	searchInput textinput.Model

	editInput textinput.Model
	editField int
	draft     editDraft

	errMsg string

	width  int
	height int
}

// NewModel creates a viewer over the given store and loads the initial
// task snapshot.
func NewModel(store core.Store) Model {
	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 100

	edit := textinput.New()
	edit.CharLimit = 1000

	m := Model{
		store:       store,
		searchInput: search,
		editInput:   edit,
		width:       80,
		height:      24,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeEditing {
			return m.updateEditing(msg)
		}
		if m.searching {
			return m.updateSearching(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) View() string {
	s := scene{
		queueName: m.store.QueueName(),
		filter:    m.currentFilter(),
		search:    m.search,
		searching: m.searching,
		mode:      m.mode,
		tasks:     m.tasks,
		selected:  m.selected,
		editField: m.editField,
		draft:     m.draft,
		errMsg:    m.errMsg,
		width:     m.width,
		height:    m.height,
	}
	s.total, s.completed = m.store.QueueCounts()
	if m.searching {
		s.searchView = m.searchInput.View()
	}
	if m.mode == modeEditing {
		s.editView = m.editInput.View()
	}
	return strings.Join(buildScene(s), "\n")
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// Best effort; the store is flushed again on process shutdown.
		_ = m.store.Flush()
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}
		return m, nil

	case "tab":
		if m.mode == modeDetails {
			m.mode = modeBrowsing
		} else if len(m.tasks) > 0 {
			m.mode = modeDetails
		}
		return m, nil

	case "enter", "e":
		if len(m.tasks) == 0 {
			return m, nil
		}
		return m.enterEditing(), nil

	case " ":
		return m.toggleStatus(), nil

	case "f":
		m.filterIdx = (m.filterIdx + 1) % len(filterCycle)
		m.selected = 0
		m.refresh()
		return m, nil

	case "/":
		m.searching = true
		m.searchInput.SetValue(m.search)
		m.searchInput.Focus()
		return m, textinput.Blink

	case "r":
		return m.reload(), nil
	}
	return m, nil
}

func (m Model) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search = strings.TrimSpace(m.searchInput.Value())
		m.searching = false
		m.searchInput.Blur()
		m.selected = 0
		m.refresh()
		return m, nil

	case "esc", "ctrl+c":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		// Discard the draft entirely.
		m.mode = modeBrowsing
		m.errMsg = ""
		m.editInput.Blur()
		return m, nil

	case "up":
		m.commitField()
		if m.editField > 0 {
			m.editField--
		}
		m.seedInput()
		return m, nil

	case "down", "tab":
		m.commitField()
		if m.editField < fieldCount-1 {
			m.editField++
		}
		m.seedInput()
		return m, nil

	case "enter":
		m.commitField()
		return m.saveDraft(), nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Model) enterEditing() Model {
	t := m.tasks[m.selected]
	m.draft = editDraft{
		title:       t.Title,
		description: t.Description,
		priority:    string(t.Priority),
		status:      string(t.Status),
	}
	m.mode = modeEditing
	m.editField = fieldTitle
	m.errMsg = ""
	m.seedInput()
	return m
}

// seedInput loads the active field's current draft value into the input.
func (m *Model) seedInput() {
	values := [...]string{m.draft.title, m.draft.description, m.draft.priority, m.draft.status}
	m.editInput.SetValue(values[m.editField])
	m.editInput.CursorEnd()
	m.editInput.Focus()
}

// commitField copies the input buffer back into the draft.
func (m *Model) commitField() {
	v := m.editInput.Value()
	switch m.editField {
	case fieldTitle:
		m.draft.title = v
	case fieldDescription:
		m.draft.description = v
	case fieldPriority:
		m.draft.priority = strings.ToLower(strings.TrimSpace(v))
	case fieldStatus:
		m.draft.status = strings.ToLower(strings.TrimSpace(v))
	}
}

// saveDraft validates the whole draft and writes it as one patch. On any
// validation or store failure the editor stays open with the buffer intact.
func (m Model) saveDraft() Model {
	title := core.SanitizeText(m.draft.title, 0)
	if title == "" {
		m.errMsg = "title cannot be empty"
		return m
	}
	priority := models.Priority(m.draft.priority)
	if !models.ValidPriorities[priority] {
		m.errMsg = "invalid priority: " + m.draft.priority
		return m
	}
	status := models.TaskStatus(m.draft.status)
	if !models.ValidStatuses[status] {
		m.errMsg = "invalid status: " + m.draft.status
		return m
	}

	t := m.tasks[m.selected]
	patch := core.TaskPatch{
		Title:       &m.draft.title,
		Description: &m.draft.description,
		Priority:    &priority,
		Status:      &status,
		Trigger:     models.TriggerUser,
		Reason:      "edited in viewer",
	}
	if _, err := m.store.UpdateTask(t.ID, patch); err != nil {
		m.errMsg = err.Error()
		return m
	}

	m.mode = modeBrowsing
	m.errMsg = ""
	m.editInput.Blur()
	m.refreshKeepCursor(t.ID)
	return m
}

// toggleStatus advances the selected task along the quick-toggle ring:
// pending, in_progress, completed, and back. Blocked and cancelled tasks
// restart at in_progress.
func (m Model) toggleStatus() Model {
	if m.selected < 0 || m.selected >= len(m.tasks) {
		return m
	}
	t := m.tasks[m.selected]
	next := nextToggleStatus(t.Status)
	patch := core.TaskPatch{
		Status:  &next,
		Trigger: models.TriggerUser,
		Reason:  "status toggle",
	}
	if _, err := m.store.UpdateTask(t.ID, patch); err != nil {
		m.errMsg = err.Error()
		return m
	}
	m.errMsg = ""
	m.refreshKeepCursor(t.ID)
	return m
}

func nextToggleStatus(s models.TaskStatus) models.TaskStatus {
	switch s {
	case models.StatusPending:
		return models.StatusInProgress
	case models.StatusInProgress:
		return models.StatusCompleted
	case models.StatusCompleted:
		return models.StatusPending
	default:
		return models.StatusInProgress
	}
}

// reload re-reads the queue from disk, restoring the cursor to the same
// task when it still exists.
func (m Model) reload() Model {
	var keep string
	if m.selected >= 0 && m.selected < len(m.tasks) {
		keep = m.tasks[m.selected].ID
	}
	if err := m.store.Reload(); err != nil {
		m.errMsg = err.Error()
		return m
	}
	m.errMsg = ""
	m.refreshKeepCursor(keep)
	return m
}

func (m *Model) currentFilter() models.TaskStatus {
	return filterCycle[m.filterIdx]
}

// refresh re-queries the store with the active filter and search, then
// clamps the cursor.
func (m *Model) refresh() {
	filter := core.Filter{Search: m.search}
	if f := m.currentFilter(); f != "" {
		filter.Status = []models.TaskStatus{f}
	}
	m.tasks = m.store.ListTasks(filter)
	if m.selected >= len(m.tasks) {
		m.selected = len(m.tasks) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// refreshKeepCursor refreshes and then moves the cursor back to the task
// with the given ID, if present.
func (m *Model) refreshKeepCursor(id string) {
	m.refresh()
	for i, t := range m.tasks {
		if t.ID == id {
			m.selected = i
			return
		}
	}
}
