package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/critdev/crit/pkg/models"
)

func sceneTask(id, title string, status models.TaskStatus, priority models.Priority) *models.Task {
	return &models.Task{
		ID:        id,
		Title:     title,
		Status:    status,
		Priority:  priority,
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func frameContains(lines []string, want string) bool {
	return strings.Contains(strings.Join(lines, "\n"), want)
}

func TestBuildSceneEmptyList(t *testing.T) {
	lines := buildScene(scene{queueName: "main", width: 80, height: 24})

	if !frameContains(lines, "main") {
		t.Error("header missing queue name")
	}
	if !frameContains(lines, "0/0 done") {
		t.Error("header missing counts")
	}
	if !frameContains(lines, "No tasks. Press q to quit.") {
		t.Error("empty list placeholder missing")
	}
}

func TestBuildHeaderExtras(t *testing.T) {
	s := scene{queueName: "main", total: 4, completed: 1, width: 80, height: 24}
	if got := buildHeader(s); strings.Contains(got, "[") {
		t.Errorf("bare header grew extras: %q", got)
	}

	s.filter = models.StatusPending
	s.search = "cache"
	got := buildHeader(s)
	if !strings.Contains(got, "filter: pending") {
		t.Errorf("header = %q, want filter shown", got)
	}
	if !strings.Contains(got, "search: cache") {
		t.Errorf("header = %q, want search shown", got)
	}

	// While typing, the live input view replaces the applied search.
	s.searching = true
	s.searchView = "cach▌"
	if got := buildHeader(s); !strings.Contains(got, "search: cach▌") {
		t.Errorf("header = %q, want live search input", got)
	}
}

func TestBuildListWindowKeepsSelectionVisible(t *testing.T) {
	tasks := make([]*models.Task, 10)
	for i := range tasks {
		tasks[i] = sceneTask(fmt.Sprintf("t-%d", i), fmt.Sprintf("task number %d", i), models.StatusPending, models.PriorityMedium)
	}
	s := scene{tasks: tasks, selected: 7, width: 80}

	lines := buildList(s, 3)
	if len(lines) != 3 {
		t.Fatalf("window holds %d rows, want 3", len(lines))
	}
	if !strings.Contains(lines[2], "task number 7") {
		t.Errorf("selected row scrolled out: %q", lines[2])
	}
	if !strings.Contains(lines[2], "▸") {
		t.Errorf("selected row missing marker: %q", lines[2])
	}
	if !strings.Contains(lines[0], "task number 5") {
		t.Errorf("window start = %q, want task 5", lines[0])
	}
}

func TestTaskRowTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 200)
	row := taskRow(sceneTask("t-1", long, models.StatusPending, models.PriorityLow), false, 40)
	if !strings.Contains(row, "…") {
		t.Errorf("long title not truncated: %q", row)
	}
	if strings.Contains(row, strings.Repeat("x", 40)) {
		t.Errorf("row still holds full title: %q", row)
	}
}

func TestStatusIcons(t *testing.T) {
	cases := map[models.TaskStatus]string{
		models.StatusCompleted:  "✓",
		models.StatusInProgress: "→",
		models.StatusBlocked:    "⏸",
		models.StatusCancelled:  "✗",
		models.StatusPending:    "○",
	}
	for status, want := range cases {
		if got := statusIcon(status); got != want {
			t.Errorf("statusIcon(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestPriorityBadges(t *testing.T) {
	cases := map[models.Priority]string{
		models.PriorityCritical: "🔥",
		models.PriorityHigh:     "⚡",
		models.PriorityMedium:   "●",
		models.PriorityLow:      "○",
	}
	for priority, want := range cases {
		if got := priorityBadge(priority); got != want {
			t.Errorf("priorityBadge(%s) = %q, want %q", priority, got, want)
		}
	}
}

func TestBuildDetailsShowsFieldsAndComments(t *testing.T) {
	task := sceneTask("t-1", "wire the cache", models.StatusInProgress, models.PriorityHigh)
	task.Assignee = "sam"
	task.Tags = []string{"backend", "perf"}
	task.Dependencies = []string{"t-0"}
	task.Description = "use the shared pool"
	task.Comments = []models.Comment{{
		Author:    "system",
		Content:   "unblocked",
		CreatedAt: time.Date(2026, 2, 2, 10, 30, 0, 0, time.UTC),
	}}

	details := buildDetails(task)
	for _, want := range []string{
		"wire the cache",
		"in_progress",
		"sam",
		"backend, perf",
		"t-0",
		"use the shared pool",
		"[02-02 10:30] system: unblocked",
	} {
		if !strings.Contains(details, want) {
			t.Errorf("details missing %q:\n%s", want, details)
		}
	}
}

func TestBuildEditorMarksActiveField(t *testing.T) {
	s := scene{
		mode:      modeEditing,
		editField: fieldPriority,
		editView:  "high▌",
		draft:     editDraft{title: "wire the cache", description: "", priority: "medium", status: "pending"},
		width:     80,
		height:    24,
	}

	lines := buildEditor(s)
	var active string
	for _, line := range lines {
		if strings.Contains(line, "▸") {
			active = line
		}
	}
	if !strings.Contains(active, "Priority") || !strings.Contains(active, "high▌") {
		t.Errorf("active field line = %q", active)
	}
	if !frameContains(lines, "wire the cache") {
		t.Error("inactive fields should show draft values")
	}
}

func TestBuildFooterVariesByMode(t *testing.T) {
	browse := buildFooter(scene{mode: modeBrowsing})
	if !strings.Contains(browse, "f: filter") {
		t.Errorf("browsing footer = %q", browse)
	}
	search := buildFooter(scene{mode: modeBrowsing, searching: true})
	if !strings.Contains(search, "apply search") {
		t.Errorf("searching footer = %q", search)
	}
	edit := buildFooter(scene{mode: modeEditing})
	if !strings.Contains(edit, "enter: save") {
		t.Errorf("editing footer = %q", edit)
	}
}

func TestBuildSceneAppendsErrorLine(t *testing.T) {
	lines := buildScene(scene{queueName: "main", errMsg: "invalid status: paused", width: 80, height: 24})
	if !strings.Contains(lines[len(lines)-1], "invalid status: paused") {
		t.Errorf("last line = %q, want error", lines[len(lines)-1])
	}
}

func TestListHeight(t *testing.T) {
	if got := listHeight(scene{height: 20}); got != 15 {
		t.Errorf("listHeight(20) = %d, want 15", got)
	}
	// Degenerate windows fall back to a usable default.
	if got := listHeight(scene{height: 3}); got != 10 {
		t.Errorf("listHeight(3) = %d, want 10", got)
	}
}
