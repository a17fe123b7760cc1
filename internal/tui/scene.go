package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/critdev/crit/pkg/models"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("240"))

	detailHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62"))

	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusBlocked    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusCancelled  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusPending    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// scene is the pure input to the renderer. The model assembles one per
// frame; buildScene has no access to the store or any other mutable state.
type scene struct {
	queueName string
	total     int
	completed int

	filter    models.TaskStatus
	search    string
	searching bool
	// searchView is the rendered search input, shown while searching.
	searchView string

	mode     mode
	tasks    []*models.Task
	selected int

	editField int
	// editView is the rendered edit input for the active field.
	editView string
	draft    editDraft

	errMsg string

	width  int
	height int
}

// editFieldNames orders the editable fields of a task.
var editFieldNames = [...]string{"Title", "Description", "Priority", "Status"}

// buildScene renders the scene into display lines, top to bottom. It is a
// pure function of its input so tests can assert on frames directly.
func buildScene(s scene) []string {
	lines := []string{buildHeader(s), ""}

	switch s.mode {
	case modeEditing:
		lines = append(lines, buildEditor(s)...)
	case modeDetails:
		lines = append(lines, buildSplit(s)...)
	default:
		lines = append(lines, buildList(s, listHeight(s))...)
	}

	lines = append(lines, "", buildFooter(s))
	if s.errMsg != "" {
		lines = append(lines, errStyle.Render("error: "+s.errMsg))
	}
	return lines
}

func buildHeader(s scene) string {
	title := titleStyle.Render(fmt.Sprintf(" %s ", s.queueName))
	counts := fmt.Sprintf("%d/%d done", s.completed, s.total)

	var extras []string
	if s.filter != "" {
		extras = append(extras, "filter: "+string(s.filter))
	}
	if s.searching {
		extras = append(extras, "search: "+s.searchView)
	} else if s.search != "" {
		extras = append(extras, "search: "+s.search)
	}
	if len(extras) > 0 {
		return fmt.Sprintf("%s  %s  [%s]", title, counts, strings.Join(extras, " | "))
	}
	return fmt.Sprintf("%s  %s", title, counts)
}

// listHeight leaves room for header, footer, and the blank separators.
func listHeight(s scene) int {
	h := s.height - 5
	if h < 1 {
		h = 10
	}
	return h
}

// buildList renders a window of the task list sized to the viewport,
// keeping the selected row visible.
func buildList(s scene, height int) []string {
	if len(s.tasks) == 0 {
		return []string{"  No tasks. Press q to quit."}
	}

	start := 0
	if s.selected >= height {
		start = s.selected - height + 1
	}
	end := start + height
	if end > len(s.tasks) {
		end = len(s.tasks)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, taskRow(s.tasks[i], i == s.selected, s.width))
	}
	return lines
}

func taskRow(t *models.Task, selected bool, width int) string {
	icon := statusIcon(t.Status)
	badge := priorityBadge(t.Priority)
	title := t.Title

	maxTitle := width - 10
	if maxTitle > 0 && len([]rune(title)) > maxTitle {
		title = string([]rune(title)[:maxTitle-1]) + "…"
	}

	row := fmt.Sprintf(" %s %s %s", badge, icon, title)
	if selected {
		return selectedStyle.Render("▸" + row)
	}
	return statusStyle(t.Status).Render(" " + row)
}

// buildSplit shows the list beside the selected task's details.
func buildSplit(s scene) []string {
	height := listHeight(s)
	left := strings.Join(buildList(s, height), "\n")

	var right string
	if s.selected >= 0 && s.selected < len(s.tasks) {
		right = buildDetails(s.tasks[s.selected])
	}

	leftWidth := s.width / 2
	if leftWidth < 20 {
		leftWidth = 20
	}
	joined := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(leftWidth).Render(left),
		right,
	)
	return strings.Split(joined, "\n")
}

func buildDetails(t *models.Task) string {
	var b strings.Builder
	b.WriteString(detailHeaderStyle.Render(t.Title))
	b.WriteString("\n\n")

	write := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf("%s %s\n", fieldLabelStyle.Render(label+":"), value))
	}

	write("Status", fmt.Sprintf("%s %s", statusIcon(t.Status), t.Status))
	write("Priority", fmt.Sprintf("%s %s", priorityBadge(t.Priority), t.Priority))
	write("Assignee", t.Assignee)
	write("Tags", strings.Join(t.Tags, ", "))
	write("Depends on", strings.Join(t.Dependencies, ", "))
	if t.DueDate != nil {
		write("Due", t.DueDate.Format("2006-01-02"))
	}
	write("Created", t.CreatedAt.Format("2006-01-02 15:04"))
	if t.CompletedAt != nil {
		write("Completed", t.CompletedAt.Format("2006-01-02 15:04"))
	}
	if t.Description != "" {
		b.WriteString("\n" + t.Description + "\n")
	}

	if len(t.Comments) > 0 {
		b.WriteString("\n" + detailHeaderStyle.Render("Comments") + "\n")
		for _, c := range t.Comments {
			b.WriteString(fmt.Sprintf("  [%s] %s: %s\n", c.CreatedAt.Format("01-02 15:04"), c.Author, c.Content))
		}
	}
	return b.String()
}

// buildEditor renders the field form with the active field's live input.
func buildEditor(s scene) []string {
	values := [...]string{s.draft.title, s.draft.description, s.draft.priority, s.draft.status}

	lines := []string{detailHeaderStyle.Render("Edit task"), ""}
	for i, name := range editFieldNames {
		label := fieldLabelStyle.Render(fmt.Sprintf("%-12s", name))
		if i == s.editField {
			lines = append(lines, fmt.Sprintf("▸ %s %s", label, s.editView))
		} else {
			lines = append(lines, fmt.Sprintf("  %s %s", label, values[i]))
		}
	}
	return lines
}

func buildFooter(s scene) string {
	switch s.mode {
	case modeEditing:
		return helpStyle.Render("↑/↓: field | enter: save | esc: cancel")
	case modeDetails:
		return helpStyle.Render("↑/↓: move | tab: list | space: status | e: edit | q: quit")
	default:
		if s.searching {
			return helpStyle.Render("enter: apply search | esc: cancel")
		}
		return helpStyle.Render("↑/↓: move | enter: edit | tab: details | space: status | f: filter | /: search | r: reload | q: quit")
	}
}

func statusIcon(status models.TaskStatus) string {
	switch status {
	case models.StatusCompleted:
		return "✓"
	case models.StatusInProgress:
		return "→"
	case models.StatusBlocked:
		return "⏸"
	case models.StatusCancelled:
		return "✗"
	default:
		return "○"
	}
}

func priorityBadge(p models.Priority) string {
	switch p {
	case models.PriorityCritical:
		return "🔥"
	case models.PriorityHigh:
		return "⚡"
	case models.PriorityMedium:
		return "●"
	default:
		return "○"
	}
}

func statusStyle(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusCompleted:
		return statusCompleted
	case models.StatusInProgress:
		return statusInProgress
	case models.StatusBlocked:
		return statusBlocked
	case models.StatusCancelled:
		return statusCancelled
	default:
		return statusPending
	}
}
