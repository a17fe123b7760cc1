// Package hooks ingests tool-call events emitted by the coding assistant
// and routes them into task store mutations.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/critdev/crit/pkg/models"
)

// ParseStdin reads JSON from the given reader into a new instance of T.
// Empty input yields a zero-value struct rather than an error.
func ParseStdin[T any](r io.Reader) (*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		var zero T
		return &zero, nil
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing stdin JSON: %w", err)
	}
	return &result, nil
}

// ExtractTodoEntries pulls `{id?, content, status, priority}` entries out of
// a todo-write event's arguments. Entries without content are skipped.
func ExtractTodoEntries(ev models.HookEvent) []models.TodoEntry {
	if ev.Arguments == nil {
		return nil
	}
	raw, ok := ev.Arguments["todos"]
	if !ok {
		raw = ev.Arguments["items"]
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var entries []models.TodoEntry
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := models.TodoEntry{}
		if s, ok := m["id"].(string); ok {
			entry.ID = s
		}
		if s, ok := m["content"].(string); ok {
			entry.Content = s
		}
		if s, ok := m["status"].(string); ok {
			entry.Status = s
		}
		if s, ok := m["priority"].(string); ok {
			entry.Priority = s
		}
		if entry.Content == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// MapTodoStatus converts an assistant todo status to a task status.
// Unknown values map to pending.
func MapTodoStatus(s string) models.TaskStatus {
	switch s {
	case "in_progress", "in-progress", "active":
		return models.StatusInProgress
	case "completed", "done":
		return models.StatusCompleted
	case "blocked":
		return models.StatusBlocked
	case "cancelled", "canceled":
		return models.StatusCancelled
	default:
		return models.StatusPending
	}
}

// MapTodoPriority converts an assistant todo priority to a task priority.
// Unknown values map to medium.
func MapTodoPriority(p string) models.Priority {
	switch p {
	case "low":
		return models.PriorityLow
	case "high":
		return models.PriorityHigh
	case "critical", "urgent":
		return models.PriorityCritical
	default:
		return models.PriorityMedium
	}
}
