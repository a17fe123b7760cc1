package core

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/critdev/crit/pkg/models"
)

var allPriorities = []models.Priority{
	models.PriorityLow,
	models.PriorityMedium,
	models.PriorityHigh,
	models.PriorityCritical,
}

func priorityGenerator() *rapid.Generator[models.Priority] {
	return rapid.Custom(func(t *rapid.T) models.Priority {
		idx := rapid.IntRange(0, len(allPriorities)-1).Draw(t, "priorityIdx")
		return allPriorities[idx]
	})
}

func titleGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z]{1,20}( [a-z]{1,20}){0,4}`)
}

func propStore(t *rapid.T) *taskStore {
	s, err := NewStore(newMemPersister(), time.Hour, nil, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s.(*taskStore)
}

// Property: a task is blocked if and only if it has at least one
// dependency not resolved to a completed task, for any dependency shape.
func TestProperty_BlockedIffUnresolvedDependencies(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := propStore(rt)
		defer func() { _ = s.Close() }()

		n := rapid.IntRange(1, 8).Draw(rt, "n")
		ids := make([]string, 0, n)
		for i := 0; i < n; i++ {
			var deps []string
			if len(ids) > 0 && rapid.Bool().Draw(rt, "hasDep") {
				deps = []string{ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "depIdx")]}
			}
			task, err := s.AddTask(TaskDraft{
				Title:        titleGenerator().Draw(rt, "title"),
				Dependencies: deps,
			})
			if err != nil {
				rt.Fatalf("AddTask: %v", err)
			}
			ids = append(ids, task.ID)
		}

		// Complete a random subset.
		done := models.StatusCompleted
		for _, id := range ids {
			task := s.queue.Find(id)
			if task.Status == models.StatusBlocked {
				continue
			}
			if rapid.Bool().Draw(rt, "complete") {
				if _, err := s.UpdateTask(id, TaskPatch{Status: &done}); err != nil {
					rt.Fatalf("UpdateTask: %v", err)
				}
			}
		}

		// Statuses never regress in this scenario, so the invariant holds
		// exactly: blocked means unresolved deps, pending means none.
		for _, task := range s.ListTasks(Filter{}) {
			unresolved := len(s.unresolvedDeps(task)) > 0
			switch task.Status {
			case models.StatusBlocked:
				if !unresolved {
					rt.Fatalf("task %s blocked with all dependencies resolved", task.ID)
				}
			case models.StatusPending:
				if unresolved {
					rt.Fatalf("task %s pending with unresolved dependencies", task.ID)
				}
			}
		}
	})
}

// Property: history is append-only. No sequence of updates ever shortens a
// task's history, and every status change appends exactly one entry.
func TestProperty_HistoryAppendOnly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := propStore(rt)
		defer func() { _ = s.Close() }()

		task, err := s.AddTask(TaskDraft{Title: titleGenerator().Draw(rt, "title")})
		if err != nil {
			rt.Fatalf("AddTask: %v", err)
		}

		statuses := []models.TaskStatus{
			models.StatusPending, models.StatusInProgress, models.StatusCompleted,
			models.StatusBlocked, models.StatusCancelled,
		}

		prevLen := len(task.History)
		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			next := statuses[rapid.IntRange(0, len(statuses)-1).Draw(rt, "statusIdx")]
			current := s.queue.Find(task.ID).Status

			updated, err := s.UpdateTask(task.ID, TaskPatch{Status: &next})
			if err != nil {
				rt.Fatalf("UpdateTask: %v", err)
			}

			if len(updated.History) < prevLen {
				rt.Fatalf("history shrank from %d to %d", prevLen, len(updated.History))
			}
			wantLen := prevLen
			if next != current {
				wantLen++
			}
			if len(updated.History) != wantLen {
				rt.Fatalf("history length = %d, want %d", len(updated.History), wantLen)
			}
			prevLen = len(updated.History)
		}
	})
}

// Property: ListTasks is deterministically ordered. Priority never
// increases down the list, and equal-priority runs are ordered by creation
// time descending then ID.
func TestProperty_ListOrderingInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := propStore(rt)
		defer func() { _ = s.Close() }()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		offset := 0
		s.now = func() time.Time { return base.Add(time.Duration(offset) * time.Second) }

		n := rapid.IntRange(0, 15).Draw(rt, "n")
		for i := 0; i < n; i++ {
			offset = rapid.IntRange(0, 100).Draw(rt, "offset")
			_, err := s.AddTask(TaskDraft{
				Title:    titleGenerator().Draw(rt, "title"),
				Priority: priorityGenerator().Draw(rt, "priority"),
			})
			if err != nil {
				rt.Fatalf("AddTask: %v", err)
			}
		}

		list := s.ListTasks(Filter{})
		for i := 1; i < len(list); i++ {
			prev, cur := list[i-1], list[i]
			pr, cr := models.PriorityRank(prev.Priority), models.PriorityRank(cur.Priority)
			if pr < cr {
				rt.Fatalf("priority rank increased at %d: %s after %s", i, cur.Priority, prev.Priority)
			}
			if pr == cr {
				if prev.CreatedAt.Before(cur.CreatedAt) {
					rt.Fatalf("creation order violated at %d", i)
				}
				if prev.CreatedAt.Equal(cur.CreatedAt) && prev.ID >= cur.ID {
					rt.Fatalf("ID tie-break violated at %d", i)
				}
			}
		}
	})
}

// Property: any burst of mutations coalesces into at most one persisted
// write when flushed once.
func TestProperty_DebouncedWritesCoalesce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := newMemPersister()
		store, err := NewStore(p, time.Hour, nil, nil)
		if err != nil {
			rt.Fatalf("NewStore: %v", err)
		}
		defer func() { _ = store.Close() }()

		n := rapid.IntRange(1, 20).Draw(rt, "n")
		for i := 0; i < n; i++ {
			if _, err := store.AddTask(TaskDraft{Title: titleGenerator().Draw(rt, "title")}); err != nil {
				rt.Fatalf("AddTask: %v", err)
			}
		}

		if p.saves != 0 {
			rt.Fatalf("saves = %d before flush, want 0", p.saves)
		}
		if err := store.Flush(); err != nil {
			rt.Fatalf("Flush: %v", err)
		}
		if p.saves != 1 {
			rt.Fatalf("saves = %d after flush, want 1", p.saves)
		}
		if len(p.queue.Tasks) != n {
			rt.Fatalf("persisted %d tasks, want %d", len(p.queue.Tasks), n)
		}
	})
}

// Property: sanitized text never contains control characters and never
// exceeds the requested rune cap.
func TestProperty_SanitizeTextSafe(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		input := rapid.String().Draw(rt, "input")
		max := rapid.IntRange(1, 300).Draw(rt, "max")

		out := SanitizeText(input, max)
		for _, r := range out {
			if r < 0x20 || r == 0x7f {
				rt.Fatalf("control character %q survived sanitization", r)
			}
		}
		if len([]rune(out)) > max {
			rt.Fatalf("length %d exceeds cap %d", len([]rune(out)), max)
		}
	})
}
