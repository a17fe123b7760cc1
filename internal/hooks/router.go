package hooks

import (
	"fmt"
	"time"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/pkg/models"
)

// Sync status values reported for todo-write events.
const (
	SyncSuccess = "success"
	SyncPartial = "partial"
	SyncFailed  = "failed"
)

// Result summarizes how one hook event was handled.
type Result struct {
	Processed    bool
	Action       string
	TasksUpdated int
	SyncStatus   string
	// Feedback is a short human-readable summary for the assistant's
	// visual channel.
	Feedback string
}

// Router classifies incoming tool-call events and dispatches them to
// bounded handlers. Handlers never block the emitting process on anything
// slower than local I/O and never propagate errors as crashes.
type Router struct {
	store     core.Store
	generator core.TaskGenerator
	config    models.HookConfig
	ring      *RingLog
	eventLog  core.EventLogger
}

// NewRouter creates a Router. generator and eventLog may be nil; a nil
// generator disables AI task generation while todo sync keeps working.
func NewRouter(store core.Store, generator core.TaskGenerator, config models.HookConfig, eventLog core.EventLogger) *Router {
	return &Router{
		store:     store,
		generator: generator,
		config:    config,
		ring:      NewRingLog(config.RingCapacity),
		eventLog:  eventLog,
	}
}

// Ring exposes the bounded in-memory event log.
func (r *Router) Ring() *RingLog {
	return r.ring
}

// Handle classifies ev by tool name and dispatches it. Every event is
// logged to the ring and the event log whether or not it caused a mutation.
func (r *Router) Handle(ev models.HookEvent) Result {
	var res Result
	if r.config.Enabled {
		switch ev.ToolName {
		case "TodoWrite", "todo_write":
			if r.config.TodoSync {
				res = r.handleTodoWrite(ev)
			}
		case "Edit", "Write", "MultiEdit", "edit", "write", "multi_edit":
			if r.config.CodeMarkers || r.config.RequirementDocs {
				res = r.handleFileChange(ev)
			}
		case "WebFetch", "web_fetch":
			if r.config.WebFetch {
				res = r.handleWebFetch(ev)
			}
		}
	}

	r.ring.Append(ev, res.Processed, res.Action)
	r.logEvent("hook.processed", map[string]any{
		"tool":          ev.ToolName,
		"session_id":    ev.SessionID,
		"processed":     res.Processed,
		"action":        res.Action,
		"tasks_updated": res.TasksUpdated,
	})
	return res
}

// handleTodoWrite upserts every extractable todo entry: known IDs update,
// unknown ones become new tasks tagged external-assistant.
func (r *Router) handleTodoWrite(ev models.HookEvent) Result {
	res := Result{Processed: true, Action: "todo_sync"}

	entries := ExtractTodoEntries(ev)
	if len(entries) == 0 {
		res.SyncStatus = SyncPartial
		res.Feedback = "todo sync: no extractable items"
		return res
	}

	synced := 0
	for _, entry := range entries {
		if err := r.upsertTodo(entry, ev.SessionID); err != nil {
			res.SyncStatus = SyncFailed
			res.TasksUpdated = synced
			res.Feedback = fmt.Sprintf("todo sync failed after %d item(s): %s", synced, err)
			return res
		}
		synced++
	}

	res.TasksUpdated = synced
	res.SyncStatus = SyncSuccess
	res.Feedback = fmt.Sprintf("todo sync: %d item(s) synced", synced)
	return res
}

func (r *Router) upsertTodo(entry models.TodoEntry, sessionID string) error {
	status := MapTodoStatus(entry.Status)
	priority := MapTodoPriority(entry.Priority)

	if entry.ID != "" {
		if _, ok := r.store.GetTask(entry.ID); ok {
			title := entry.Content
			_, err := r.store.UpdateTask(entry.ID, core.TaskPatch{
				Title:    &title,
				Status:   &status,
				Priority: &priority,
				Trigger:  models.TriggerHook,
				Reason:   "todo sync",
			})
			return err
		}
	}

	payload := map[string]any{"session_id": sessionID}
	if entry.ID != "" {
		payload["original_id"] = entry.ID
	}
	task, err := r.store.AddTask(core.TaskDraft{
		Title:         entry.Content,
		Priority:      priority,
		Source:        models.SourceAssistant,
		SourcePayload: payload,
	})
	if err != nil {
		return err
	}
	// A non-pending incoming status lands as a follow-up patch so the
	// creation path records the usual pending-first history.
	if status != models.StatusPending && task.Status == models.StatusPending {
		_, err = r.store.UpdateTask(task.ID, core.TaskPatch{
			Status:  &status,
			Trigger: models.TriggerHook,
			Reason:  "todo sync",
		})
	}
	return err
}

// handleFileChange forwards marker or requirement-doc content to the
// generator and inserts whatever drafts come back.
func (r *Router) handleFileChange(ev models.HookEvent) Result {
	res := Result{Processed: true, Action: "file_change"}

	body := ev.Body()
	if body == "" {
		return res
	}

	decision := core.ClassifyContent(ev.File(), body)
	if decision.RequirementDoc && !r.config.RequirementDocs {
		decision.RequirementDoc = false
		decision.ExpandLevel = 2
	}
	if !decision.ShouldTrigger || r.generator == nil {
		return res
	}
	if !decision.RequirementDoc && !r.config.CodeMarkers {
		return res
	}

	result, err := r.generator.Generate(body, core.GenerateOptions{
		Context:     ev.File(),
		ProjectType: core.InferProjectType(ev.File()),
		ExpandLevel: decision.ExpandLevel,
	})
	if err != nil || !result.Success {
		r.logEvent("hook.generate_failed", map[string]any{
			"file": ev.File(), "patterns": decision.MatchedPatterns,
		})
		return res
	}

	added := 0
	for _, draft := range result.Tasks {
		draft.Source = models.SourceHook
		if _, err := r.store.AddTask(draft); err == nil {
			added++
		}
	}
	res.TasksUpdated = added
	if decision.RequirementDoc {
		res.Action = "requirement_doc"
	}
	res.Feedback = fmt.Sprintf("generated %d task(s) from %s", added, ev.File())
	return res
}

// handleWebFetch forwards task-relevant fetched content to the generator.
func (r *Router) handleWebFetch(ev models.HookEvent) Result {
	res := Result{Processed: true, Action: "web_fetch"}

	body := ev.Body()
	decision := core.ClassifyFetched(body)
	if !decision.ShouldTrigger || r.generator == nil {
		return res
	}

	result, err := r.generator.Generate(body, core.GenerateOptions{
		Context:     "web_fetch",
		ProjectType: "research",
		ExpandLevel: decision.ExpandLevel,
	})
	if err != nil || !result.Success {
		return res
	}

	added := 0
	for _, draft := range result.Tasks {
		draft.Source = models.SourceHook
		if _, err := r.store.AddTask(draft); err == nil {
			added++
		}
	}
	res.TasksUpdated = added
	res.Feedback = fmt.Sprintf("generated %d task(s) from fetched content", added)
	return res
}

func (r *Router) logEvent(eventType string, data map[string]any) {
	if r.eventLog == nil {
		return
	}
	data["time"] = time.Now().UTC().Format(time.RFC3339)
	_ = r.eventLog.LogEvent(eventType, data)
}
