package hooks

import (
	"testing"
	"time"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/pkg/models"
)

// memPersister implements core.Persister in memory for router tests.
type memPersister struct {
	queue *models.Queue
}

func (p *memPersister) Load() (*models.Queue, error) { return p.queue, nil }
func (p *memPersister) Save(q *models.Queue) error   { p.queue = q; return nil }

func newTestRouter(t *testing.T, cfg models.HookConfig) (*Router, core.Store) {
	t.Helper()
	store, err := core.NewStore(&memPersister{queue: models.NewQueue("test")}, time.Hour, nil, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewRouter(store, core.NewMarkerGenerator(), cfg, nil), store
}

func todoWriteEvent(sessionID string, todos ...map[string]any) models.HookEvent {
	items := make([]any, len(todos))
	for i, todo := range todos {
		items[i] = todo
	}
	return models.HookEvent{
		ToolName:  "TodoWrite",
		SessionID: sessionID,
		Arguments: map[string]any{"todos": items},
	}
}

func TestHandleTodoWriteCreatesAndUpdates(t *testing.T) {
	router, store := newTestRouter(t, models.DefaultHookConfig())

	existing, err := store.AddTask(core.TaskDraft{Title: "already tracked"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	res := router.Handle(todoWriteEvent("sess-1",
		map[string]any{"content": "write migration", "status": "pending", "priority": "high"},
		map[string]any{"content": "wire the cache", "status": "in_progress"},
		map[string]any{"id": "ext-9", "content": "review docs", "status": "completed"},
		map[string]any{"id": existing.ID, "content": "already tracked, renamed", "status": "in_progress"},
	))

	if !res.Processed || res.Action != "todo_sync" {
		t.Fatalf("result = %+v", res)
	}
	if res.SyncStatus != SyncSuccess {
		t.Errorf("SyncStatus = %s, want success", res.SyncStatus)
	}
	if res.TasksUpdated != 4 {
		t.Errorf("TasksUpdated = %d, want 4", res.TasksUpdated)
	}

	// 1 pre-existing + 3 created.
	all := store.ListTasks(core.Filter{})
	if len(all) != 4 {
		t.Fatalf("queue holds %d tasks, want 4", len(all))
	}

	// Existing task updated in place.
	got, _ := store.GetTask(existing.ID)
	if got.Title != "already tracked, renamed" || got.Status != models.StatusInProgress {
		t.Errorf("existing task = %q/%s", got.Title, got.Status)
	}

	// New tasks carry the assistant source and the session payload; a
	// non-pending incoming status is applied after creation.
	for _, task := range all {
		if task.ID == existing.ID {
			continue
		}
		if task.Source != models.SourceAssistant {
			t.Errorf("task %q source = %s, want external-assistant", task.Title, task.Source)
		}
		if task.SourcePayload["session_id"] != "sess-1" {
			t.Errorf("task %q payload = %v", task.Title, task.SourcePayload)
		}
		switch task.Title {
		case "wire the cache":
			if task.Status != models.StatusInProgress {
				t.Errorf("task %q status = %s", task.Title, task.Status)
			}
		case "review docs":
			if task.Status != models.StatusCompleted {
				t.Errorf("task %q status = %s", task.Title, task.Status)
			}
			if task.SourcePayload["original_id"] != "ext-9" {
				t.Errorf("task %q payload = %v", task.Title, task.SourcePayload)
			}
		}
	}
}

func TestHandleTodoWriteIdempotentReplay(t *testing.T) {
	router, store := newTestRouter(t, models.DefaultHookConfig())

	first, err := store.AddTask(core.TaskDraft{Title: "tracked"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	ev := todoWriteEvent("s", map[string]any{"id": first.ID, "content": "tracked", "status": "pending"})
	router.Handle(ev)
	router.Handle(ev)

	if got := store.ListTasks(core.Filter{}); len(got) != 1 {
		t.Errorf("replay created duplicates: %d tasks", len(got))
	}
}

func TestHandleTodoWriteNoItems(t *testing.T) {
	router, _ := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(models.HookEvent{ToolName: "TodoWrite"})
	if !res.Processed {
		t.Fatal("event not processed")
	}
	if res.SyncStatus != SyncPartial {
		t.Errorf("SyncStatus = %s, want partial", res.SyncStatus)
	}
	if res.TasksUpdated != 0 {
		t.Errorf("TasksUpdated = %d, want 0", res.TasksUpdated)
	}
}

func TestHandleTodoWriteFailureReportsCount(t *testing.T) {
	router, _ := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(todoWriteEvent("s",
		map[string]any{"content": "ok one"},
		map[string]any{"content": "\x1b\x07"}, // sanitizes to empty, AddTask rejects
		map[string]any{"content": "never reached"},
	))

	if res.SyncStatus != SyncFailed {
		t.Fatalf("SyncStatus = %s, want failed", res.SyncStatus)
	}
	if res.TasksUpdated != 1 {
		t.Errorf("TasksUpdated = %d, want 1", res.TasksUpdated)
	}
}

func TestHandleFileChangeGeneratesTasks(t *testing.T) {
	router, store := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(models.HookEvent{
		ToolName: "Edit",
		FilePath: "internal/parser/lex.go",
		Content:  "// TODO: handle unicode escapes\nfunc lex() {}",
	})

	if !res.Processed || res.Action != "file_change" {
		t.Fatalf("result = %+v", res)
	}
	if res.TasksUpdated != 1 {
		t.Fatalf("TasksUpdated = %d, want 1", res.TasksUpdated)
	}

	tasks := store.ListTasks(core.Filter{})
	if len(tasks) != 1 {
		t.Fatalf("queue holds %d tasks", len(tasks))
	}
	if tasks[0].Source != models.SourceHook {
		t.Errorf("source = %s, want hook-triggered", tasks[0].Source)
	}
	if tasks[0].Title != "handle unicode escapes" {
		t.Errorf("title = %q", tasks[0].Title)
	}
}

func TestHandleFileChangeRequirementDoc(t *testing.T) {
	router, _ := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(models.HookEvent{
		ToolName: "Write",
		FilePath: "docs/requirements.md",
		Content:  "TODO define the export format",
	})

	if res.Action != "requirement_doc" {
		t.Errorf("Action = %s, want requirement_doc", res.Action)
	}
}

func TestHandleFileChangeCleanContent(t *testing.T) {
	router, store := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(models.HookEvent{
		ToolName: "Write",
		FilePath: "main.go",
		Content:  "package main\n\nfunc main() {}\n",
	})

	if !res.Processed {
		t.Fatal("file event not processed")
	}
	if res.TasksUpdated != 0 {
		t.Errorf("TasksUpdated = %d, want 0", res.TasksUpdated)
	}
	if got := store.ListTasks(core.Filter{}); len(got) != 0 {
		t.Errorf("clean content created %d tasks", len(got))
	}
}

func TestHandleWebFetch(t *testing.T) {
	router, store := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(models.HookEvent{
		ToolName: "WebFetch",
		Content:  "Roadmap: implement the new export pipeline next milestone.",
	})

	if !res.Processed || res.Action != "web_fetch" {
		t.Fatalf("result = %+v", res)
	}
	if res.TasksUpdated == 0 {
		t.Error("no tasks generated from research content")
	}
	for _, task := range store.ListTasks(core.Filter{}) {
		if task.Source != models.SourceHook {
			t.Errorf("task source = %s", task.Source)
		}
	}
}

func TestHandleUnknownToolIsLoggedOnly(t *testing.T) {
	router, store := newTestRouter(t, models.DefaultHookConfig())

	res := router.Handle(models.HookEvent{ToolName: "Bash"})
	if res.Processed {
		t.Error("unknown tool marked processed")
	}
	if got := store.ListTasks(core.Filter{}); len(got) != 0 {
		t.Errorf("unknown tool created %d tasks", len(got))
	}
	if router.Ring().Len() != 1 {
		t.Errorf("ring length = %d, want 1", router.Ring().Len())
	}
}

func TestHandleRespectsConfigGates(t *testing.T) {
	cfg := models.DefaultHookConfig()
	cfg.TodoSync = false
	router, store := newTestRouter(t, cfg)

	res := router.Handle(todoWriteEvent("s", map[string]any{"content": "skipped"}))
	if res.Processed {
		t.Error("todo event processed with todo_sync disabled")
	}
	if got := store.ListTasks(core.Filter{}); len(got) != 0 {
		t.Errorf("disabled sync created %d tasks", len(got))
	}

	cfg = models.DefaultHookConfig()
	cfg.Enabled = false
	router, _ = newTestRouter(t, cfg)
	if res := router.Handle(todoWriteEvent("s", map[string]any{"content": "skipped"})); res.Processed {
		t.Error("event processed with hooks disabled")
	}
	if router.Ring().Len() != 1 {
		t.Error("disabled hooks skipped ring logging")
	}
}
