// Package syncbridge reconciles the task store with the external todo
// files written and read by the coding assistant.
package syncbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/internal/storage"
	"github.com/critdev/crit/pkg/models"
)

// CycleResult summarizes one reconciliation cycle.
type CycleResult struct {
	Exported int
	Imported int
	// Errors collects the per-direction failures; a failed direction is
	// logged and retried next cycle, never fatal.
	Errors []error
}

// Bridge performs periodic two-way reconciliation: a wholesale export of
// every task, and an add-only import of externally created items.
type Bridge struct {
	store      core.Store
	exportPath string
	importPath string
	interval   time.Duration
	eventLog   core.EventLogger
}

// NewBridge creates a Bridge over the given store and file paths. eventLog
// may be nil. interval values <= 0 fall back to 30 seconds.
func NewBridge(store core.Store, exportPath, importPath string, interval time.Duration, eventLog core.EventLogger) *Bridge {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Bridge{
		store:      store,
		exportPath: exportPath,
		importPath: importPath,
		interval:   interval,
		eventLog:   eventLog,
	}
}

// Start runs reconciliation cycles on a ticker until ctx is cancelled.
// One cycle runs immediately.
func (b *Bridge) Start(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.RunOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.RunOnce()
		}
	}
}

// RunOnce performs a single import-then-export pass. Import runs first so
// the subsequent export reflects freshly imported items.
func (b *Bridge) RunOnce() CycleResult {
	var res CycleResult

	imported, err := b.importNew()
	if err != nil {
		res.Errors = append(res.Errors, err)
	}
	res.Imported = imported

	exported, err := b.exportAll()
	if err != nil {
		res.Errors = append(res.Errors, err)
	}
	res.Exported = exported

	if b.eventLog != nil {
		data := map[string]any{
			"exported": res.Exported,
			"imported": res.Imported,
			"errors":   len(res.Errors),
		}
		if len(res.Errors) > 0 {
			_ = b.eventLog.LogWarn("sync.cycle", data)
		} else {
			_ = b.eventLog.LogEvent("sync.cycle", data)
		}
	}
	return res
}

// exportAll serializes every task into the external schema and overwrites
// the export file unconditionally. Last writer wins; no merge.
func (b *Bridge) exportAll() (int, error) {
	tasks := b.store.ListTasks(core.Filter{})
	records := make([]models.SyncRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, recordFromTask(t))
	}
	if err := storage.WriteSyncRecords(b.exportPath, records); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(records), nil
}

// importNew adds tasks for external records whose original ID is not yet
// represented by an assistant-sourced task. Existing matches are left
// untouched: import never overwrites store-side edits.
func (b *Bridge) importNew() (int, error) {
	records, err := storage.ReadSyncRecords(b.importPath)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	known := b.knownOriginalIDs()
	imported := 0
	for _, rec := range records {
		if rec.ID != "" && known[rec.ID] {
			continue
		}
		draft, ok := draftFromRecord(rec)
		if !ok {
			continue
		}
		if _, err := b.store.AddTask(draft); err != nil {
			// Skip the bad record, keep the cycle going.
			continue
		}
		if rec.ID != "" {
			known[rec.ID] = true
		}
		imported++
	}
	return imported, nil
}

// knownOriginalIDs indexes the original IDs of assistant-sourced tasks.
func (b *Bridge) knownOriginalIDs() map[string]bool {
	known := make(map[string]bool)
	for _, t := range b.store.ListTasks(core.Filter{}) {
		if t.Source != models.SourceAssistant || t.SourcePayload == nil {
			continue
		}
		if orig, ok := t.SourcePayload["original_id"].(string); ok && orig != "" {
			known[orig] = true
		}
	}
	return known
}

func recordFromTask(t *models.Task) models.SyncRecord {
	rec := models.SyncRecord{
		ID:          t.ID,
		Content:     t.Title,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Description: t.Description,
		Tags:        t.Tags,
		Assignee:    t.Assignee,
	}
	if orig, ok := t.SourcePayload["original_id"].(string); ok && orig != "" {
		rec.ID = orig
	}
	if t.DueDate != nil {
		rec.DueDate = t.DueDate.Format(time.RFC3339)
	}
	return rec
}

func draftFromRecord(rec models.SyncRecord) (core.TaskDraft, bool) {
	if rec.Content == "" {
		return core.TaskDraft{}, false
	}
	draft := core.TaskDraft{
		Title:       rec.Content,
		Description: rec.Description,
		Tags:        rec.Tags,
		Assignee:    rec.Assignee,
		Source:      models.SourceAssistant,
		SourcePayload: map[string]any{
			"original_id": rec.ID,
		},
	}
	switch models.Priority(rec.Priority) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical:
		draft.Priority = models.Priority(rec.Priority)
	}
	if rec.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, rec.DueDate); err == nil {
			draft.DueDate = &due
		}
	}
	return draft, true
}
