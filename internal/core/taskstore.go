// Package core contains the business logic for crit: the dependency-aware
// task store, the debounced write-back, the hook content classifier, and
// configuration loading.
package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/critdev/crit/pkg/models"
)

// Persister is the subset of storage.QueueStore the Store needs. Defining
// it here keeps core independent of the storage package.
type Persister interface {
	Load() (*models.Queue, error)
	Save(q *models.Queue) error
}

// Observer receives store mutation notifications. All methods are called
// synchronously after the mutation is applied. Implementations must not
// call back into the Store.
type Observer interface {
	TaskAdded(t *models.Task)
	TaskUpdated(t *models.Task, previous models.TaskStatus)
	TaskDeleted(id string)
}

// EventLogger records typed observability events. May be nil. LogEvent
// records at the informational level; LogWarn marks recoverable failures.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
	LogWarn(eventType string, data map[string]any) error
}

// TaskDraft carries the caller-supplied fields for a new task. Zero values
// take defaults: priority medium, status pending (or blocked when
// dependencies are unresolved).
type TaskDraft struct {
	Title          string
	Description    string
	Priority       models.Priority
	Assignee       string
	Tags           []string
	Dependencies   []string
	DueDate        *time.Time
	EstimatedHours float64
	Source         models.TaskSource
	SourcePayload  map[string]any

	// Parent, when set, nests the new task as a subtask of the task with
	// that ID instead of adding it at the top level.
	Parent string
}

// TaskPatch is a partial update. Nil fields are left unchanged; the task ID
// is immutable.
type TaskPatch struct {
	Title          *string
	Description    *string
	Priority       *models.Priority
	Status         *models.TaskStatus
	Assignee       *string
	Tags           *[]string
	Dependencies   *[]string
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64

	// Trigger tags the history entry written on a status change.
	// Defaults to TriggerUser.
	Trigger models.ChangeTrigger
	// Reason is recorded on the history entry, if any.
	Reason string
}

// Filter selects tasks for ListTasks. All set criteria use AND logic.
type Filter struct {
	Status   []models.TaskStatus
	Priority []models.Priority
	Assignee string
	// Tags requires every listed tag to be present on the task.
	Tags []string
	// Path selects the task at the given slash-joined ID path together
	// with every subtask beneath it.
	Path string
	// Search is a case-insensitive substring match on the title.
	Search string
}

// QueueStats summarizes the queue for Stats().
type QueueStats struct {
	Total          int
	ByStatus       map[models.TaskStatus]int
	ByPriority     map[models.Priority]int
	// MeanCompletion is nil when no task has completed.
	MeanCompletion *time.Duration
}

// Store is the stateful task engine. All mutations recalculate queue
// metadata, notify the observer, and schedule a debounced persist.
type Store interface {
	AddTask(draft TaskDraft) (*models.Task, error)
	UpdateTask(id string, patch TaskPatch) (*models.Task, error)
	DeleteTask(id string) (bool, error)
	AddComment(taskID, content, author string) (*models.Comment, error)
	ListTasks(filter Filter) []*models.Task
	GetTask(id string) (*models.Task, bool)
	Stats() QueueStats
	QueueName() string
	QueueCounts() (total, completed int)

	// Reload re-reads the queue from disk, discarding in-memory state.
	Reload() error
	// Flush forces any pending debounced write to disk immediately.
	Flush() error
	// Close flushes and stops the write-back timer.
	Close() error
}

type taskStore struct {
	mu       sync.Mutex
	queue    *models.Queue
	persist  Persister
	saver    *Debouncer
	eventLog EventLogger
	obs      Observer

	now func() time.Time
	id  func() string
}

// NewStore creates a Store over the given persister, loading the current
// queue eagerly. eventLog and obs may be nil. debounce bounds the write
// coalescing window; values <= 0 fall back to one second.
func NewStore(persist Persister, debounce time.Duration, eventLog EventLogger, obs Observer) (Store, error) {
	q, err := persist.Load()
	if err != nil {
		return nil, fmt.Errorf("loading queue: %w", err)
	}
	if debounce <= 0 {
		debounce = time.Second
	}

	s := &taskStore{
		queue:    q,
		persist:  persist,
		eventLog: eventLog,
		obs:      obs,
		now:      func() time.Time { return time.Now().UTC() },
		id:       uuid.NewString,
	}
	s.saver = NewDebouncer(debounce, s.persistNow)
	return s, nil
}

func (s *taskStore) QueueName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Name
}

func (s *taskStore) QueueCounts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.TotalTasks, s.queue.CompletedTasks
}

// AddTask fills defaults, evaluates the dependency invariant, records the
// initial history entry, and inserts the task.
func (s *taskStore) AddTask(draft TaskDraft) (*models.Task, error) {
	title := SanitizeText(draft.Title, maxTitleLen)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if draft.Priority != "" && !models.ValidPriorities[draft.Priority] {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, draft.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task := &models.Task{
		ID:             s.id(),
		Title:          title,
		Description:    SanitizeText(draft.Description, maxDescriptionLen),
		Priority:       draft.Priority,
		Status:         models.StatusPending,
		Assignee:       draft.Assignee,
		Tags:           draft.Tags,
		Dependencies:   draft.Dependencies,
		DueDate:        draft.DueDate,
		EstimatedHours: draft.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
		Source:         draft.Source,
		SourcePayload:  draft.SourcePayload,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Source == "" {
		task.Source = models.SourceManual
	}

	// Dependency invariant: any unresolved dependency forces blocked.
	if unresolved := s.unresolvedDeps(task); len(unresolved) > 0 {
		task.Status = models.StatusBlocked
		s.appendComment(task, models.Comment{
			Author:  "system",
			Content: fmt.Sprintf("blocked on unresolved dependencies: %s", strings.Join(unresolved, ", ")),
			Type:    models.CommentSystem,
		})
	}

	task.History = append(task.History, models.StateChange{
		Timestamp: now,
		From:      "",
		To:        task.Status,
		Trigger:   models.TriggerSystem,
		Reason:    "created",
	})

	if draft.Parent != "" {
		parent := s.queue.Find(draft.Parent)
		if parent == nil {
			return nil, fmt.Errorf("adding subtask under %s: %w", draft.Parent, ErrNotFound)
		}
		parent.Subtasks = append(parent.Subtasks, task)
		parent.UpdatedAt = now
	} else {
		s.queue.Tasks = append(s.queue.Tasks, task)
	}
	s.queue.Recount()

	s.logEvent("task.created", map[string]any{
		"task_id": task.ID,
		"status":  string(task.Status),
		"source":  string(task.Source),
	})
	if s.obs != nil {
		s.obs.TaskAdded(task)
	}
	s.saver.Schedule()
	return task, nil
}

// UpdateTask applies a partial patch. A status change appends a history
// entry; a transition to completed stamps CompletedAt and runs one unblock
// pass over direct dependents.
func (s *taskStore) UpdateTask(id string, patch TaskPatch) (*models.Task, error) {
	if patch.Status != nil && !models.ValidStatuses[*patch.Status] {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *patch.Status)
	}
	if patch.Priority != nil && !models.ValidPriorities[*patch.Priority] {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, *patch.Priority)
	}
	if patch.Title != nil && SanitizeText(*patch.Title, maxTitleLen) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.queue.Find(id)
	if task == nil {
		return nil, fmt.Errorf("updating task %s: %w", id, ErrNotFound)
	}

	previous := task.Status
	now := s.now()

	if patch.Title != nil {
		task.Title = SanitizeText(*patch.Title, maxTitleLen)
	}
	if patch.Description != nil {
		task.Description = SanitizeText(*patch.Description, maxDescriptionLen)
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Assignee != nil {
		task.Assignee = *patch.Assignee
	}
	if patch.Tags != nil {
		task.Tags = *patch.Tags
	}
	if patch.Dependencies != nil {
		task.Dependencies = *patch.Dependencies
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.EstimatedHours != nil {
		task.EstimatedHours = *patch.EstimatedHours
	}
	if patch.ActualHours != nil {
		task.ActualHours = *patch.ActualHours
	}

	if patch.Status != nil && *patch.Status != previous {
		trigger := patch.Trigger
		if trigger == "" {
			trigger = models.TriggerUser
		}
		task.Status = *patch.Status
		task.History = append(task.History, models.StateChange{
			Timestamp: now,
			From:      previous,
			To:        task.Status,
			Trigger:   trigger,
			Reason:    patch.Reason,
		})
		if task.Status == models.StatusCompleted {
			completed := now
			task.CompletedAt = &completed
			s.unblockDependents(task.ID, now)
		}
	}

	task.UpdatedAt = now
	s.queue.Recount()

	s.logEvent("task.updated", map[string]any{
		"task_id":     task.ID,
		"prev_status": string(previous),
		"status":      string(task.Status),
	})
	if s.obs != nil {
		s.obs.TaskUpdated(task, previous)
	}
	s.saver.Schedule()
	return task, nil
}

// DeleteTask removes a task. It returns ErrConflict while any non-completed
// task depends on it, and (false, nil) when the ID does not exist.
func (s *taskStore) DeleteTask(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Find(id) == nil {
		return false, nil
	}

	var dependents []string
	s.queue.Walk(func(t *models.Task, _ string) {
		if t.ID != id && t.Status != models.StatusCompleted && t.HasDependency(id) {
			dependents = append(dependents, t.ID)
		}
	})
	if len(dependents) > 0 {
		return false, fmt.Errorf("deleting task %s: %w: required by %s",
			id, ErrConflict, strings.Join(dependents, ", "))
	}

	removeTask(&s.queue.Tasks, id)
	s.queue.Recount()

	s.logEvent("task.deleted", map[string]any{"task_id": id})
	if s.obs != nil {
		s.obs.TaskDeleted(id)
	}
	s.saver.Schedule()
	return true, nil
}

// AddComment appends a note-type comment to a task.
func (s *taskStore) AddComment(taskID, content, author string) (*models.Comment, error) {
	content = SanitizeText(content, maxDescriptionLen)
	if content == "" {
		return nil, fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.queue.Find(taskID)
	if task == nil {
		return nil, fmt.Errorf("commenting on task %s: %w", taskID, ErrNotFound)
	}

	c := s.appendComment(task, models.Comment{
		Author:  author,
		Content: content,
		Type:    models.CommentNote,
	})
	task.UpdatedAt = s.now()
	s.saver.Schedule()
	return c, nil
}

// ListTasks filters and sorts without side effects: priority descending,
// then creation time descending, with the task ID as a final tie-break so
// identical data always yields an identical order.
func (s *taskStore) ListTasks(filter Filter) []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Task
	s.queue.Walk(func(t *models.Task, path string) {
		if matchesFilter(t, path, filter) {
			result = append(result, t)
		}
	})

	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := models.PriorityRank(result[i].Priority), models.PriorityRank(result[j].Priority)
		if ri != rj {
			return ri > rj
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *taskStore) GetTask(id string) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.queue.Find(id)
	return t, t != nil
}

func (s *taskStore) Stats() QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := QueueStats{
		ByStatus:   make(map[models.TaskStatus]int),
		ByPriority: make(map[models.Priority]int),
	}

	var total time.Duration
	completed := 0
	s.queue.Walk(func(t *models.Task, _ string) {
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		if t.Status == models.StatusCompleted && t.CompletedAt != nil {
			total += t.CompletedAt.Sub(t.CreatedAt)
			completed++
		}
	})
	if completed > 0 {
		mean := total / time.Duration(completed)
		stats.MeanCompletion = &mean
	}
	return stats
}

func (s *taskStore) Reload() error {
	q, err := s.persist.Load()
	if err != nil {
		return fmt.Errorf("reloading queue: %w", err)
	}
	s.mu.Lock()
	s.queue = q
	s.mu.Unlock()
	return nil
}

func (s *taskStore) Flush() error {
	return s.saver.Flush()
}

func (s *taskStore) Close() error {
	return s.saver.Stop()
}

// --- internal helpers ---

// unresolvedDeps returns the dependency IDs not resolved to completed.
// Unknown IDs count as unresolved.
func (s *taskStore) unresolvedDeps(task *models.Task) []string {
	var unresolved []string
	for _, depID := range task.Dependencies {
		dep := s.queue.Find(depID)
		if dep == nil || dep.Status != models.StatusCompleted {
			unresolved = append(unresolved, depID)
		}
	}
	return unresolved
}

// unblockDependents runs a single pass over blocked tasks that list
// completedID as a dependency. Chains resolve one link per completion
// event; this is deliberately not a fixed-point iteration.
func (s *taskStore) unblockDependents(completedID string, now time.Time) {
	s.queue.Walk(func(t *models.Task, _ string) {
		if t.Status != models.StatusBlocked || !t.HasDependency(completedID) {
			return
		}
		if len(s.unresolvedDeps(t)) > 0 {
			return
		}
		t.Status = models.StatusPending
		t.UpdatedAt = now
		t.History = append(t.History, models.StateChange{
			Timestamp: now,
			From:      models.StatusBlocked,
			To:        models.StatusPending,
			Trigger:   models.TriggerSystem,
			Reason:    "all dependencies completed",
		})
		s.appendComment(t, models.Comment{
			Author:  "system",
			Content: "unblocked: all dependencies completed",
			Type:    models.CommentSystem,
		})
		s.logEvent("task.unblocked", map[string]any{"task_id": t.ID})
	})
}

// removeTask removes the task with the given ID from tasks, descending
// into subtasks, and reports whether it was found. A removed task takes
// its subtask subtree with it.
func removeTask(tasks *[]*models.Task, id string) bool {
	for i, t := range *tasks {
		if t.ID == id {
			*tasks = append((*tasks)[:i], (*tasks)[i+1:]...)
			return true
		}
		if removeTask(&t.Subtasks, id) {
			return true
		}
	}
	return false
}

func (s *taskStore) appendComment(task *models.Task, c models.Comment) *models.Comment {
	c.ID = s.id()
	c.CreatedAt = s.now()
	task.Comments = append(task.Comments, c)
	return &task.Comments[len(task.Comments)-1]
}

// persistNow is the debouncer's target. Persistence failures are logged and
// the write is rescheduled rather than surfaced to the mutating caller.
func (s *taskStore) persistNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist.Save(s.queue); err != nil {
		s.logWarn("queue.persist_failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.eventLog == nil {
		return
	}
	_ = s.eventLog.LogEvent(eventType, data)
}

func (s *taskStore) logWarn(eventType string, data map[string]any) {
	if s.eventLog == nil {
		return
	}
	_ = s.eventLog.LogWarn(eventType, data)
}

func matchesFilter(t *models.Task, path string, f Filter) bool {
	if len(f.Status) > 0 && !containsStatus(f.Status, t.Status) {
		return false
	}
	if len(f.Priority) > 0 && !containsPriority(f.Priority, t.Priority) {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	if f.Path != "" && path != f.Path && !strings.HasPrefix(path, f.Path+"/") {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func containsStatus(haystack []models.TaskStatus, needle models.TaskStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsPriority(haystack []models.Priority, needle models.Priority) bool {
	for _, p := range haystack {
		if p == needle {
			return true
		}
	}
	return false
}
