package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
	StatusCancelled  TaskStatus = "cancelled"
)

// ValidStatuses is the set of allowed TaskStatus values.
var ValidStatuses = map[TaskStatus]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusBlocked:    true,
	StatusCancelled:  true,
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriorities is the set of allowed Priority values.
var ValidPriorities = map[Priority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// PriorityRank returns a sortable rank for a priority, higher is more urgent.
// Unknown priorities rank below low.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// TaskSource identifies where a task originated.
type TaskSource string

const (
	SourceManual    TaskSource = "manual"
	SourceAssistant TaskSource = "external-assistant"
	SourceHook      TaskSource = "hook-triggered"
	SourceAPI       TaskSource = "api"
)

// CommentType distinguishes user annotations from system-generated entries.
type CommentType string

const (
	CommentNote         CommentType = "note"
	CommentStatusChange CommentType = "status_change"
	CommentSystem       CommentType = "system"
)

// Comment is an immutable annotation attached to a task.
type Comment struct {
	ID        string      `json:"id"`
	Author    string      `json:"author"`
	Content   string      `json:"content"`
	Type      CommentType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// ChangeTrigger tags the origin of a status transition.
type ChangeTrigger string

const (
	TriggerUser   ChangeTrigger = "user"
	TriggerSystem ChangeTrigger = "system"
	TriggerHook   ChangeTrigger = "hook"
)

// StateChange is an append-only audit record of a status transition.
// Records are never mutated or deleted.
type StateChange struct {
	Timestamp time.Time     `json:"timestamp"`
	From      TaskStatus    `json:"from"`
	To        TaskStatus    `json:"to"`
	Reason    string        `json:"reason,omitempty"`
	Trigger   ChangeTrigger `json:"trigger"`
}

// Task is the central entity of the tracker. Tasks are owned by exactly one
// Queue and have no identity outside it.
type Task struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Priority       Priority       `json:"priority"`
	Status         TaskStatus     `json:"status"`
	Assignee       string         `json:"assignee,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	EstimatedHours float64        `json:"estimated_hours,omitempty"`
	ActualHours    float64        `json:"actual_hours,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Source         TaskSource     `json:"source,omitempty"`
	SourcePayload  map[string]any `json:"source_payload,omitempty"`
	Subtasks       []*Task        `json:"subtasks,omitempty"`
	Comments       []Comment      `json:"comments,omitempty"`
	History        []StateChange  `json:"history,omitempty"`
}

// HasDependency reports whether the task lists id in its dependency set.
func (t *Task) HasDependency(id string) bool {
	for _, d := range t.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// Queue is the aggregate root: a named collection of tasks plus summary
// metadata. One Queue maps to exactly one persisted file.
type Queue struct {
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	Tasks          []*Task   `json:"tasks"`
}

// NewQueue returns an empty queue with the given name.
func NewQueue(name string) *Queue {
	now := time.Now().UTC()
	return &Queue{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Tasks:     []*Task{},
	}
}

// Recount refreshes the queue's summary metadata from its tasks, subtasks
// included.
func (q *Queue) Recount() {
	total, completed := 0, 0
	q.Walk(func(t *Task, _ string) {
		total++
		if t.Status == StatusCompleted {
			completed++
		}
	})
	q.TotalTasks = total
	q.CompletedTasks = completed
	q.UpdatedAt = time.Now().UTC()
}

// Walk visits every task depth-first, top-level tasks before their
// subtasks. Each task is passed with its path: the slash-joined IDs from
// its root task down to itself.
func (q *Queue) Walk(visit func(t *Task, path string)) {
	walkTasks(q.Tasks, "", visit)
}

func walkTasks(tasks []*Task, prefix string, visit func(t *Task, path string)) {
	for _, t := range tasks {
		path := t.ID
		if prefix != "" {
			path = prefix + "/" + t.ID
		}
		visit(t, path)
		walkTasks(t.Subtasks, path, visit)
	}
}

// Find returns the task with the given ID, descending into subtasks, or
// nil if absent.
func (q *Queue) Find(id string) *Task {
	return findIn(q.Tasks, id)
}

func findIn(tasks []*Task, id string) *Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
		if found := findIn(t.Subtasks, id); found != nil {
			return found
		}
	}
	return nil
}
