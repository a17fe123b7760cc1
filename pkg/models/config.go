package models

import "time"

// Config is the fully resolved configuration for a crit workspace. Every
// file path the system touches is carried here explicitly; components never
// resolve paths from ambient process state.
type Config struct {
	// QueueName is the logical name of the task queue.
	QueueName string `yaml:"queue_name" mapstructure:"queue_name"`

	// QueuePath is the JSON file holding the full queue aggregate.
	QueuePath string `yaml:"queue_path" mapstructure:"queue_path"`

	// EventLogPath is the append-only JSONL observability log.
	EventLogPath string `yaml:"event_log_path" mapstructure:"event_log_path"`

	// HookEventPath is the file watched by `crit hook watch` for events
	// written by the assistant.
	HookEventPath string `yaml:"hook_event_path" mapstructure:"hook_event_path"`

	// ExportPath receives the wholesale task export each sync cycle.
	ExportPath string `yaml:"export_path" mapstructure:"export_path"`

	// ImportPath is read each sync cycle for externally added items.
	ImportPath string `yaml:"import_path" mapstructure:"import_path"`

	// DebounceInterval is the write-back coalescing window.
	DebounceInterval time.Duration `yaml:"debounce_interval" mapstructure:"debounce_interval"`

	// SyncInterval is the period of the sync bridge ticker.
	SyncInterval time.Duration `yaml:"sync_interval" mapstructure:"sync_interval"`

	Theme    string `yaml:"theme" mapstructure:"theme"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	Hooks HookConfig `yaml:"hooks" mapstructure:"hooks"`
}

// SyncRecord is the external todo file schema shared by the export and
// import files.
type SyncRecord struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
}
