package models

import "time"

// HookEvent is a notification of an external tool invocation by the coding
// assistant, consumed from stdin JSON or a watched event file.
type HookEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	FilePath  string         `json:"file_path,omitempty"`
	Content   string         `json:"content,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
}

// File returns the file path associated with the event, preferring the
// top-level field over the arguments map.
func (e HookEvent) File() string {
	if e.FilePath != "" {
		return e.FilePath
	}
	if e.Arguments == nil {
		return ""
	}
	fp, _ := e.Arguments["file_path"].(string)
	return fp
}

// Body returns the changed content for the event, preferring the top-level
// field, then the conventional argument keys used by edit and write tools.
func (e HookEvent) Body() string {
	if e.Content != "" {
		return e.Content
	}
	if e.Arguments == nil {
		return ""
	}
	for _, key := range []string{"content", "new_string", "new_str"} {
		if s, ok := e.Arguments[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// HookConfig holds the hook router configuration from .critconfig.
type HookConfig struct {
	Enabled         bool `yaml:"enabled" mapstructure:"enabled"`
	TodoSync        bool `yaml:"todo_sync" mapstructure:"todo_sync"`
	CodeMarkers     bool `yaml:"code_markers" mapstructure:"code_markers"`
	RequirementDocs bool `yaml:"requirement_docs" mapstructure:"requirement_docs"`
	WebFetch        bool `yaml:"web_fetch" mapstructure:"web_fetch"`
	RingCapacity    int  `yaml:"ring_capacity" mapstructure:"ring_capacity"`
}

// DefaultHookConfig returns sensible defaults for the hook router.
func DefaultHookConfig() HookConfig {
	return HookConfig{
		Enabled:         true,
		TodoSync:        true,
		CodeMarkers:     true,
		RequirementDocs: true,
		WebFetch:        true,
		RingCapacity:    100,
	}
}

// TodoEntry is one item extracted from a todo-write style event payload.
type TodoEntry struct {
	ID       string `json:"id,omitempty"`
	Content  string `json:"content"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}
