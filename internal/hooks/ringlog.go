package hooks

import (
	"sync"
	"time"

	"github.com/critdev/crit/pkg/models"
)

// LogEntry is one processed hook event kept for observability.
type LogEntry struct {
	Time      time.Time
	ToolName  string
	SessionID string
	Processed bool
	Action    string
}

// RingLog is a bounded in-memory log of processed hook events. Once the
// capacity is reached the oldest entries are evicted. It exists for
// inspection (`crit hook log`), not for replay.
type RingLog struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

// NewRingLog creates a RingLog holding at most capacity entries. A
// non-positive capacity falls back to 100.
func NewRingLog(capacity int) *RingLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &RingLog{entries: make([]LogEntry, capacity)}
}

// Append records an entry, evicting the oldest when full.
func (r *RingLog) Append(ev models.HookEvent, processed bool, action string) {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = LogEntry{
		Time:      ts,
		ToolName:  ev.ToolName,
		SessionID: ev.SessionID,
		Processed: processed,
		Action:    action,
	}
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

// Entries returns the retained entries, oldest first.
func (r *RingLog) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]LogEntry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]LogEntry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

// Len returns the number of retained entries.
func (r *RingLog) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}
