package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/critdev/crit/pkg/models"
)

var hookWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the hook event file and route new events",
	Long: `Watch the configured hook event file for writes and route each new
event through the task queue. Useful when the assistant appends events to
a file instead of invoking 'crit hook tool-use' directly.

Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil || Cfg == nil {
			return fmt.Errorf("hook router not initialized")
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory: editors and assistants often replace the
		// file rather than writing in place.
		dir := filepath.Dir(Cfg.HookEventPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		fmt.Printf("Watching %s for hook events (ctrl+c to stop)\n", Cfg.HookEventPath)

		var lastSeen time.Time
		// Handle anything already present before the first change.
		lastSeen = routeEventFile(Cfg.HookEventPath, lastSeen)

		for {
			select {
			case <-sigCh:
				if Store != nil {
					_ = Store.Flush()
				}
				return nil

			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Name != Cfg.HookEventPath {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				lastSeen = routeEventFile(Cfg.HookEventPath, lastSeen)

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		}
	},
}

// routeEventFile reads the hook event file and routes every event newer
// than lastSeen, returning the new high-water mark. The file holds either
// a single event object or an array of events; read failures are ignored
// so a partially written file is just retried on the next change.
func routeEventFile(path string, lastSeen time.Time) time.Time {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return lastSeen
	}

	var events []models.HookEvent
	if err := json.Unmarshal(data, &events); err != nil {
		var single models.HookEvent
		if err := json.Unmarshal(data, &single); err != nil {
			return lastSeen
		}
		events = []models.HookEvent{single}
	}

	mark := lastSeen
	for _, ev := range events {
		// Unstamped events are always routed; only stamped events move
		// the high-water mark.
		if !ev.Timestamp.IsZero() && !ev.Timestamp.After(lastSeen) {
			continue
		}
		res := Router.Handle(ev)
		if res.Feedback != "" {
			fmt.Println(res.Feedback)
		}
		if ev.Timestamp.After(mark) {
			mark = ev.Timestamp
		}
	}
	return mark
}

func init() {
	hookCmd.AddCommand(hookWatchCmd)
}
