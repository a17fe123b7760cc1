// Package internal provides the App struct that wires all components of
// crit together and initializes the CLI layer.
package internal

import (
	"fmt"

	"github.com/critdev/crit/internal/cli"
	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/internal/hooks"
	"github.com/critdev/crit/internal/observability"
	"github.com/critdev/crit/internal/storage"
	"github.com/critdev/crit/internal/syncbridge"
	"github.com/critdev/crit/pkg/models"
)

// App holds all service dependencies for crit.
type App struct {
	BasePath string
	Cfg      *models.Config

	QueueStore storage.QueueStore
	Store      core.Store
	Generator  core.TaskGenerator
	Router     *hooks.Router
	Bridge     *syncbridge.Bridge
	EventLog   observability.EventLog
}

// ResolveBasePath returns the workspace root for this invocation.
func ResolveBasePath() string {
	return core.ResolveBasePath()
}

// NewApp creates and wires all components, then publishes them to the CLI
// layer. basePath is the directory holding the config and data files.
func NewApp(basePath string) (*App, error) {
	cfg, err := core.LoadConfig(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	app := &App{BasePath: basePath, Cfg: cfg}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(cfg.EventLogPath)
	if err != nil {
		// Non-fatal: run without the event log if it can't be created.
		app.EventLog = nil
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}

	// --- Storage and task store ---
	app.QueueStore = storage.NewQueueStore(cfg.QueuePath, cfg.QueueName)
	app.Store, err = core.NewStore(app.QueueStore, cfg.DebounceInterval, evtAdapter, nil)
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}

	// --- Hook routing ---
	app.Generator = core.NewMarkerGenerator()
	app.Router = hooks.NewRouter(app.Store, app.Generator, cfg.Hooks, evtAdapter)

	// --- Sync bridge ---
	app.Bridge = syncbridge.NewBridge(app.Store, cfg.ExportPath, cfg.ImportPath, cfg.SyncInterval, evtAdapter)

	// --- Publish to the CLI layer ---
	cli.BasePath = basePath
	cli.Cfg = cfg
	cli.Store = app.Store
	cli.Router = app.Router
	cli.Bridge = app.Bridge
	cli.EventLog = app.EventLog

	return app, nil
}

// Close flushes pending writes and releases resources.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// eventLogAdapter narrows the observability EventLog to the typed event
// interface core components depend on.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Type:  eventType,
		Level: observability.LevelInfo,
		Data:  data,
	})
}

func (a *eventLogAdapter) LogWarn(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Type:  eventType,
		Level: observability.LevelWarn,
		Data:  data,
	})
}
