package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/critdev/crit/pkg/models"
)

const configName = ".critconfig"

// DefaultConfig returns the resolved configuration for a base path with no
// config file present. All data files live under basePath.
func DefaultConfig(basePath string) *models.Config {
	return &models.Config{
		QueueName:        "default",
		QueuePath:        filepath.Join(basePath, "queue.json"),
		EventLogPath:     filepath.Join(basePath, ".crit_events.jsonl"),
		HookEventPath:    filepath.Join(basePath, ".crit_hook_events.json"),
		ExportPath:       filepath.Join(basePath, "todos-export.json"),
		ImportPath:       filepath.Join(basePath, "todos-import.json"),
		DebounceInterval: time.Second,
		SyncInterval:     30 * time.Second,
		Theme:            "dark",
		LogLevel:         "info",
		Hooks:            models.DefaultHookConfig(),
	}
}

// LoadConfig reads .critconfig (YAML) from basePath via Viper. A missing
// file yields defaults; a malformed file is an error.
func LoadConfig(basePath string) (*models.Config, error) {
	cfg := DefaultConfig(basePath)

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(basePath)

	v.SetDefault("queue_name", cfg.QueueName)
	v.SetDefault("queue_path", cfg.QueuePath)
	v.SetDefault("event_log_path", cfg.EventLogPath)
	v.SetDefault("hook_event_path", cfg.HookEventPath)
	v.SetDefault("export_path", cfg.ExportPath)
	v.SetDefault("import_path", cfg.ImportPath)
	v.SetDefault("debounce_interval", cfg.DebounceInterval.String())
	v.SetDefault("sync_interval", cfg.SyncInterval.String())
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("hooks.enabled", cfg.Hooks.Enabled)
	v.SetDefault("hooks.todo_sync", cfg.Hooks.TodoSync)
	v.SetDefault("hooks.code_markers", cfg.Hooks.CodeMarkers)
	v.SetDefault("hooks.requirement_docs", cfg.Hooks.RequirementDocs)
	v.SetDefault("hooks.web_fetch", cfg.Hooks.WebFetch)
	v.SetDefault("hooks.ring_capacity", cfg.Hooks.RingCapacity)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", configName, err)
	}

	cfg.QueueName = v.GetString("queue_name")
	cfg.QueuePath = resolvePath(basePath, v.GetString("queue_path"))
	cfg.EventLogPath = resolvePath(basePath, v.GetString("event_log_path"))
	cfg.HookEventPath = resolvePath(basePath, v.GetString("hook_event_path"))
	cfg.ExportPath = resolvePath(basePath, v.GetString("export_path"))
	cfg.ImportPath = resolvePath(basePath, v.GetString("import_path"))
	cfg.Theme = v.GetString("theme")
	cfg.LogLevel = v.GetString("log_level")

	if d := v.GetDuration("debounce_interval"); d > 0 {
		cfg.DebounceInterval = d
	}
	if d := v.GetDuration("sync_interval"); d > 0 {
		cfg.SyncInterval = d
	}

	cfg.Hooks.Enabled = v.GetBool("hooks.enabled")
	cfg.Hooks.TodoSync = v.GetBool("hooks.todo_sync")
	cfg.Hooks.CodeMarkers = v.GetBool("hooks.code_markers")
	cfg.Hooks.RequirementDocs = v.GetBool("hooks.requirement_docs")
	cfg.Hooks.WebFetch = v.GetBool("hooks.web_fetch")
	if n := v.GetInt("hooks.ring_capacity"); n > 0 {
		cfg.Hooks.RingCapacity = n
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks the resolved configuration for invalid values.
func ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if cfg.QueueName == "" {
		return fmt.Errorf("config validation failed: queue_name must not be empty")
	}
	if cfg.QueuePath == "" {
		return fmt.Errorf("config validation failed: queue_path must not be empty")
	}
	if cfg.DebounceInterval <= 0 {
		return fmt.Errorf("config validation failed: debounce_interval must be positive, got %s", cfg.DebounceInterval)
	}
	if cfg.SyncInterval <= 0 {
		return fmt.Errorf("config validation failed: sync_interval must be positive, got %s", cfg.SyncInterval)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config validation failed: log_level %q is invalid, must be one of: debug, info, warn, error", cfg.LogLevel)
	}
	return nil
}

// WriteDefaultConfig writes a commented default .critconfig.yaml to
// basePath. Returns an error if the file already exists.
func WriteDefaultConfig(basePath string) (string, error) {
	path := filepath.Join(basePath, configName+".yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists at %s", path)
	}

	cfg := DefaultConfig(basePath)
	raw := map[string]any{
		"queue_name":        cfg.QueueName,
		"queue_path":        cfg.QueuePath,
		"event_log_path":    cfg.EventLogPath,
		"hook_event_path":   cfg.HookEventPath,
		"export_path":       cfg.ExportPath,
		"import_path":       cfg.ImportPath,
		"debounce_interval": cfg.DebounceInterval.String(),
		"sync_interval":     cfg.SyncInterval.String(),
		"theme":             cfg.Theme,
		"log_level":         cfg.LogLevel,
		"hooks":             cfg.Hooks,
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}
	return path, nil
}

// ResolveBasePath determines the crit workspace directory: CRIT_HOME if
// set, else the nearest ancestor of the working directory containing a
// .critconfig file, else the working directory itself.
func ResolveBasePath() string {
	if home := os.Getenv("CRIT_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for probe := dir; ; {
		for _, name := range []string{configName + ".yaml", configName + ".yml", configName} {
			if _, err := os.Stat(filepath.Join(probe, name)); err == nil {
				return probe
			}
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	return dir
}

func resolvePath(basePath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}
