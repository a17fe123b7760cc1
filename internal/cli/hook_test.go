package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readSettings(t *testing.T, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, ".claude", "settings.json"))
	if err != nil {
		t.Fatalf("reading settings: %v", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		t.Fatalf("parsing settings: %v", err)
	}
	return settings
}

func TestHookCmd_Registration(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "hook" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected 'hook' command to be registered on root")
	}
}

func TestInstallHookSettings_CreatesFile(t *testing.T) {
	dir := t.TempDir()

	if err := installHookSettings(dir); err != nil {
		t.Fatalf("installHookSettings: %v", err)
	}

	settings := readSettings(t, dir)
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		t.Fatalf("settings missing hooks section: %v", settings)
	}
	post, ok := hooks["PostToolUse"].([]any)
	if !ok || len(post) != 1 {
		t.Fatalf("PostToolUse = %v", hooks["PostToolUse"])
	}

	entry := post[0].(map[string]any)
	matcher, _ := entry["matcher"].(string)
	for _, tool := range []string{"TodoWrite", "Edit", "Write", "MultiEdit", "WebFetch"} {
		if !strings.Contains(matcher, tool) {
			t.Errorf("matcher %q missing %s", matcher, tool)
		}
	}
}

func TestInstallHookSettings_PreservesExistingSettings(t *testing.T) {
	dir := t.TempDir()
	settingsDir := filepath.Join(dir, ".claude")
	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := `{"model": "opus", "hooks": {"PreToolUse": [{"matcher": "Bash"}]}}`
	if err := os.WriteFile(filepath.Join(settingsDir, "settings.json"), []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := installHookSettings(dir); err != nil {
		t.Fatalf("installHookSettings: %v", err)
	}

	settings := readSettings(t, dir)
	if settings["model"] != "opus" {
		t.Error("unrelated top-level setting lost")
	}
	hooks := settings["hooks"].(map[string]any)
	if _, ok := hooks["PreToolUse"]; !ok {
		t.Error("unrelated hook section lost")
	}
	if _, ok := hooks["PostToolUse"]; !ok {
		t.Error("hook entry not installed")
	}
}

func TestInstallHookSettings_ReplacesStaleEntry(t *testing.T) {
	dir := t.TempDir()

	if err := installHookSettings(dir); err != nil {
		t.Fatal(err)
	}
	// A second install replaces rather than appends.
	if err := installHookSettings(dir); err != nil {
		t.Fatal(err)
	}

	settings := readSettings(t, dir)
	hooks := settings["hooks"].(map[string]any)
	post := hooks["PostToolUse"].([]any)
	if len(post) != 1 {
		t.Errorf("PostToolUse holds %d entries after reinstall, want 1", len(post))
	}
}

func TestInstallHookSettings_MalformedSettings(t *testing.T) {
	dir := t.TempDir()
	settingsDir := filepath.Join(dir, ".claude")
	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(settingsDir, "settings.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := installHookSettings(dir); err == nil {
		t.Error("expected parse error for malformed settings file")
	}
}
