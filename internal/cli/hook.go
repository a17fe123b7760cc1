package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle coding assistant hook events",
	Long: `Process tool-call hook events from the coding assistant and keep the
task queue in sync.

Subcommands read JSON from stdin (or watch a file) and route each event
through the task queue: todo list writes are mirrored as tasks, file edits
are scanned for actionable markers, and fetched pages are checked for
requirement content.`,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the crit hook into the assistant's settings",
	Long: `Update .claude/settings.json in the target directory so that tool-call
events are piped to 'crit hook tool-use'. Existing settings are preserved;
only the hook entry is added or replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir, _ := cmd.Flags().GetString("dir")
		if targetDir == "" {
			var err error
			targetDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
		}
		return installHookSettings(targetDir)
	},
}

var hookLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recently handled hook events",
	Long:  `Print the in-memory ring of recent hook events, oldest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			fmt.Println("Hook router not initialized.")
			return nil
		}

		entries := Router.Ring().Entries()
		if len(entries) == 0 {
			fmt.Println("No hook events recorded this session.")
			return nil
		}
		for _, e := range entries {
			mark := " "
			if e.Processed {
				mark = "*"
			}
			fmt.Printf("%s [%s] %-12s %s\n", mark, e.Time.Format("15:04:05"), e.ToolName, e.Action)
		}
		return nil
	},
}

// installHookSettings merges the crit hook entry into .claude/settings.json,
// creating the file if needed.
func installHookSettings(targetDir string) error {
	settingsDir := filepath.Join(targetDir, ".claude")
	settingsPath := filepath.Join(settingsDir, "settings.json")

	settings := map[string]any{}
	if data, err := os.ReadFile(settingsPath); err == nil {
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("parsing %s: %w", settingsPath, err)
		}
	}

	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		hooksSection = map[string]any{}
	}
	hooksSection["PostToolUse"] = []any{
		map[string]any{
			"matcher": "TodoWrite|Edit|Write|MultiEdit|WebFetch",
			"hooks": []any{
				map[string]any{
					"type":    "command",
					"command": "crit hook tool-use",
				},
			},
		},
	}
	settings["hooks"] = hooksSection

	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", settingsDir, err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(settingsPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", settingsPath, err)
	}

	fmt.Printf("Installed crit hook in %s\n", settingsPath)
	return nil
}

func init() {
	hookInstallCmd.Flags().String("dir", "", "target directory (default: current directory)")

	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookLogCmd)
	rootCmd.AddCommand(hookCmd)
}
