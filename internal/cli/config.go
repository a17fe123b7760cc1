package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critdev/crit/internal/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage workspace configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the workspace",
	Long: `Create a .critconfig.yaml in the workspace root with default values.
Fails if a config file already exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := core.WriteDefaultConfig(BasePath)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}

		fmt.Printf("queue_name:        %s\n", Cfg.QueueName)
		fmt.Printf("queue_path:        %s\n", Cfg.QueuePath)
		fmt.Printf("event_log_path:    %s\n", Cfg.EventLogPath)
		fmt.Printf("hook_event_path:   %s\n", Cfg.HookEventPath)
		fmt.Printf("export_path:       %s\n", Cfg.ExportPath)
		fmt.Printf("import_path:       %s\n", Cfg.ImportPath)
		fmt.Printf("debounce_interval: %s\n", Cfg.DebounceInterval)
		fmt.Printf("sync_interval:     %s\n", Cfg.SyncInterval)
		fmt.Printf("theme:             %s\n", Cfg.Theme)
		fmt.Printf("log_level:         %s\n", Cfg.LogLevel)
		fmt.Printf("hooks.enabled:     %t\n", Cfg.Hooks.Enabled)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
