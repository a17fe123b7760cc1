package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/critdev/crit/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse and edit the task queue interactively",
	Long: `Launch the interactive task viewer.

Navigate with the arrow keys, toggle status with space, edit with enter,
cycle status filters with f, search with /, and reload from disk with r.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}
		if !isInteractiveTerminal() {
			return fmt.Errorf("the viewer requires an interactive terminal (stdout is not a TTY)")
		}

		p := tea.NewProgram(tui.NewModel(Store), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running viewer: %w", err)
		}

		// The viewer flushes on quit; flush again in case it exited
		// through an error path.
		return Store.Flush()
	},
}

// isInteractiveTerminal reports whether stdout is attached to a terminal.
func isInteractiveTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
