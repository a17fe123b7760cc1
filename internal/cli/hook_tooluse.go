package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/critdev/crit/internal/hooks"
	"github.com/critdev/crit/pkg/models"
)

var hookToolUseCmd = &cobra.Command{
	Use:   "tool-use",
	Short: "Handle a tool-call hook event (non-blocking)",
	Long: `React to one tool call. Reads the event as JSON from stdin and routes
it through the task queue: TodoWrite events sync the todo list, file edits
are scanned for actionable markers, and web fetches for requirement content.

Never blocks the assistant: malformed input and processing failures exit
successfully with no output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return nil
		}

		event, err := hooks.ParseStdin[models.HookEvent](os.Stdin)
		if err != nil {
			return nil // Non-blocking, swallow malformed input.
		}

		res := Router.Handle(*event)
		if res.Feedback != "" {
			fmt.Println(res.Feedback)
		}

		// Persist any queue mutations before the process exits.
		if Store != nil {
			_ = Store.Flush()
		}
		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookToolUseCmd)
}
