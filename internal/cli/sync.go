package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the queue with the external todo files",
	Long: `Synchronize the task queue with the assistant's todo files: every task
is exported wholesale, and externally added items not yet in the queue are
imported. Import never overwrites queue-side edits.`,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single sync cycle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Bridge == nil {
			return fmt.Errorf("sync bridge not initialized")
		}

		res := Bridge.RunOnce()
		fmt.Printf("Sync complete: %d exported, %d imported\n", res.Exported, res.Imported)
		for _, err := range res.Errors {
			fmt.Fprintf(os.Stderr, "sync warning: %v\n", err)
		}
		if Store != nil {
			_ = Store.Flush()
		}
		return nil
	},
}

var syncStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run sync cycles on an interval until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Bridge == nil {
			return fmt.Errorf("sync bridge not initialized")
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		fmt.Println("Sync bridge running (ctrl+c to stop)")
		Bridge.Start(ctx)

		if Store != nil {
			_ = Store.Flush()
		}
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncStartCmd)
	rootCmd.AddCommand(syncCmd)
}
