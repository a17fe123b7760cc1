package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (add, list, show, update, done, delete, comment, stats)",
	Long: `Task queue management commands.

Add new tasks, list and inspect existing ones, change status and other
fields, record comments, and print aggregate statistics.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the queue",
	Long: `Add a task with the given title. Tasks listing unresolved dependencies
are created in the blocked status and unblock automatically when every
dependency completes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		descFlag, _ := cmd.Flags().GetString("description")
		priorityFlag, _ := cmd.Flags().GetString("priority")
		assigneeFlag, _ := cmd.Flags().GetString("assignee")
		tagsFlag, _ := cmd.Flags().GetStringSlice("tags")
		depsFlag, _ := cmd.Flags().GetStringSlice("depends-on")
		dueFlag, _ := cmd.Flags().GetString("due")
		hoursFlag, _ := cmd.Flags().GetFloat64("hours")
		parentFlag, _ := cmd.Flags().GetString("parent")

		draft := core.TaskDraft{
			Title:          strings.Join(args, " "),
			Description:    descFlag,
			Assignee:       assigneeFlag,
			Tags:           tagsFlag,
			Dependencies:   depsFlag,
			EstimatedHours: hoursFlag,
			Source:         models.SourceManual,
			Parent:         parentFlag,
		}
		if priorityFlag != "" {
			draft.Priority = models.Priority(priorityFlag)
			if !models.ValidPriorities[draft.Priority] {
				return fmt.Errorf("invalid priority %q: must be one of low, medium, high, critical", priorityFlag)
			}
		}
		if dueFlag != "" {
			due, err := time.Parse("2006-01-02", dueFlag)
			if err != nil {
				return fmt.Errorf("parsing --due: %w", err)
			}
			draft.DueDate = &due
		}

		task, err := Store.AddTask(draft)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		fmt.Printf("Added task %s\n", task.ID)
		fmt.Printf("  Title:    %s\n", task.Title)
		fmt.Printf("  Status:   %s\n", task.Status)
		fmt.Printf("  Priority: %s\n", task.Priority)
		if len(task.Dependencies) > 0 {
			fmt.Printf("  Depends:  %s\n", strings.Join(task.Dependencies, ", "))
		}
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, ordered by priority then recency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		statusFlag, _ := cmd.Flags().GetString("status")
		priorityFlag, _ := cmd.Flags().GetString("priority")
		assigneeFlag, _ := cmd.Flags().GetString("assignee")
		tagsFlag, _ := cmd.Flags().GetStringSlice("tags")
		pathFlag, _ := cmd.Flags().GetString("path")
		searchFlag, _ := cmd.Flags().GetString("search")

		filter := core.Filter{
			Assignee: assigneeFlag,
			Tags:     tagsFlag,
			Path:     pathFlag,
			Search:   searchFlag,
		}
		if statusFlag != "" {
			status := models.TaskStatus(statusFlag)
			if !models.ValidStatuses[status] {
				return fmt.Errorf("invalid status %q", statusFlag)
			}
			filter.Status = []models.TaskStatus{status}
		}
		if priorityFlag != "" {
			priority := models.Priority(priorityFlag)
			if !models.ValidPriorities[priority] {
				return fmt.Errorf("invalid priority %q", priorityFlag)
			}
			filter.Priority = []models.Priority{priority}
		}

		tasks := Store.ListTasks(filter)
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		for _, t := range tasks {
			fmt.Printf("%-36s  %-11s  %-8s  %s\n", t.ID, t.Status, t.Priority, t.Title)
		}
		fmt.Printf("\n%d task(s)\n", len(tasks))
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show full task details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		task, ok := Store.GetTask(args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}

		fmt.Printf("ID:       %s\n", task.ID)
		fmt.Printf("Title:    %s\n", task.Title)
		fmt.Printf("Status:   %s\n", task.Status)
		fmt.Printf("Priority: %s\n", task.Priority)
		if task.Assignee != "" {
			fmt.Printf("Assignee: %s\n", task.Assignee)
		}
		if len(task.Tags) > 0 {
			fmt.Printf("Tags:     %s\n", strings.Join(task.Tags, ", "))
		}
		if len(task.Dependencies) > 0 {
			fmt.Printf("Depends:  %s\n", strings.Join(task.Dependencies, ", "))
		}
		if task.DueDate != nil {
			fmt.Printf("Due:      %s\n", task.DueDate.Format("2006-01-02"))
		}
		if task.Source != "" {
			fmt.Printf("Source:   %s\n", task.Source)
		}
		fmt.Printf("Created:  %s\n", task.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Updated:  %s\n", task.UpdatedAt.Format(time.RFC3339))
		if task.CompletedAt != nil {
			fmt.Printf("Done:     %s\n", task.CompletedAt.Format(time.RFC3339))
		}
		if task.Description != "" {
			fmt.Printf("\n%s\n", task.Description)
		}
		if len(task.Subtasks) > 0 {
			fmt.Println("\nSubtasks:")
			for _, st := range task.Subtasks {
				fmt.Printf("  %-36s  %-11s  %s\n", st.ID, st.Status, st.Title)
			}
		}
		if len(task.Comments) > 0 {
			fmt.Println("\nComments:")
			for _, c := range task.Comments {
				fmt.Printf("  [%s] %s: %s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.Author, c.Content)
			}
		}
		if len(task.History) > 0 {
			fmt.Println("\nHistory:")
			for _, h := range task.History {
				from := string(h.From)
				if from == "" {
					from = "(new)"
				}
				fmt.Printf("  [%s] %s -> %s (%s: %s)\n", h.Timestamp.Format("2006-01-02 15:04"), from, h.To, h.Trigger, h.Reason)
			}
		}
		return nil
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update task fields",
	Long: `Update one or more fields of a task. Only the fields set by flags
change; everything else is preserved. Status changes are recorded in the
task's history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		patch := core.TaskPatch{
			Trigger: models.TriggerUser,
			Reason:  "cli update",
		}
		changed := false

		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			patch.Title = &v
			changed = true
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			patch.Description = &v
			changed = true
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			status := models.TaskStatus(v)
			patch.Status = &status
			changed = true
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetString("priority")
			priority := models.Priority(v)
			patch.Priority = &priority
			changed = true
		}
		if cmd.Flags().Changed("assignee") {
			v, _ := cmd.Flags().GetString("assignee")
			patch.Assignee = &v
			changed = true
		}

		if !changed {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}

		task, err := Store.UpdateTask(args[0], patch)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", args[0], err)
		}

		fmt.Printf("Updated task %s (%s, %s)\n", task.ID, task.Status, task.Priority)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Long: `Mark a task completed. Tasks blocked only on this one are moved back
to pending.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		status := models.StatusCompleted
		task, err := Store.UpdateTask(args[0], core.TaskPatch{
			Status:  &status,
			Trigger: models.TriggerUser,
			Reason:  "marked done",
		})
		if err != nil {
			return fmt.Errorf("completing task %s: %w", args[0], err)
		}

		fmt.Printf("Completed task %s: %s\n", task.ID, task.Title)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Long: `Delete a task from the queue. Deletion is refused while other
non-completed tasks still depend on it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		removed, err := Store.DeleteTask(args[0])
		if err != nil {
			return fmt.Errorf("deleting task %s: %w", args[0], err)
		}
		if !removed {
			fmt.Printf("Task %s not found; nothing deleted.\n", args[0])
			return nil
		}

		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

var taskCommentCmd = &cobra.Command{
	Use:   "comment <task-id> <text>",
	Short: "Add a comment to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		authorFlag, _ := cmd.Flags().GetString("author")
		if authorFlag == "" {
			authorFlag = "user"
		}

		comment, err := Store.AddComment(args[0], strings.Join(args[1:], " "), authorFlag)
		if err != nil {
			return fmt.Errorf("commenting on task %s: %w", args[0], err)
		}

		fmt.Printf("Added comment %s to task %s\n", comment.ID, args[0])
		return nil
	},
}

var taskStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate queue statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		stats := Store.Stats()
		fmt.Printf("Queue: %s\n", Store.QueueName())
		fmt.Printf("Total: %d\n\n", stats.Total)

		fmt.Println("By status:")
		for _, s := range []models.TaskStatus{
			models.StatusPending, models.StatusInProgress, models.StatusCompleted,
			models.StatusBlocked, models.StatusCancelled,
		} {
			if n := stats.ByStatus[s]; n > 0 {
				fmt.Printf("  %-12s %d\n", s, n)
			}
		}

		fmt.Println("\nBy priority:")
		for _, p := range []models.Priority{
			models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityLow,
		} {
			if n := stats.ByPriority[p]; n > 0 {
				fmt.Printf("  %-12s %d\n", p, n)
			}
		}

		if stats.MeanCompletion != nil {
			fmt.Printf("\nMean completion time: %s\n", stats.MeanCompletion.Round(time.Second))
		} else {
			fmt.Println("\nMean completion time: n/a (no completed tasks)")
		}
		return nil
	},
}

func init() {
	taskAddCmd.Flags().String("description", "", "longer task description")
	taskAddCmd.Flags().String("priority", "", "priority (low, medium, high, critical)")
	taskAddCmd.Flags().String("assignee", "", "assignee name")
	taskAddCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	taskAddCmd.Flags().StringSlice("depends-on", nil, "task IDs this task depends on")
	taskAddCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	taskAddCmd.Flags().Float64("hours", 0, "estimated hours")
	taskAddCmd.Flags().String("parent", "", "nest as a subtask of this task ID")

	taskListCmd.Flags().String("status", "", "filter by status")
	taskListCmd.Flags().String("priority", "", "filter by priority")
	taskListCmd.Flags().String("assignee", "", "filter by assignee")
	taskListCmd.Flags().StringSlice("tags", nil, "require all listed tags")
	taskListCmd.Flags().String("path", "", "restrict to the task at this ID path and its subtasks")
	taskListCmd.Flags().String("search", "", "title substring search")

	taskUpdateCmd.Flags().String("title", "", "new title")
	taskUpdateCmd.Flags().String("description", "", "new description")
	taskUpdateCmd.Flags().String("status", "", "new status")
	taskUpdateCmd.Flags().String("priority", "", "new priority")
	taskUpdateCmd.Flags().String("assignee", "", "new assignee")

	taskCommentCmd.Flags().String("author", "user", "comment author")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskCommentCmd)
	taskCmd.AddCommand(taskStatsCmd)
	rootCmd.AddCommand(taskCmd)
}
