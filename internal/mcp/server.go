// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task queue as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/pkg/models"
)

// Server wraps the task store and exposes it as MCP tools.
type Server struct {
	server *gomcp.Server
	store  core.Store
}

// NewServer creates an MCP server over the given store.
func NewServer(store core.Store, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{store: store}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "crit", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type addTaskInput struct {
	Title        string   `json:"title" jsonschema:"required,short task title"`
	Description  string   `json:"description,omitempty" jsonschema:"longer free-form description"`
	Priority     string   `json:"priority,omitempty" jsonschema:"low, medium, high, or critical (default medium)"`
	Assignee     string   `json:"assignee,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" jsonschema:"task IDs that must complete first"`
	Parent       string   `json:"parent,omitempty" jsonschema:"nest as a subtask of this task ID"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier"`
}

type taskOutput struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status"`
	Priority     string   `json:"priority"`
	Assignee     string   `json:"assignee,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Source       string   `json:"source,omitempty"`
	Created      string   `json:"created"`
	Updated      string   `json:"updated"`
	Completed    string   `json:"completed,omitempty"`
}

type listTasksInput struct {
	Status   string `json:"status,omitempty" jsonschema:"filter by status (pending, in_progress, completed, blocked, cancelled)"`
	Priority string `json:"priority,omitempty" jsonschema:"filter by priority (low, medium, high, critical)"`
	Path     string `json:"path,omitempty" jsonschema:"restrict to the task at this slash-joined ID path and its subtasks"`
	Search   string `json:"search,omitempty" jsonschema:"case-insensitive substring match on the title"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier"`
	Status string `json:"status" jsonschema:"required,the new status (pending, in_progress, completed, blocked, cancelled)"`
}

type updateTaskStatusOutput struct {
	Message string `json:"message"`
}

type queueStatsInput struct{}

type queueStatsOutput struct {
	Queue              string         `json:"queue"`
	Total              int            `json:"total"`
	ByStatus           map[string]int `json:"by_status"`
	ByPriority         map[string]int `json:"by_priority"`
	MeanCompletionSecs *float64       `json:"mean_completion_secs,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task to the queue. Tasks with unresolved dependencies start blocked.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID, including status, priority, and dependencies.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with optional status, priority, and title-search filters, ordered by priority then recency.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Update a task's lifecycle status. Completing a task unblocks tasks that depended on it.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "queue_stats",
		Description: "Get aggregate queue statistics: totals by status and priority, and mean completion time.",
	}, s.handleQueueStats)
}

// --- Tool handlers ---

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), taskOutput{}, nil
	}

	draft := core.TaskDraft{
		Title:        input.Title,
		Description:  input.Description,
		Assignee:     input.Assignee,
		Tags:         input.Tags,
		Dependencies: input.Dependencies,
		Source:       models.SourceAPI,
		Parent:       input.Parent,
	}
	if input.Priority != "" {
		p := models.Priority(input.Priority)
		if !models.ValidPriorities[p] {
			return errorResult(fmt.Sprintf("invalid priority %q: must be one of low, medium, high, critical", input.Priority)), taskOutput{}, nil
		}
		draft.Priority = p
	}

	task, err := s.store.AddTask(draft)
	if err != nil {
		return errorResult(fmt.Sprintf("adding task: %s", err)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, ok := s.store.GetTask(input.TaskID)
	if !ok {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	filter := core.Filter{Path: input.Path, Search: input.Search}
	if input.Status != "" {
		status := models.TaskStatus(input.Status)
		if !models.ValidStatuses[status] {
			return errorResult(fmt.Sprintf("invalid status %q", input.Status)), listTasksOutput{}, nil
		}
		filter.Status = []models.TaskStatus{status}
	}
	if input.Priority != "" {
		priority := models.Priority(input.Priority)
		if !models.ValidPriorities[priority] {
			return errorResult(fmt.Sprintf("invalid priority %q", input.Priority)), listTasksOutput{}, nil
		}
		filter.Priority = []models.Priority{priority}
	}

	tasks := s.store.ListTasks(filter)
	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), updateTaskStatusOutput{}, nil
	}

	status := models.TaskStatus(input.Status)
	if !models.ValidStatuses[status] {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of pending, in_progress, completed, blocked, cancelled", input.Status)), updateTaskStatusOutput{}, nil
	}

	patch := core.TaskPatch{
		Status:  &status,
		Trigger: models.TriggerHook,
		Reason:  "mcp update",
	}
	if _, err := s.store.UpdateTask(input.TaskID, patch); err != nil {
		return errorResult(fmt.Sprintf("updating task %s status: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}

	out := updateTaskStatusOutput{
		Message: fmt.Sprintf("task %s status updated to %s", input.TaskID, input.Status),
	}
	return nil, out, nil
}

func (s *Server) handleQueueStats(_ context.Context, _ *gomcp.CallToolRequest, _ queueStatsInput) (*gomcp.CallToolResult, queueStatsOutput, error) {
	stats := s.store.Stats()

	out := queueStatsOutput{
		Queue:      s.store.QueueName(),
		Total:      stats.Total,
		ByStatus:   make(map[string]int, len(stats.ByStatus)),
		ByPriority: make(map[string]int, len(stats.ByPriority)),
	}
	for status, n := range stats.ByStatus {
		out.ByStatus[string(status)] = n
	}
	for priority, n := range stats.ByPriority {
		out.ByPriority[string(priority)] = n
	}
	if stats.MeanCompletion != nil {
		secs := stats.MeanCompletion.Seconds()
		out.MeanCompletionSecs = &secs
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		Assignee:     t.Assignee,
		Tags:         t.Tags,
		Dependencies: t.Dependencies,
		Source:       string(t.Source),
		Created:      t.CreatedAt.Format(time.RFC3339),
		Updated:      t.UpdatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		out.Completed = t.CompletedAt.Format(time.RFC3339)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
