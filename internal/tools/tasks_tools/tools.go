package tasks_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tasks"
	"github.com/teemow/taskcal/internal/tools/batch"
	"github.com/teemow/taskcal/internal/tools/common"
)

// RegisterTasksTools registers the task tools with the MCP server. Write
// tools are skipped when the server context is read-only.
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("tasks_list",
		mcp.WithDescription("List your tasks, ordered by due date. Undated tasks come last."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status"),
			mcp.Enum(string(tasks.StatusPending), string(tasks.StatusDone)),
		),
		mcp.WithString("dueFrom",
			mcp.Description("Earliest due date, inclusive (YYYY-MM-DD)"),
		),
		mcp.WithString("dueTo",
			mcp.Description("Latest due date, inclusive (YYYY-MM-DD)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of tasks to return"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("tasks_list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleList(ctx, sc, request.GetArguments())
	}))

	getTool := mcp.NewTool("tasks_get",
		mcp.WithDescription("Get details of one or more tasks"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to retrieve"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandler("tasks_get", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleBatch(ctx, sc, request.GetArguments(), func(ctx context.Context, ownerID, id string) (any, error) {
			return sc.Tasks().Get(ctx, ownerID, id)
		})
	}))

	if sc.ReadOnly() {
		return nil
	}

	createTool := mcp.NewTool("tasks_create",
		mcp.WithDescription("Create a task. It shows up on the calendar on its due date."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer description of the task"),
		),
		mcp.WithString("due",
			mcp.Description("Due date (YYYY-MM-DD); omit for an undated task"),
		),
	)
	s.AddTool(createTool, common.InstrumentedToolHandler("tasks_create", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreate(ctx, sc, request.GetArguments())
	}))

	updateTool := mcp.NewTool("tasks_update",
		mcp.WithDescription("Update fields of a task. Omitted fields are left unchanged; an empty due clears the due date."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The ID of the task"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("due",
			mcp.Description("New due date (YYYY-MM-DD), or empty to clear it"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(string(tasks.StatusPending), string(tasks.StatusDone)),
		),
	)
	s.AddTool(updateTool, common.InstrumentedToolHandler("tasks_update", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdate(ctx, sc, request.GetArguments())
	}))

	completeTool := mcp.NewTool("tasks_complete",
		mcp.WithDescription("Mark one or more tasks as done"),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to complete"),
		),
	)
	s.AddTool(completeTool, common.InstrumentedToolHandler("tasks_complete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleBatch(ctx, sc, request.GetArguments(), func(ctx context.Context, ownerID, id string) (any, error) {
			return sc.Tasks().Complete(ctx, ownerID, id)
		})
	}))

	deleteTool := mcp.NewTool("tasks_delete",
		mcp.WithDescription("Delete one or more tasks permanently"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to delete"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("tasks_delete", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleBatch(ctx, sc, request.GetArguments(), func(ctx context.Context, ownerID, id string) (any, error) {
			if err := sc.Tasks().Delete(ctx, ownerID, id); err != nil {
				return nil, err
			}
			return "deleted", nil
		})
	}))

	return nil
}

func handleList(ctx context.Context, sc *server.ServerContext, args map[string]any) (*mcp.CallToolResult, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return common.ErrorResult(err)
	}

	var filter tasks.Filter
	status, _, err := common.StringArg(args, "status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter.Status = tasks.Status(status)
	if filter.DueFrom, _, err = common.StringArg(args, "dueFrom"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter.DueTo, _, err = common.StringArg(args, "dueTo"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter.Limit, err = common.IntArg(args, "limit", 0); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	list, err := sc.Tasks().List(ctx, p.UserID, filter)
	if err != nil {
		return common.ErrorResult(err)
	}
	if list == nil {
		list = []tasks.Task{}
	}
	return common.JSONResult(list)
}

func handleCreate(ctx context.Context, sc *server.ServerContext, args map[string]any) (*mcp.CallToolResult, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return common.ErrorResult(err)
	}

	var in tasks.Input
	if in.Title, err = common.RequiredString(args, "title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Description, _, err = common.StringArg(args, "description"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Due, _, err = common.StringArg(args, "due"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Tasks().Create(ctx, p.UserID, in)
	if err != nil {
		return common.ErrorResult(err)
	}
	return common.JSONResult(task)
}

func handleUpdate(ctx context.Context, sc *server.ServerContext, args map[string]any) (*mcp.CallToolResult, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return common.ErrorResult(err)
	}

	id, err := common.RequiredString(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var patch tasks.Patch
	for name, dst := range map[string]**string{
		"title":       &patch.Title,
		"description": &patch.Description,
		"due":         &patch.Due,
	} {
		v, present, err := common.StringArg(args, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if present {
			*dst = &v
		}
	}
	status, present, err := common.StringArg(args, "status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if present {
		st := tasks.Status(status)
		patch.Status = &st
	}

	task, err := sc.Tasks().Update(ctx, p.UserID, id, patch)
	if err != nil {
		return common.ErrorResult(err)
	}
	return common.JSONResult(task)
}

// handleBatch applies fn to every ID in taskIds. Per-task failures are
// reported in the result, not as a tool error.
func handleBatch(ctx context.Context, sc *server.ServerContext, args map[string]any, fn func(ctx context.Context, ownerID, id string) (any, error)) (*mcp.CallToolResult, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return common.ErrorResult(err)
	}

	ids, err := batch.ParseStringOrArray(args["taskIds"], "taskIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (any, error) {
		return fn(ctx, p.UserID, id)
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
