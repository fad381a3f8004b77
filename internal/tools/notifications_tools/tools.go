package notifications_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tools/batch"
	"github.com/teemow/taskcal/internal/tools/common"
)

// RegisterNotificationsTools registers notifications_list and, unless the
// server is read-only, notifications_mark_read.
func RegisterNotificationsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("notifications_list",
		mcp.WithDescription("List your most recent notifications, newest first"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithBoolean("unreadOnly",
			mcp.Description("Only unread notifications (default: true)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("notifications_list", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := common.Principal(ctx, sc)
		if err != nil {
			return common.ErrorResult(err)
		}
		unreadOnly, err := common.BoolArg(request.GetArguments(), "unreadOnly", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		list, err := sc.Notify().List(ctx, p.UserID, unreadOnly)
		if err != nil {
			return common.ErrorResult(err)
		}
		if list == nil {
			list = []notify.Notification{}
		}
		return common.JSONResult(list)
	}))

	if sc.ReadOnly() {
		return nil
	}

	markTool := mcp.NewTool("notifications_mark_read",
		mcp.WithDescription("Mark notifications as read. Pass all=true to mark every notification."),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("ids",
			mcp.Description("Notification ID (string) or array of IDs"),
		),
		mcp.WithBoolean("all",
			mcp.Description("Mark all notifications as read"),
		),
	)
	s.AddTool(markTool, common.InstrumentedToolHandler("notifications_mark_read", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := common.Principal(ctx, sc)
		if err != nil {
			return common.ErrorResult(err)
		}
		args := request.GetArguments()
		all, err := common.BoolArg(args, "all", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if all {
			n, err := sc.Notify().MarkAllRead(ctx, p.UserID)
			if err != nil {
				return common.ErrorResult(err)
			}
			return common.JSONResult(map[string]int64{"marked": n})
		}

		ids, err := batch.ParseStringOrArray(args["ids"], "ids")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (any, error) {
			if err := sc.Notify().MarkRead(ctx, p.UserID, id); err != nil {
				return nil, err
			}
			return "read", nil
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}))

	return nil
}
