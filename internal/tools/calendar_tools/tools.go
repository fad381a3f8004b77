package calendar_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tasks"
	"github.com/teemow/taskcal/internal/tools/common"
	"github.com/teemow/taskcal/internal/ui"
)

// Output formats of calendar_month.
const (
	FormatJSON = "json"
	FormatGrid = "grid"
)

// MonthResult is the JSON form of calendar_month. Days without tasks are
// omitted unless includeEmpty is set.
type MonthResult struct {
	Month       string                           `json:"month"`
	Days        []calendar.DayBucket[tasks.Task] `json:"days"`
	Unscheduled int                              `json:"unscheduled"`
	Stats       calendar.Stats                   `json:"stats"`
}

// RegisterCalendarTools registers calendar_month. now picks the default
// month; nil means time.Now.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}

	monthTool := mcp.NewTool("calendar_month",
		mcp.WithDescription("Show the tasks due in a month, grouped by day. Tasks without a valid due date are counted as unscheduled."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("month",
			mcp.Description("Month to show (YYYY-MM); defaults to the current month"),
		),
		mcp.WithString("format",
			mcp.Description("json for structured day buckets, grid for a printable month view"),
			mcp.Enum(FormatJSON, FormatGrid),
		),
		mcp.WithBoolean("includeEmpty",
			mcp.Description("Include days without tasks in json output"),
		),
	)

	s.AddTool(monthTool, common.InstrumentedToolHandler("calendar_month", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleMonth(ctx, sc, now(), request.GetArguments())
	}))
	return nil
}

func handleMonth(ctx context.Context, sc *server.ServerContext, now time.Time, args map[string]any) (*mcp.CallToolResult, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return common.ErrorResult(err)
	}

	month := calendar.MonthOf(now)
	raw, present, err := common.StringArg(args, "month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if present && raw != "" {
		if month, err = calendar.ParseMonth(raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	format, _, err := common.StringArg(args, "format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	includeEmpty, err := common.BoolArg(args, "includeEmpty", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	days, stats, err := sc.Tasks().Month(ctx, p.UserID, month)
	if err != nil {
		return common.ErrorResult(err)
	}

	switch format {
	case "", FormatJSON:
		if !includeEmpty {
			days = nonEmpty(days)
		}
		return common.JSONResult(MonthResult{
			Month:       month.String(),
			Days:        days,
			Unscheduled: stats.Unscheduled(),
			Stats:       stats,
		})
	case FormatGrid:
		return mcp.NewToolResultText(ui.RenderMonth(month, days, ui.RenderOptions{
			Today:       now,
			Unscheduled: stats.Unscheduled(),
		})), nil
	default:
		return mcp.NewToolResultError("format must be json or grid"), nil
	}
}

func nonEmpty(days []calendar.DayBucket[tasks.Task]) []calendar.DayBucket[tasks.Task] {
	out := make([]calendar.DayBucket[tasks.Task], 0, len(days))
	for _, d := range days {
		if len(d.Tasks) > 0 {
			out = append(out, d)
		}
	}
	return out
}
