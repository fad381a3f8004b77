package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tools/common"
)

// URIs of the registered resources.
const (
	ProfileURI          = "user://profile"
	CalendarURIPrefix   = "taskcal://calendar/"
	CalendarURITemplate = CalendarURIPrefix + "{month}"
)

const mimeJSON = "application/json"

// RegisterResources registers the user profile resource and the calendar
// month template.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("The user the server acts for"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProfile(ctx, request, sc)
	})

	calendarTemplate := mcp.NewResourceTemplate(
		CalendarURITemplate,
		"Calendar Month",
		mcp.WithTemplateDescription("Tasks due in a month (YYYY-MM), grouped by day"),
		mcp.WithTemplateMIMEType(mimeJSON),
	)
	s.AddResourceTemplate(calendarTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendar(ctx, request, sc)
	})

	return nil
}

func handleProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return nil, err
	}
	user, err := sc.Auth().User(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"createdAt": user.CreatedAt,
		"readOnly":  sc.ReadOnly(),
	})
}

func handleCalendar(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	p, err := common.Principal(ctx, sc)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimPrefix(request.Params.URI, CalendarURIPrefix)
	month, err := calendar.ParseMonth(raw)
	if err != nil {
		return nil, err
	}

	days, stats, err := sc.Tasks().Month(ctx, p.UserID, month)
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, map[string]any{
		"month":       month.String(),
		"days":        days,
		"unscheduled": stats.Unscheduled(),
		"stats":       stats,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(jsonData),
		},
	}, nil
}
