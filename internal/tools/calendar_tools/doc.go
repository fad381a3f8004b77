// Package calendar_tools provides the calendar_month MCP tool, which bins
// the caller's tasks into the days of a month.
package calendar_tools
