// Package notifications_tools provides MCP tools for the caller's
// notifications: task created, completed, due soon and overdue messages.
package notifications_tools
