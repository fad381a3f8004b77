// Package cmd implements the command-line interface for taskcal.
//
// This package provides the following commands:
//   - serve: Run the REST API, optionally with MCP over HTTP, plus metrics and reminders
//   - mcp: Serve the MCP tools over stdio for one user
//   - calendar: Show a month of tasks from a running server
//   - cleanup: Delete old completed tasks
//   - google-auth: Authorize read access to Google Tasks
//   - import-google: Import Google Tasks for a user
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
