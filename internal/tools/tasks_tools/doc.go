// Package tasks_tools provides MCP tools for managing the caller's tasks.
//
// # Available Tools
//
// Read:
//   - tasks_list: List tasks, optionally filtered by status and due range
//   - tasks_get: Get one or more tasks by ID
//
// Write (hidden in read-only mode):
//   - tasks_create: Create a task
//   - tasks_update: Change fields of a task
//   - tasks_complete: Mark one or more tasks as done
//   - tasks_delete: Delete one or more tasks
//
// # Identity
//
// Tools act for the authenticated user of the HTTP transport. Over stdio
// they act for the user passed with --user.
package tasks_tools
