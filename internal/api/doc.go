// Package api implements the taskcal REST API on a net/http ServeMux.
//
// Request bodies are checked against embedded JSON Schemas before they are
// decoded. Errors are returned as
//
//	{"error": "not_found", "message": "task not found"}
//
// with the codes listed as Code* constants. GET /api/tasks returns the
// owner's task list as a plain JSON array, the form the calendar client
// consumes.
package api
