// Package googletasks imports tasks from Google Tasks into taskcal.
//
// Client wraps the Google Tasks API (tasks/v1) with read-only listing of task
// lists and tasks. Import maps every Google task onto a taskcal task:
//   - status "needsAction" becomes pending, "completed" becomes done
//   - the RFC 3339 due timestamp becomes a YYYY-MM-DD due date
//   - notes become the description
//
// Deleted and untitled tasks are skipped.
package googletasks
