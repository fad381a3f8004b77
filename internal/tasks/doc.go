// Package tasks holds the task domain: the Task record, input validation and
// the Service that implements create, read, update, complete and delete on
// top of a Repository.
//
// Every operation is scoped to an owner. The Service never exposes another
// owner's task; such lookups fail with ErrNotFound exactly like a missing
// task. Validation failures wrap ErrInvalid:
//
//	task, err := svc.Create(ctx, userID, tasks.Input{Title: "File taxes", Due: "2025-04-15"})
//	if errors.Is(err, tasks.ErrInvalid) {
//	    // reject the request
//	}
//
// Service.Month bins the owner's tasks into a calendar month using the
// calendar package.
package tasks
