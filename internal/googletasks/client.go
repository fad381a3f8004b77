package googletasks

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"
)

// pageSize is the largest page the Tasks API serves.
const pageSize = 100

// Client wraps the Google Tasks service
type Client struct {
	svc *gtasks.Service
}

// NewClient creates a Tasks client. Pass option.WithHTTPClient with an
// OAuth2 client from the google package.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gtasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListTaskLists lists all task lists for the authenticated user
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	var lists []TaskList
	err := c.svc.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(page *gtasks.TaskLists) error {
		for _, tl := range page.Items {
			lists = append(lists, toTaskList(tl))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}
	return lists, nil
}

// ListTasks lists the tasks of a task list. Completed tasks are included
// when includeCompleted is set.
func (c *Client) ListTasks(ctx context.Context, taskListID string, includeCompleted bool) ([]Task, error) {
	call := c.svc.Tasks.List(taskListID).MaxResults(pageSize).ShowCompleted(includeCompleted)
	if includeCompleted {
		// Completed tasks are hidden once cleared in the Google UI.
		call = call.ShowHidden(true)
	}

	var list []Task
	err := call.Pages(ctx, func(page *gtasks.Tasks) error {
		for _, t := range page.Items {
			list = append(list, toTask(t))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of %s: %w", taskListID, err)
	}
	return list, nil
}
