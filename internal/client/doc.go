// Package client is a small HTTP client for the taskcal REST API. It is used
// by the calendar command and satisfies calendar.Fetcher so a calendar.View
// can load the task list from a running server.
package client
