// Package resources provides MCP resources: read-only documents a client
// can fetch without calling a tool. Every resource is scoped to the calling
// user.
//
//   - user://profile: the current user
//   - taskcal://calendar/{month}: the day buckets of a month (YYYY-MM)
package resources
