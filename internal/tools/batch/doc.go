// Package batch holds helpers for tools that act on several tasks at once.
//
// A batch parameter accepts either a single ID or an array of IDs. Each ID
// is processed independently; one failure does not stop the others, and the
// aggregated result reports successes and failures side by side.
package batch
