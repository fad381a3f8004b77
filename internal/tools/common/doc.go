// Package common provides helpers shared by the MCP tool packages: the
// instrumentation wrapper every handler is registered through, caller
// resolution, argument parsing and result rendering.
package common
