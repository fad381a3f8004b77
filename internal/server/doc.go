// Package server hosts the taskcal HTTP listeners and the state shared by
// the REST API and the MCP tools.
//
// # Key Components
//
// ServerContext bundles the auth, task and notification services with the
// logger, metrics recorder and read-only flag. MCP tools reach the services
// through it; PrincipalFromContext resolves the acting user from a bearer
// token or, on stdio, from the configured default user.
//
// APIServer serves the REST API, the health probes and optionally MCP over
// streamable HTTP on one listener. Every request passes through:
//   - security headers (HSTS only when TLS is enabled)
//   - a server span and request metrics labelled by route pattern
//   - per-IP token bucket rate limiting
//
// MetricsServer exposes Prometheus metrics on a separate port.
//
// HealthChecker implements /healthz, /readyz and /healthz/detailed. Readiness
// runs registered dependency checks such as a database ping.
package server
