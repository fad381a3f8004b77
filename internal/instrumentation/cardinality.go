package instrumentation

import "strings"

// Cardinality helpers. Every label value recorded on a metric must come from a
// bounded set; user identifiers and raw URLs never do.

// ExtractUserDomain extracts the domain part from an email address.
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// RouteLabel turns a ServeMux pattern such as "GET /api/tasks/{id}" into the
// path label "/api/tasks/{id}". Requests that matched no route share the
// label "unmatched".
func RouteLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	// Host-qualified patterns are not used; keep only the path.
	if i := strings.IndexByte(pattern, '/'); i > 0 {
		pattern = pattern[i:]
	}
	return pattern
}
