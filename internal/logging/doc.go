// Package logging provides structured logging utilities for taskcal.
//
// All logging goes through the standard library's slog package. This package
// holds the process-wide setup, the canonical attribute keys and a few
// helpers that keep personal data out of the logs.
//
// # Usage Patterns
//
// Configure the default logger once at startup:
//
//	logger, err := logging.Setup(os.Stderr, "info", "json")
//
// Scope a logger to a component and add standard attributes:
//
//	logger := logging.WithComponent(slog.Default(), "store")
//	logger.Info("task created", logging.TaskID(task.ID), logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("login", logging.UserHash(email))
//
// # Security Considerations
//
//   - User emails are hashed so entries can be correlated without exposing PII
//   - Bearer tokens are never logged, only their length
package logging
