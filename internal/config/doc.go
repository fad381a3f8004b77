// Package config loads taskcal settings.
//
// Values are layered, later layers overriding earlier ones:
//
//  1. built-in defaults
//  2. an optional YAML file (--config)
//  3. a .env file and the process environment (TASKCAL_*, plus the shared
//     METRICS_*, TLS_* and GOOGLE_* variables)
//  4. command line flags, applied by the cmd package
//
// Validate checks the merged result.
package config
