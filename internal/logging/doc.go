// Package logging provides slog construction and the standardized structured
// field vocabulary shared across Veracity components.
package logging
