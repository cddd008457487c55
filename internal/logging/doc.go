// Package logging provides the slog construction and attribute helpers used
// across scribe. Console output goes through tint, file and machine output
// through the JSON handler; job, stage, and attempt metadata travel on the
// context and are attached via WithContext.
package logging
