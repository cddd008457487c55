// Package config loads and validates the scribe runtime configuration.
//
// Configuration is assembled once at process start from a TOML file merged
// over defaults, with environment overrides for secrets. The resulting Config
// is treated as immutable and passed into every component; nothing else in
// the repository reads environment state directly.
package config
