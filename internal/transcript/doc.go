// Package transcript merges per-chunk recognition results into a single
// time-offset transcript and renders the plain-text and SRT output formats.
package transcript
