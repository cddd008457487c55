// Package pipeline drives a submitted video through download, audio
// extraction, chunked transcription, and delivery. One executor run owns one
// job; the queue manager's wait gate ensures only one run is active across
// the whole system. Failures retry on a fixed delay and stay invisible to the
// submitter until the budget is exhausted.
package pipeline
