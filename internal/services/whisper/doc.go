// Package whisper adapts the external speech-recognition engine. Each chunk
// is transcribed by one CLI invocation whose JSON output is parsed into
// chunk-relative segments.
package whisper
