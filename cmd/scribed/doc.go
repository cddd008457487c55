// Command scribed runs the transcription daemon: the Telegram gateway, the
// dispatcher, and the pipeline workers in one process.
package main
