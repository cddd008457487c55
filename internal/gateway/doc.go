// Package gateway is the Telegram-facing edge of scribe. It validates
// inbound uploads and converts them into queued jobs; everything after
// intake belongs to the queue manager and the pipeline executor.
package gateway
