// Package telegram is a thin Telegram Bot API client: update polling for the
// gateway, message and document delivery for the notifier, and file downloads
// for the pipeline's source-acquisition stage.
package telegram
