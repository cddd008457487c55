// Package queue implements the shared job queue: a durable ordered list of
// job ids plus per-job metadata, visible to every worker process.
//
// Two store backends satisfy the same contract. The SQLite backend keeps the
// queue in a WAL-mode database file for single-host deployments; the Redis
// backend keeps it in a list plus per-job hashes for multi-host ones. The
// Manager layers queue semantics on top: submission-order enqueue, idempotent
// removal, self-healing position lookup, and the blocking wait-for-turn gate
// that serializes pipeline execution system-wide.
//
// Position lookup is O(n) per poll, which is fine for the short queues this
// system sees; an index-assisted store would be needed at larger scale.
package queue
