// Package dispatch moves accepted jobs from the gateway to pipeline workers.
// The local mode keeps everything in one process over a channel; the amqp
// mode routes through a durable broker queue for split deployments. Ordering
// and one-at-a-time execution are not this package's job: the queue manager's
// wait gate enforces both regardless of how jobs arrive.
package dispatch
