// Package notifications delivers user-facing status messages and result
// attachments through the outbound messenger. Implementations are thin;
// throttling decisions stay with the callers that know the cadence.
package notifications
