package queue

import "time"

// Job is one submitter's video-to-transcript request. Its identity never
// changes after enqueue; the queue entry and metadata are destroyed together
// when the pipeline reaches a terminal state.
type Job struct {
	ID          string    `json:"id"`
	SubmitterID int64     `json:"submitter_id"`
	FileID      string    `json:"file_id"`
	Filename    string    `json:"filename,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Metadata is the per-job record stored alongside the queue entry. Its
// lifetime exactly matches the job's presence in the entry list.
type Metadata struct {
	SubmitterID int64
	FileID      string
	Filename    string
	EnqueuedAt  time.Time
}

// Entry pairs a queued job id with its metadata for presentation.
type Entry struct {
	Position int
	JobID    string
	Meta     Metadata
	MetaOK   bool
}
