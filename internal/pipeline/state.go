package pipeline

// State represents the lifecycle of one job's pipeline run. It is owned
// exclusively by the executor driving that job and never shared.
type State string

const (
	StateQueued       State = "queued"
	StateDownloading  State = "downloading"
	StateExtracting   State = "extracting"
	StateSplitting    State = "splitting"
	StateTranscribing State = "transcribing"
	StateFinalizing   State = "finalizing"
	StateDelivered    State = "delivered"
	StateFailed       State = "failed"
)

// Checkpoint returns the fixed progress percentage emitted when the pipeline
// enters the state. These are schedule markers, not measured completion
// fractions; transcription advances from its checkpoint up to 80.
func (s State) Checkpoint() int {
	switch s {
	case StateDownloading:
		return 0
	case StateExtracting:
		return 25
	case StateSplitting:
		return 40
	case StateTranscribing:
		return 45
	case StateFinalizing:
		return 85
	case StateDelivered:
		return 100
	default:
		return 0
	}
}

// Label returns the user-facing stage description.
func (s State) Label() string {
	switch s {
	case StateQueued:
		return "waiting in queue"
	case StateDownloading:
		return "downloading video"
	case StateExtracting:
		return "extracting audio"
	case StateSplitting:
		return "splitting audio"
	case StateTranscribing:
		return "transcribing"
	case StateFinalizing:
		return "preparing results"
	case StateDelivered:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return string(s)
	}
}

// transcribeCheckpoint maps chunk completion onto the 45-80 range:
// min(80, 45 + floor(35*done/total)).
func transcribeCheckpoint(done, total int) int {
	if total <= 0 {
		return 80
	}
	percent := 45 + (35*done)/total
	if percent > 80 {
		percent = 80
	}
	return percent
}
