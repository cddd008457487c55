package transcript

// Segment is a timestamped text span. Start and end are floating-point
// seconds in the full-recording timeline once the segment has passed through
// the Aggregator; before that they are relative to a single chunk.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
