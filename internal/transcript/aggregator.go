package transcript

import "strings"

// Aggregator merges per-chunk recognition output into one transcript
// expressed in the original recording's timeline. Chunks must be added in
// order; the running offset is the exact cumulative duration of all prior
// chunks, so segment times never drift or double-count.
type Aggregator struct {
	segments []Segment
	offset   float64
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddChunk appends one chunk's segments, shifted by the accumulated offset,
// then advances the offset by the chunk's duration in seconds.
func (a *Aggregator) AddChunk(segments []Segment, chunkDuration float64) {
	for _, segment := range segments {
		a.segments = append(a.segments, Segment{
			Start: segment.Start + a.offset,
			End:   segment.End + a.offset,
			Text:  strings.TrimSpace(segment.Text),
		})
	}
	a.offset += chunkDuration
}

// Segments returns the merged segment list in order.
func (a *Aggregator) Segments() []Segment {
	cp := make([]Segment, len(a.segments))
	copy(cp, a.segments)
	return cp
}

// Offset returns the accumulated duration of all added chunks.
func (a *Aggregator) Offset() float64 {
	return a.offset
}
