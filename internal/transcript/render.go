package transcript

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// RenderText renders one line per segment: "[HH:MM:SS - HH:MM:SS] text".
// Hour, minute, and second components are computed by truncating the
// floating-point seconds, not rounding.
func RenderText(segments []Segment) string {
	var builder strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&builder, "[%s - %s] %s\n",
			formatTimestamp(segment.Start),
			formatTimestamp(segment.End),
			segment.Text,
		)
	}
	return builder.String()
}

// RenderSRT renders sequential 1-based cue blocks separated by blank lines.
// Millisecond values are obtained by rounding.
func RenderSRT(segments []Segment) string {
	var builder strings.Builder
	for i, segment := range segments {
		fmt.Fprintf(&builder, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatSRTTimestamp(segment.Start),
			formatSRTTimestamp(segment.End),
			segment.Text,
		)
	}
	return builder.String()
}

// WriteText writes the plain-text rendering to path.
func WriteText(segments []Segment, path string) error {
	return os.WriteFile(path, []byte(RenderText(segments)), 0o644)
}

// WriteSRT writes the subtitle rendering to path.
func WriteSRT(segments []Segment, path string) error {
	return os.WriteFile(path, []byte(RenderSRT(segments)), 0o644)
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

func formatSRTTimestamp(seconds float64) string {
	millis := int(math.Round(seconds * 1000))
	hours := millis / 3_600_000
	millis %= 3_600_000
	minutes := millis / 60_000
	millis %= 60_000
	secs := millis / 1000
	millis %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
