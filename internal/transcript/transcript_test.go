package transcript_test

import (
	"testing"

	"scribe/internal/transcript"
)

func TestAggregatorOffsetsChunks(t *testing.T) {
	agg := transcript.NewAggregator()
	agg.AddChunk([]transcript.Segment{{Start: 0, End: 2, Text: "a"}}, 300)
	agg.AddChunk([]transcript.Segment{{Start: 1, End: 3, Text: "b"}}, 300)

	segments := agg.Segments()
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Start != 0 || segments[0].End != 2 || segments[0].Text != "a" {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Start != 301 || segments[1].End != 303 || segments[1].Text != "b" {
		t.Fatalf("unexpected second segment: %+v", segments[1])
	}
}

func TestAggregatorUsesExactChunkDurations(t *testing.T) {
	agg := transcript.NewAggregator()
	agg.AddChunk(nil, 299.52)
	agg.AddChunk([]transcript.Segment{{Start: 0.5, End: 1.5, Text: "late"}}, 120)

	segments := agg.Segments()
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Start != 300.02 {
		t.Fatalf("expected start 300.02, got %v", segments[0].Start)
	}
}

func TestAggregatorTrimsText(t *testing.T) {
	agg := transcript.NewAggregator()
	agg.AddChunk([]transcript.Segment{{Start: 0, End: 1, Text: "  padded  "}}, 10)
	if got := agg.Segments()[0].Text; got != "padded" {
		t.Fatalf("expected trimmed text, got %q", got)
	}
}

func TestRenderText(t *testing.T) {
	got := transcript.RenderText([]transcript.Segment{{Start: 65.9, End: 70.0, Text: "hi"}})
	want := "[00:01:05 - 00:01:10] hi\n"
	if got != want {
		t.Fatalf("RenderText = %q, want %q", got, want)
	}
}

func TestRenderSRT(t *testing.T) {
	got := transcript.RenderSRT([]transcript.Segment{{Start: 65.9, End: 70.0, Text: "hi"}})
	want := "1\n00:01:05,900 --> 00:01:10,000\nhi\n\n"
	if got != want {
		t.Fatalf("RenderSRT = %q, want %q", got, want)
	}
}

func TestRenderSRTSequentialCues(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 1.25, Text: "first"},
		{Start: 3601.0044, End: 3602, Text: "second"},
	}
	got := transcript.RenderSRT(segments)
	want := "1\n00:00:00,000 --> 00:00:01,250\nfirst\n\n" +
		"2\n01:00:01,004 --> 01:00:02,000\nsecond\n\n"
	if got != want {
		t.Fatalf("RenderSRT = %q, want %q", got, want)
	}
}
