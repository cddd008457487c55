package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/services"
	"scribe/internal/transcript"
)

// Engine adapts the external Whisper CLI: one invocation per audio chunk,
// returning segments relative to that chunk's own timeline.
type Engine struct {
	binary   string
	model    string
	language string
	// commandRunner overrides process execution for tests.
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewEngine builds an engine for the configured binary, model, and language.
func NewEngine(binary, model, language string) *Engine {
	if strings.TrimSpace(binary) == "" {
		binary = "whisper"
	}
	return &Engine{binary: binary, model: model, language: language}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	e.commandRunner = runner
}

// Model returns the configured model identifier for logging.
func (e *Engine) Model() string {
	return e.model
}

// Transcribe runs the engine on one chunk and parses the JSON output it
// writes next to outputDir. Returned segments use the chunk's own timeline.
func (e *Engine) Transcribe(ctx context.Context, chunkPath, outputDir string) ([]transcript.Segment, error) {
	args := buildTranscribeArgs(chunkPath, e.model, e.language, outputDir)
	output, err := e.run(ctx, e.binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisper",
			strings.TrimSpace(string(output)), err)
	}

	resultPath := outputJSONPath(chunkPath, outputDir)
	segments, err := LoadSegments(resultPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisper",
			fmt.Sprintf("read result %s", resultPath), err)
	}
	return segments, nil
}

// LoadSegments parses a Whisper JSON result file into segments.
func LoadSegments(path string) ([]transcript.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisper json: %w", err)
	}
	segments := make([]transcript.Segment, 0, len(payload.Segments))
	for _, segment := range payload.Segments {
		segments = append(segments, transcript.Segment{
			Start: segment.Start,
			End:   segment.End,
			Text:  strings.TrimSpace(segment.Text),
		})
	}
	return segments, nil
}

func (e *Engine) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func buildTranscribeArgs(chunkPath, model, language, outputDir string) []string {
	args := []string{
		chunkPath,
		"--task", "transcribe",
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}

func outputJSONPath(chunkPath, outputDir string) string {
	stem := strings.TrimSuffix(filepath.Base(chunkPath), filepath.Ext(chunkPath))
	return filepath.Join(outputDir, stem+".json")
}
