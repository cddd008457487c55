package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"scribe/internal/fileutil"
	"scribe/internal/services"
)

// Chunk is one bounded-duration audio slice with its exact probed duration.
type Chunk struct {
	Path     string
	Duration float64
}

// Transcoder wraps the ffmpeg and ffprobe binaries: audio extraction,
// duration probing, and sequential chunk cutting.
type Transcoder struct {
	ffmpegBinary  string
	ffprobeBinary string
	// commandRunner overrides process execution for tests.
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewTranscoder builds a transcoder for the given binaries.
func NewTranscoder(ffmpegBinary, ffprobeBinary string) *Transcoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Transcoder{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcoder) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	t.commandRunner = runner
}

func (t *Transcoder) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if t.commandRunner != nil {
		return t.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// ExtractAudio produces a mono 16 kHz WAV track from a video file.
func (t *Transcoder) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	args := buildExtractArgs(videoPath, audioPath)
	if output, err := t.run(ctx, t.ffmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg",
			strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Duration returns the container duration of path in seconds via ffprobe.
func (t *Transcoder) Duration(ctx context.Context, path string) (float64, error) {
	args := buildProbeArgs(path)
	output, err := t.run(ctx, t.ffprobeBinary, args...)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "probe", "ffprobe",
			strings.TrimSpace(string(output)), err)
	}

	var probed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probed); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "parse output", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "probe", "ffprobe",
			fmt.Sprintf("invalid duration %q", probed.Format.Duration), err)
	}
	return seconds, nil
}

// Split cuts the audio into sequential fixed-duration chunks under chunkDir
// and probes each chunk's exact duration. Chunks are cut one at a time; the
// pipeline never holds more than one decode active.
func (t *Transcoder) Split(ctx context.Context, audioPath, chunkDir string, chunkSeconds int) ([]Chunk, error) {
	if chunkSeconds <= 0 {
		return nil, services.Wrap(services.ErrValidation, "split", "", fmt.Sprintf("invalid chunk duration %d", chunkSeconds), nil)
	}
	if err := fileutil.EnsureDir(chunkDir); err != nil {
		return nil, services.Wrap(services.ErrTransient, "split", "", "create chunk directory", err)
	}

	total, err := t.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for index, start := 0, 0.0; start < total; index, start = index+1, start+float64(chunkSeconds) {
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("chunk_%04d.wav", index))
		args := buildSegmentArgs(audioPath, start, chunkSeconds, chunkPath)
		if output, err := t.run(ctx, t.ffmpegBinary, args...); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "split", "ffmpeg",
				strings.TrimSpace(string(output)), err)
		}
		duration, err := t.Duration(ctx, chunkPath)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Path: chunkPath, Duration: duration})
	}
	return chunks, nil
}

func buildExtractArgs(videoPath, audioPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		audioPath,
	}
}

func buildSegmentArgs(audioPath string, startSec float64, durationSec int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(startSec, 'f', -1, 64),
		"-t", strconv.Itoa(durationSec),
		"-i", audioPath,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-of", "json",
		"--", path,
	}
}
