// Package ffmpeg adapts the external media transcoder: audio extraction to
// mono 16 kHz WAV, duration probing, and sequential chunk cutting.
package ffmpeg
