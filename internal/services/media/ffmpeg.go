package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

var (
	// ErrProbeFailed is returned when the source duration cannot be read
	ErrProbeFailed = errors.New("media probe failed")
	// ErrConversionFailed is returned when ffmpeg exits with an error
	ErrConversionFailed = errors.New("media conversion failed")
)

// Tool converts and inspects media files on the local filesystem
type Tool interface {
	// Probe returns the container duration of the file at path.
	Probe(ctx context.Context, path string) (time.Duration, error)
	// Transcode extracts the first audio stream of src into an MP3 at dst.
	Transcode(ctx context.Context, src, dst string) error
}

// FFmpeg implements Tool with the ffmpeg and ffprobe binaries
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *logger.Logger
}

// NewFFmpeg creates a new ffmpeg-backed media tool
func NewFFmpeg(ffmpegPath, ffprobePath string, log *logger.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      log,
	}
}

// Available reports whether both binaries can be found
func (f *FFmpeg) Available() error {
	for _, bin := range []string{f.ffmpegPath, f.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the container duration with ffprobe
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.logger.WithError(err).WithField("ffprobe", strings.TrimSpace(stderr.String())).Warn("ffprobe failed")
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	return parseProbeDuration(stdout.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: decode output: %v", ErrProbeFailed, err)
	}

	raw := strings.TrimSpace(out.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("%w: no duration reported", ErrProbeFailed)
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%w: bad duration %q", ErrProbeFailed, raw)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// Transcode converts src into an MP3 at dst, overwriting dst
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-map", "0:a:0",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		"-f", "mp3",
		dst,
	}

	f.logger.WithFields(map[string]interface{}{
		"src": src,
		"dst": dst,
	}).Debug("Transcoding to mp3")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.logger.WithError(err).WithField("ffmpeg", strings.TrimSpace(stderr.String())).Warn("FFmpeg output")
		return fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	return nil
}
