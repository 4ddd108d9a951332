package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/jonas747/ogg"

	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// ErrEncodingFailed is returned when encoding fails
var ErrEncodingFailed = errors.New("audio encoding failed")

// Opus frames are 20ms each, so 50 frames/second
const frameInterval = 20 * time.Millisecond

// AudioEncoder turns local audio files into Opus frames for Discord
type AudioEncoder struct {
	ffmpegPath string
	logger     *logger.Logger
}

// NewAudioEncoder creates a new audio encoder
func NewAudioEncoder(ffmpegPath string, log *logger.Logger) *AudioEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &AudioEncoder{
		ffmpegPath: ffmpegPath,
		logger:     log,
	}
}

// EncodeOptions contains options for encoding
type EncodeOptions struct {
	Volume      int    // 0-100, default 100
	Bitrate     int    // in kbps, default 128
	Application string // audio, voip, or lowdelay
	BufferSize  int    // frames buffered ahead of the sender
}

// DefaultEncodeOptions returns default encoding options
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Volume:      100,
		Bitrate:     128,
		Application: "audio",
		BufferSize:  64,
	}
}

func (o *EncodeOptions) ffmpegArgs(path string) []string {
	args := []string{
		"-i", path,
		"-map", "0:a",
		"-acodec", "libopus",
		"-f", "ogg",
		"-compression_level", "5",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", fmt.Sprintf("%d", o.Bitrate*1000),
		"-application", o.Application,
		"-frame_duration", "20",
		"-loglevel", "error",
	}
	if o.Volume > 0 && o.Volume != 100 {
		args = append(args, "-af", fmt.Sprintf("volume=%.2f", float64(o.Volume)/100))
	}
	return append(args, "pipe:1")
}

// EncodeFile encodes the audio file at path into paced Opus frames. The
// frame channel is closed at end of file; the error channel receives at most
// one error. Cancelling ctx kills ffmpeg and ends both channels.
func (e *AudioEncoder) EncodeFile(ctx context.Context, path string, options *EncodeOptions) (<-chan []byte, <-chan error) {
	if options == nil {
		options = DefaultEncodeOptions()
	}

	frameChannel := make(chan []byte, options.BufferSize)
	errorChannel := make(chan error, 1)

	go e.encode(ctx, path, options, frameChannel, errorChannel)

	return frameChannel, errorChannel
}

func (e *AudioEncoder) encode(ctx context.Context, path string, options *EncodeOptions, frameChannel chan []byte, errorChannel chan error) {
	defer close(frameChannel)
	defer close(errorChannel)

	log := e.logger.WithField("file", path)

	ffmpegCmd := exec.CommandContext(ctx, e.ffmpegPath, options.ffmpegArgs(path)...)
	ffmpegStdout, err := ffmpegCmd.StdoutPipe()
	if err != nil {
		errorChannel <- fmt.Errorf("%w: ffmpeg stdout: %v", ErrEncodingFailed, err)
		return
	}
	ffmpegStderr, err := ffmpegCmd.StderrPipe()
	if err != nil {
		errorChannel <- fmt.Errorf("%w: ffmpeg stderr: %v", ErrEncodingFailed, err)
		return
	}

	if err := ffmpegCmd.Start(); err != nil {
		log.WithError(err).Error("❌ Failed to start FFmpeg")
		errorChannel <- fmt.Errorf("%w: start ffmpeg: %v", ErrEncodingFailed, err)
		return
	}

	// Log FFmpeg errors in background
	go func() {
		scanner := bufio.NewScanner(ffmpegStderr)
		for scanner.Scan() {
			log.WithField("ffmpeg", scanner.Text()).Warn("FFmpeg output")
		}
	}()

	defer func() {
		if ffmpegCmd.Process != nil {
			ffmpegCmd.Process.Kill()
		}
		ffmpegCmd.Wait()
	}()

	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(ffmpegStdout))

	frameCount := 0
	startTime := time.Now()

	// Skip first 2 packets (Opus header and comment metadata)
	skipPackets := 2

	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if frameCount > 0 {
				log.WithField("frames", frameCount).Debug("Encoding completed")
				return
			}
			if err == io.EOF {
				err = errors.New("no audio frames produced")
			}
			log.WithError(err).Error("❌ Error decoding OGG packet")
			errorChannel <- fmt.Errorf("%w: %v", ErrEncodingFailed, err)
			return
		}

		if skipPackets > 0 {
			skipPackets--
			continue
		}
		if len(packet) == 0 {
			continue
		}
		frameCount++

		// Pace frames to the playback rate
		expectedTime := startTime.Add(time.Duration(frameCount) * frameInterval)
		if wait := time.Until(expectedTime); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}

		select {
		case frameChannel <- packet:
		case <-ctx.Done():
			return
		}
	}
}
