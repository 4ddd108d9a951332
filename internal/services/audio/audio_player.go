package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// ErrNoVoiceConnection is returned when there's no voice connection
var ErrNoVoiceConnection = errors.New("no voice connection")

// AudioPlayer streams one file to a voice connection. It implements Stream.
type AudioPlayer struct {
	guildID string
	vc      *VoiceConnection
	encoder *AudioEncoder
	logger  *logger.Logger

	isPlaying atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	frames    int

	mu  sync.Mutex
	err error
}

// NewAudioPlayer creates a new audio player
func NewAudioPlayer(guildID string, vc *VoiceConnection, encoder *AudioEncoder, log *logger.Logger) *AudioPlayer {
	return &AudioPlayer{
		guildID: guildID,
		vc:      vc,
		encoder: encoder,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start begins streaming the file at path
func (p *AudioPlayer) Start(path string) error {
	if p.vc == nil {
		return ErrNoVoiceConnection
	}
	send, err := p.vc.opusSend()
	if err != nil {
		return ErrNoVoiceConnection
	}
	if !p.isPlaying.CompareAndSwap(false, true) {
		return errors.New("player already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.logger.WithFields(map[string]interface{}{
		"guild": p.guildID,
		"file":  path,
	}).Info("🎵 Starting playback...")

	frames, errs := p.encoder.EncodeFile(ctx, path, nil)
	go p.playbackLoop(ctx, send, frames, errs)
	return nil
}

// playbackLoop forwards frames until the file ends or the player is stopped
func (p *AudioPlayer) playbackLoop(ctx context.Context, send chan []byte, frames <-chan []byte, errs <-chan error) {
	defer func() {
		p.cancel()
		p.isPlaying.Store(false)
		close(p.done)
	}()

	if err := p.vc.Speaking(true); err != nil {
		p.logger.WithError(err).Warn("Failed to set speaking status")
	}
	defer p.vc.Speaking(false)

	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("guild", p.guildID).Info("⏹️ Playback stopped")
			return

		case err, ok := <-errs:
			if ok && err != nil {
				p.logger.WithError(err).Error("Encoding error")
				p.setErr(err)
				return
			}
			errs = nil

		case frame, ok := <-frames:
			if !ok {
				if errs != nil {
					if err, ok := <-errs; ok && err != nil {
						p.logger.WithError(err).Error("Encoding error")
						p.setErr(err)
						return
					}
				}
				waitForDrain(ctx, send)
				p.logger.WithField("frames", p.frames).Info("✅ Playback completed")
				return
			}

			select {
			case send <- frame:
				p.frames++
			case <-ctx.Done():
				return
			}
		}
	}
}

// waitForDrain blocks until the frames queued on send have gone out, plus the
// frame in flight, or until ctx is cancelled.
func waitForDrain(ctx context.Context, send chan []byte) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for len(send) > 0 {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}

	select {
	case <-time.After(frameInterval):
	case <-ctx.Done():
	}
}

func (p *AudioPlayer) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Done is closed once playback has ended
func (p *AudioPlayer) Done() <-chan struct{} {
	return p.done
}

// Err returns the encoding error that ended playback, if any
func (p *AudioPlayer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop stops the current playback
func (p *AudioPlayer) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

// IsPlaying returns true if currently playing
func (p *AudioPlayer) IsPlaying() bool {
	return p.isPlaying.Load()
}
