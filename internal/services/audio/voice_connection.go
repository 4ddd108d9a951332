package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

var (
	// ErrNotConnected is returned when not connected to a voice channel
	ErrNotConnected = errors.New("not connected to voice channel")
	// ErrConnectionFailed is returned when connection fails
	ErrConnectionFailed = errors.New("failed to connect to voice channel")
)

const voiceReadyTimeout = 10 * time.Second

// VoiceConnection represents a voice connection to a Discord channel
type VoiceConnection struct {
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection
	encoder   *AudioEncoder
	logger    *logger.Logger
	mu        sync.RWMutex
}

// NewVoiceConnection creates a new voice connection
func NewVoiceConnection(guildID string, encoder *AudioEncoder, log *logger.Logger) *VoiceConnection {
	return &VoiceConnection{
		guildID: guildID,
		encoder: encoder,
		logger:  log,
	}
}

// Connect joins channelID and waits until the voice gateway is ready
func (v *VoiceConnection) Connect(ctx context.Context, session *discordgo.Session, channelID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.vc != nil {
		if err := v.disconnectLocked(); err != nil {
			v.logger.WithError(err).Warn("Failed to disconnect before moving")
		}
	}

	log := v.logger.WithFields(map[string]interface{}{
		"guild":   v.guildID,
		"channel": channelID,
	})
	log.Info("Connecting to voice channel...")

	// Join voice channel (mute=false, deaf=true)
	vc, err := session.ChannelVoiceJoin(ctx, v.guildID, channelID, false, true)
	if err != nil {
		log.WithError(err).Error("Failed to join voice channel")
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	readyTimeout := time.NewTimer(voiceReadyTimeout)
	defer readyTimeout.Stop()
	readyTicker := time.NewTicker(100 * time.Millisecond)
	defer readyTicker.Stop()

	for !voiceReady(vc) {
		select {
		case <-ctx.Done():
			vc.Disconnect(ctx)
			return fmt.Errorf("%w: %v", ErrConnectionFailed, ctx.Err())
		case <-readyTimeout.C:
			vc.Disconnect(ctx)
			return fmt.Errorf("%w: connection not ready after %s", ErrConnectionFailed, voiceReadyTimeout)
		case <-readyTicker.C:
		}
	}

	v.vc = vc
	v.channelID = channelID

	log.Info("✅ Successfully connected to voice channel")
	return nil
}

// Disconnect disconnects from the voice channel
func (v *VoiceConnection) Disconnect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disconnectLocked()
}

// disconnectLocked disconnects without acquiring lock (must be called with lock held)
func (v *VoiceConnection) disconnectLocked() error {
	if v.vc == nil {
		return ErrNotConnected
	}

	v.logger.WithField("guild", v.guildID).Info("Disconnecting from voice channel...")

	vc := v.vc
	v.vc = nil
	v.channelID = ""

	disconnectCtx, cancel := context.WithTimeout(context.Background(), voiceReadyTimeout)
	defer cancel()
	if err := vc.Disconnect(disconnectCtx); err != nil {
		v.logger.WithError(err).Error("Failed to disconnect")
		return err
	}
	return nil
}

// IsConnected returns true if connected to a voice channel
func (v *VoiceConnection) IsConnected() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vc != nil && voiceReady(v.vc)
}

// voiceReady reports whether vc has reached the ready status
func voiceReady(vc *discordgo.VoiceConnection) bool {
	vc.Cond.L.Lock()
	defer vc.Cond.L.Unlock()
	return vc.Status == discordgo.VoiceConnectionStatusReady
}

// ChannelID returns the current channel ID
func (v *VoiceConnection) ChannelID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.channelID
}

// Play streams the audio file at path into the channel
func (v *VoiceConnection) Play(path string) (Stream, error) {
	if !v.IsConnected() {
		return nil, ErrNotConnected
	}

	player := NewAudioPlayer(v.guildID, v, v.encoder, v.logger)
	if err := player.Start(path); err != nil {
		return nil, err
	}
	return player, nil
}

// opusSend returns the outgoing frame channel of the live connection
func (v *VoiceConnection) opusSend() (chan []byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.vc == nil {
		return nil, ErrNotConnected
	}
	return v.vc.OpusSend, nil
}

// Speaking sets the speaking state
func (v *VoiceConnection) Speaking(speaking bool) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.vc == nil {
		return ErrNotConnected
	}

	return v.vc.Speaking(speaking)
}
