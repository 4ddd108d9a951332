package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services/audio"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// Destination identifies where a caller wants audio. ChannelID is the voice
// channel the caller is in and is empty when they are not in one.
type Destination struct {
	GuildID   string
	ChannelID string
}

// JoinResult describes what an explicit join did
type JoinResult string

const (
	JoinResultConnected        JoinResult = "connected"
	JoinResultMoved            JoinResult = "moved"
	JoinResultAlreadyConnected JoinResult = "already_connected"
)

// Playback is the handle for one started clip
type Playback struct {
	Sound     entities.SoundEntry
	GuildID   string
	ChannelID string
	Started   time.Time

	done    chan struct{}
	err     error
	stopped bool
}

// Done is closed once the clip has finished or was stopped
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Err reports a playback failure. Only valid after Done is closed.
func (p *Playback) Err() error {
	return p.err
}

// Stopped reports whether the clip was cut short by Leave or a lost
// connection. Only valid after Done is closed.
func (p *Playback) Stopped() bool {
	return p.stopped
}

// PlaybackStats summarizes sessions across guilds
type PlaybackStats struct {
	Sessions       int
	Connected      int
	Playing        int
	PlaysStarted   int64
	PlaysCompleted int64
}

// PlaybackService manages one voice session per guild
type PlaybackService struct {
	dialer    audio.Dialer
	catalog   *CatalogService
	soundsDir string
	logger    *logger.Logger

	sessions map[string]*playbackSession
	mu       sync.Mutex

	playsStarted   atomic.Int64
	playsCompleted atomic.Int64
}

// playbackSession is the state of one guild; conn and stream are owned by it.
type playbackSession struct {
	guildID    string
	conn       audio.Conn
	state      valueobjects.SessionState
	joinReason valueobjects.JoinReason
	stream     audio.Stream
	mu         sync.Mutex

	connectedAt time.Time
}

// NewPlaybackService creates a new playback service
func NewPlaybackService(dialer audio.Dialer, catalog *CatalogService, soundsDir string, log *logger.Logger) *PlaybackService {
	return &PlaybackService{
		dialer:    dialer,
		catalog:   catalog,
		soundsDir: soundsDir,
		logger:    log,
		sessions:  make(map[string]*playbackSession),
	}
}

// Join connects to the caller's channel and keeps the bot there until Leave
func (s *PlaybackService) Join(ctx context.Context, dest Destination) (JoinResult, error) {
	if dest.ChannelID == "" {
		return "", errors.ErrNotInVoice
	}

	session := s.getOrCreateSession(dest.GuildID)
	session.mu.Lock()
	defer session.mu.Unlock()

	result := JoinResultConnected
	if session.state.IsConnected() {
		if session.conn.ChannelID() == dest.ChannelID {
			session.joinReason = valueobjects.JoinReasonExplicit
			return JoinResultAlreadyConnected, nil
		}
		s.teardownLocked(session)
		result = JoinResultMoved
	}

	if err := s.connectLocked(ctx, session, dest.ChannelID, valueobjects.JoinReasonExplicit); err != nil {
		return "", err
	}
	return result, nil
}

// Play starts the named sound in the caller's guild. It returns once audio
// has started; completion is signalled through the returned handle.
func (s *PlaybackService) Play(ctx context.Context, dest Destination, name string) (*Playback, error) {
	if dest.ChannelID == "" {
		return nil, errors.ErrNotInVoice
	}

	entry, ok := s.catalog.FindByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrSoundNotFound, name)
	}

	session := s.getOrCreateSession(dest.GuildID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state == valueobjects.SessionStateConnectedPlaying {
		return nil, errors.ErrAlreadyPlaying
	}

	joinedNow := false
	if session.state == valueobjects.SessionStateDisconnected {
		if err := s.connectLocked(ctx, session, dest.ChannelID, valueobjects.JoinReasonImplicit); err != nil {
			return nil, err
		}
		joinedNow = true
	}

	path := filepath.Join(s.soundsDir, entry.AudioFile())
	stream, err := session.conn.Play(path)
	if err != nil {
		if joinedNow {
			s.teardownLocked(session)
		}
		s.logger.WithError(err).WithField("sound", entry.Name).Error("Failed to start playback")
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}

	playback := &Playback{
		Sound:     entry,
		GuildID:   dest.GuildID,
		ChannelID: session.conn.ChannelID(),
		Started:   time.Now(),
		done:      make(chan struct{}),
	}
	session.stream = stream
	session.state = valueobjects.SessionStateConnectedPlaying
	s.playsStarted.Add(1)

	s.logger.WithFields(map[string]interface{}{
		"guild":   dest.GuildID,
		"channel": playback.ChannelID,
		"sound":   entry.Name,
		"reason":  session.joinReason,
	}).Info("🔊 Playing sound")

	go s.awaitCompletion(session, stream, playback)
	return playback, nil
}

// awaitCompletion moves the session back to idle when stream ends and leaves
// the channel if the bot only joined to play it.
func (s *PlaybackService) awaitCompletion(session *playbackSession, stream audio.Stream, playback *Playback) {
	<-stream.Done()
	playback.err = stream.Err()

	session.mu.Lock()
	// teardown clears the stream before stopping it
	playback.stopped = session.stream != stream
	if session.stream == stream {
		session.stream = nil
		session.state = valueobjects.SessionStateConnectedIdle
		s.playsCompleted.Add(1)

		if session.joinReason == valueobjects.JoinReasonImplicit {
			s.logger.WithField("guild", session.guildID).Debug("Leaving after implicit play")
			s.teardownLocked(session)
		}
	}
	session.mu.Unlock()

	close(playback.done)
}

// Leave stops any playing clip and disconnects
func (s *PlaybackService) Leave(ctx context.Context, guildID string) error {
	session := s.getSession(guildID)
	if session == nil {
		return errors.ErrNotConnected
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.state.IsConnected() {
		return errors.ErrNotConnected
	}

	s.teardownLocked(session)
	s.logger.WithField("guild", guildID).Info("Left voice channel")
	return nil
}

// HandleDisconnect drops the session after the bot was disconnected from
// channelID outside of Leave. observedAt is when the gateway event arrived.
// Events for another channel, or ones that arrived before the current
// connection was established, belong to an earlier connection and are ignored.
func (s *PlaybackService) HandleDisconnect(guildID, channelID string, observedAt time.Time) {
	session := s.getSession(guildID)
	if session == nil {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.state.IsConnected() || session.conn == nil {
		return
	}

	log := s.logger.WithFields(map[string]interface{}{
		"guild":   guildID,
		"channel": channelID,
	})
	if channelID != session.conn.ChannelID() || observedAt.Before(session.connectedAt) {
		log.Debug("Ignoring disconnect from an earlier voice connection")
		return
	}

	log.Warn("Voice connection lost, resetting session")
	s.teardownLocked(session)
}

// State returns the session state of a guild
func (s *PlaybackService) State(guildID string) valueobjects.SessionState {
	session := s.getSession(guildID)
	if session == nil {
		return valueobjects.SessionStateDisconnected
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state
}

// ChannelID returns the connected channel of a guild, or "" when disconnected
func (s *PlaybackService) ChannelID(guildID string) string {
	session := s.getSession(guildID)
	if session == nil {
		return ""
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.conn == nil {
		return ""
	}
	return session.conn.ChannelID()
}

// Stats returns counters across all guilds
func (s *PlaybackService) Stats() PlaybackStats {
	s.mu.Lock()
	sessions := make([]*playbackSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	stats := PlaybackStats{
		Sessions:       len(sessions),
		PlaysStarted:   s.playsStarted.Load(),
		PlaysCompleted: s.playsCompleted.Load(),
	}
	for _, session := range sessions {
		session.mu.Lock()
		switch session.state {
		case valueobjects.SessionStateConnectedIdle:
			stats.Connected++
		case valueobjects.SessionStateConnectedPlaying:
			stats.Connected++
			stats.Playing++
		}
		session.mu.Unlock()
	}
	return stats
}

// Shutdown disconnects every guild
func (s *PlaybackService) Shutdown() {
	s.mu.Lock()
	guildIDs := make([]string, 0, len(s.sessions))
	for guildID := range s.sessions {
		guildIDs = append(guildIDs, guildID)
	}
	s.mu.Unlock()

	for _, guildID := range guildIDs {
		if err := s.Leave(context.Background(), guildID); err != nil && err != errors.ErrNotConnected {
			s.logger.WithError(err).WithField("guild", guildID).Warn("Failed to leave on shutdown")
		}
	}
}

func (s *PlaybackService) connectLocked(ctx context.Context, session *playbackSession, channelID string, reason valueobjects.JoinReason) error {
	conn, err := s.dialer.Join(ctx, session.guildID, channelID)
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"guild":   session.guildID,
			"channel": channelID,
		}).Error("Failed to join voice channel")
		return fmt.Errorf("%w: %v", errors.ErrConnectFailed, err)
	}

	session.conn = conn
	session.connectedAt = time.Now()
	session.state = valueobjects.SessionStateConnectedIdle
	session.joinReason = reason
	return nil
}

// teardownLocked stops the stream and disconnects (must be called with session lock held)
func (s *PlaybackService) teardownLocked(session *playbackSession) {
	if session.stream != nil {
		session.stream.Stop()
		session.stream = nil
	}
	if session.conn != nil {
		if err := session.conn.Disconnect(); err != nil {
			s.logger.WithError(err).WithField("guild", session.guildID).Debug("Disconnect reported an error")
		}
		session.conn = nil
	}
	session.state = valueobjects.SessionStateDisconnected
	session.joinReason = ""
}

func (s *PlaybackService) getSession(guildID string) *playbackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[guildID]
}

func (s *PlaybackService) getOrCreateSession(guildID string) *playbackSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[guildID]
	if !exists {
		session = &playbackSession{
			guildID: guildID,
			state:   valueobjects.SessionStateDisconnected,
		}
		s.sessions[guildID] = session
	}
	return session
}
