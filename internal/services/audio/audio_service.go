package audio

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// AudioService dials Discord voice connections for playback sessions
type AudioService struct {
	session *discordgo.Session
	encoder *AudioEncoder
	logger  *logger.Logger
}

// NewAudioService creates a new audio service
func NewAudioService(session *discordgo.Session, ffmpegPath string, log *logger.Logger) *AudioService {
	return &AudioService{
		session: session,
		encoder: NewAudioEncoder(ffmpegPath, log),
		logger:  log,
	}
}

// Join connects to a voice channel and returns the live connection
func (s *AudioService) Join(ctx context.Context, guildID, channelID string) (Conn, error) {
	vc := NewVoiceConnection(guildID, s.encoder, s.logger)
	if err := vc.Connect(ctx, s.session, channelID); err != nil {
		return nil, err
	}
	return vc, nil
}

var _ Dialer = (*AudioService)(nil)
var _ Conn = (*VoiceConnection)(nil)
var _ Stream = (*AudioPlayer)(nil)
