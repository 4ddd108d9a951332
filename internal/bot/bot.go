package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/afero"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/commands"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/config"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/infrastructure/persistence"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services/audio"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services/media"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/web"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// SoundboardBot represents the Discord soundboard bot
type SoundboardBot struct {
	config           *config.Config
	logger           *logger.Logger
	session          *discordgo.Session
	catalogService   *services.CatalogService
	ingestionService *services.IngestionService
	playbackService  *services.PlaybackService
	cmdHandler       *commands.Handler

	watchCancel context.CancelFunc
	watchDone   sync.WaitGroup
}

// New creates a new SoundboardBot instance
func New(cfg *config.Config, log *logger.Logger) (*SoundboardBot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates
	session.StateEnabled = true

	fs := afero.NewOsFs()

	// Catalog
	repo, err := persistence.NewCatalogRepository(fs, cfg.SoundFilesJSON, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	catalogService, err := services.NewCatalogService(repo, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	// Ingestion
	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath, log)
	if err := ffmpeg.Available(); err != nil {
		log.WithError(err).Warn("⚠️ FFmpeg tools missing - uploads and playback will fail")
	}
	ingestionService := services.NewIngestionService(
		fs,
		catalogService,
		ffmpeg,
		media.NewMP3Verifier(fs),
		services.IngestionConfig{
			SoundsDir:        cfg.SoundsDir,
			TempDir:          cfg.TempDir,
			MaxUploadBytes:   cfg.MaxUploadBytes,
			MaxVideoDuration: cfg.MaxVideoDuration,
		},
		log,
	)

	// Playback
	audioService := audio.NewAudioService(session, cfg.FFmpegPath, log)
	playbackService := services.NewPlaybackService(audioService, catalogService, cfg.SoundsDir, log)

	cmdHandler := commands.NewHandler(session, catalogService, ingestionService, playbackService, log, cfg)

	bot := &SoundboardBot{
		config:           cfg,
		logger:           log,
		session:          session,
		catalogService:   catalogService,
		ingestionService: ingestionService,
		playbackService:  playbackService,
		cmdHandler:       cmdHandler,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(cmdHandler.HandleInteraction)
	session.AddHandler(bot.onVoiceStateUpdate)

	log.WithField("sounds", catalogService.Count()).Info("📚 Catalog loaded")
	return bot, nil
}

// NewWebServer builds the upload form on top of the bot's catalog
func (b *SoundboardBot) NewWebServer() *web.Server {
	return web.NewServer(web.Config{
		Addr:             b.config.WebAddr,
		UploadsPerMinute: b.config.WebUploadsPerMinute,
		MaxUploadBytes:   b.config.MaxUploadBytes,
	}, b.catalogService, b.ingestionService, b.logger)
}

// Start opens the gateway connection and registers commands
func (b *SoundboardBot) Start(ctx context.Context) error {
	if b.config.WatchCatalog {
		watchCtx, cancel := context.WithCancel(ctx)
		b.watchCancel = cancel
		b.watchDone.Add(1)
		go func() {
			defer b.watchDone.Done()
			if err := b.catalogService.Watch(watchCtx); err != nil {
				b.logger.WithError(err).Warn("Catalog watcher stopped")
			}
		}()
	}

	b.logger.Info("Opening Discord connection...")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info("Registering slash commands...")
	if err := b.cmdHandler.RegisterCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Stop stops the bot gracefully
func (b *SoundboardBot) Stop() {
	b.logger.Info("Shutting down services...")

	if b.watchCancel != nil {
		b.watchCancel()
		b.watchDone.Wait()
	}

	// Leave every voice channel before the gateway goes away
	b.playbackService.Shutdown()

	b.logger.Info("Closing Discord connection...")
	if err := b.session.Close(); err != nil {
		b.logger.WithError(err).Error("Failed to close Discord session")
	}
}

// onReady is called when the bot is ready
func (b *SoundboardBot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Infof("✅ Bot is ready! Logged in as %s#%s", event.User.Username, event.User.Discriminator)
	b.logger.Infof("📊 Connected to %d guilds", len(event.Guilds))

	if err := s.UpdateGameStatus(0, "🔊 /play"); err != nil {
		b.logger.WithError(err).Warn("Failed to update status")
	}
}

// onVoiceStateUpdate tracks the bot's own connection and leaves channels
// that have emptied out.
func (b *SoundboardBot) onVoiceStateUpdate(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	observedAt := time.Now()
	if s.State == nil || s.State.User == nil {
		return
	}
	botID := s.State.User.ID
	guildID := event.GuildID

	if event.UserID == botID {
		// Kicked or disconnected from outside
		if event.ChannelID == "" && event.BeforeUpdate != nil {
			b.playbackService.HandleDisconnect(guildID, event.BeforeUpdate.ChannelID, observedAt)
		}
		return
	}

	if !b.config.AutoLeaveEmpty {
		return
	}

	botChannelID := b.playbackService.ChannelID(guildID)
	if botChannelID == "" {
		return
	}

	// Only care if the user left the bot's channel
	if event.BeforeUpdate == nil || event.BeforeUpdate.ChannelID != botChannelID {
		return
	}
	if event.ChannelID == botChannelID {
		return
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		b.logger.WithError(err).Warn("Failed to get guild state")
		return
	}

	listeners := countListeners(guild.VoiceStates, botChannelID, botID, func(userID string) bool {
		return b.isBot(s, guildID, userID)
	})

	b.logger.WithFields(map[string]interface{}{
		"guild":     guildID,
		"channel":   botChannelID,
		"listeners": listeners,
	}).Debug("Voice state update - checking listeners")

	if listeners > 0 {
		return
	}

	b.logger.WithFields(map[string]interface{}{
		"guild":   guildID,
		"channel": botChannelID,
	}).Info("No listeners left in voice channel, disconnecting...")

	if err := b.playbackService.Leave(context.Background(), guildID); err != nil {
		b.logger.WithError(err).Warn("Failed to leave empty channel")
	}
}

func (b *SoundboardBot) isBot(s *discordgo.Session, guildID, userID string) bool {
	member, err := s.State.Member(guildID, userID)
	if err != nil {
		member, err = s.GuildMember(guildID, userID)
		if err != nil {
			return false
		}
	}
	return member.User != nil && member.User.Bot
}

// countListeners counts non-bot users in channelID.
func countListeners(states []*discordgo.VoiceState, channelID, botID string, isBot func(userID string) bool) int {
	count := 0
	for _, vs := range states {
		if vs == nil || vs.ChannelID != channelID || vs.UserID == botID {
			continue
		}
		if isBot(vs.UserID) {
			continue
		}
		count++
	}
	return count
}
