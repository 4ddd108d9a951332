package commands

import (
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/config"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// Handler manages all bot commands
type Handler struct {
	session          *discordgo.Session
	catalogService   *services.CatalogService
	ingestionService *services.IngestionService
	playbackService  *services.PlaybackService
	httpClient       *http.Client
	logger           *logger.Logger
	config           *config.Config
}

// NewHandler creates a new command handler
func NewHandler(
	session *discordgo.Session,
	catalogSvc *services.CatalogService,
	ingestionSvc *services.IngestionService,
	playbackSvc *services.PlaybackService,
	log *logger.Logger,
	config *config.Config,
) *Handler {
	client := http.DefaultClient
	if session != nil && session.Client != nil {
		client = session.Client
	}

	return &Handler{
		session:          session,
		catalogService:   catalogSvc,
		ingestionService: ingestionSvc,
		playbackService:  playbackSvc,
		httpClient:       client,
		logger:           log,
		config:           config,
	}
}

// RegisterCommands registers all slash commands with Discord
func (h *Handler) RegisterCommands() error {
	commands := GetCommands()

	_, err := h.session.ApplicationCommandBulkOverwrite(h.session.State.User.ID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	h.logger.WithField("count", len(commands)).Info("✅ All commands registered")
	return nil
}

// HandleInteraction routes incoming interactions to appropriate handlers
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Recovered from panic in command handler")
			if i.Type == discordgo.InteractionApplicationCommand {
				_ = respondError(s, i, "An internal error occurred")
			}
		}
	}()

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		h.handleButtonInteraction(s, i)
		return
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.handleAutocomplete(s, i)
		return
	case discordgo.InteractionApplicationCommand:
	default:
		return
	}

	data := i.ApplicationCommandData()

	h.logger.WithFields(map[string]interface{}{
		"command": data.Name,
		"guild":   i.GuildID,
		"user":    interactionUser(i).Username,
	}).Info("Command received")

	if i.GuildID == "" {
		_ = respondError(s, i, "Commands only work inside a server")
		return
	}

	var err error
	switch data.Name {
	// Sound commands
	case "upload":
		err = h.handleUpload(s, i)
	case "play":
		err = h.handlePlay(s, i)
	case "sounds":
		err = h.handleSounds(s, i)

	// Voice commands
	case "join":
		err = h.handleJoin(s, i)
	case "leave":
		err = h.handleLeave(s, i)

	// Utility commands
	case "stats":
		err = h.handleStats(s, i)
	case "help":
		err = h.handleHelp(s, i)

	default:
		err = respondError(s, i, "Unknown command")
	}

	if err != nil {
		h.logger.WithError(err).WithField("command", data.Name).Error("Command handler failed")
	}
}

// handleAutocomplete answers sound name suggestions for /play
func (h *Handler) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "play" {
		return
	}

	query := focusedValue(data.Options, optionSound)
	choices := autocompleteChoices(h.catalogService.Autocomplete(query))

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		h.logger.WithError(err).Debug("Failed to send autocomplete choices")
	}
}

// destination resolves the caller's guild and current voice channel
func (h *Handler) destination(s *discordgo.Session, i *discordgo.InteractionCreate) services.Destination {
	channelID, err := h.getUserVoiceChannel(s, i.GuildID, interactionUser(i).ID)
	if err != nil {
		channelID = ""
	}
	return services.Destination{GuildID: i.GuildID, ChannelID: channelID}
}

// getUserVoiceChannel gets the user's current voice channel
func (h *Handler) getUserVoiceChannel(s *discordgo.Session, guildID, userID string) (string, error) {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil {
		return "", err
	}
	if vs.ChannelID == "" {
		return "", fmt.Errorf("user not in voice channel")
	}
	return vs.ChannelID, nil
}

// interactionUser returns the invoking user for guild and DM interactions
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}
