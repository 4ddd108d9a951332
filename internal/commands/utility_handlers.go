package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services"
)

// handleJoin handles the join command
func (h *Handler) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	result, err := h.playbackService.Join(ctx, h.destination(s, i))
	if err != nil {
		return followUpError(s, i, errors.GetUserMessage(err))
	}

	description := "Joined your voice channel"
	switch result {
	case services.JoinResultAlreadyConnected:
		description = "I'm already in your voice channel"
	case services.JoinResultMoved:
		description = "Moved to your voice channel"
	}

	embed := NewEmbed().
		Title("🔊 Connected").
		Description(description).
		Color(ColorSuccess).
		Footer("I'll stay until you use /leave").
		Build()

	return followUpEmbed(s, i, embed)
}

// handleLeave handles the leave command
func (h *Handler) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.playbackService.Leave(context.Background(), i.GuildID); err != nil {
		return respondError(s, i, errors.GetUserMessage(err))
	}

	embed := NewEmbed().
		Title("👋 Disconnected").
		Description("Left the voice channel").
		Color(ColorInfo).
		Build()

	return respondEmbed(s, i, embed)
}

// handleStats handles the stats command
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	stats := h.playbackService.Stats()
	guildCount := len(s.State.Guilds)
	latency := s.HeartbeatLatency().Milliseconds()

	// Latency indicator
	latencyStatus := "🟢 Excellent"
	if latency > 200 {
		latencyStatus = "🔴 Poor"
	} else if latency > 100 {
		latencyStatus = "🟡 Moderate"
	}

	embed := NewEmbed().
		Title("Bot Statistics").
		Color(ColorPrimary).
		Field("Servers", fmt.Sprintf("%d", guildCount), true).
		Field("Sounds", fmt.Sprintf("%d", h.catalogService.Count()), true).
		Field("Voice Sessions", fmt.Sprintf("%d (%d playing)", stats.Connected, stats.Playing), true).
		Field("Plays", fmt.Sprintf("%d", stats.PlaysStarted), true).
		Field("Latency", fmt.Sprintf("%dms %s", latency, latencyStatus), true).
		Footer(h.config.BotName).
		Timestamp(time.Now().Format(time.RFC3339)).
		Build()

	return respondEmbed(s, i, embed)
}

// handleHelp handles the help command
func (h *Handler) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	embed := NewEmbed().
		Title(h.config.BotName).
		Color(ColorPrimary).
		Field("Sounds",
			"> **`/upload <name> <file>` - Add a sound (audio, or a short video clip)**\n"+
				"> **`/play <sound>` - Play a sound in your channel**\n"+
				"> **`/sounds` - List all sounds**",
			false).
		Field("Voice",
			"> **`/join` - Join and stay in your channel**\n"+
				"> **`/leave` - Stop and leave**",
			false).
		Field("Utility",
			"> **`/stats` - Bot statistics**\n"+
				"> **`/help` - Show this help**",
			false).
		Footer(fmt.Sprintf("Soundboard %s • Without /join the bot leaves after each sound", h.config.Version)).
		Build()

	return respondEmbed(s, i, embed)
}
