package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
)

// handleButtonInteraction handles pagination button clicks
func (h *Handler) handleButtonInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if !strings.HasPrefix(customID, soundsButtonPrefix+":") {
		return
	}

	names := lo.Map(h.catalogService.List(), func(e entities.SoundEntry, _ int) string {
		return e.Name
	})

	page, ok := parsePageAction(customID, pageCount(len(names)))
	if !ok {
		return
	}

	embed, components := buildSoundsPage(names, page)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to update sounds pagination")
	}
}
