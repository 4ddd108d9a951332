package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/validation"
)

const (
	itemsPerPage = 15

	soundsButtonPrefix = "sounds"
)

// pageCount returns the number of pages needed for total items
func pageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + itemsPerPage - 1) / itemsPerPage
}

// clampPage keeps page within [0, totalPages)
func clampPage(page, totalPages int) int {
	if page < 0 {
		return 0
	}
	if page >= totalPages {
		return totalPages - 1
	}
	return page
}

// createPaginationButtons creates navigation buttons for pagination
func createPaginationButtons(page, totalPages int, customIDPrefix string) []discordgo.MessageComponent {
	if totalPages <= 1 {
		return nil
	}

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "⏮️", // First
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:first", customIDPrefix),
			Disabled: page == 0,
		},
		discordgo.Button{
			Label:    "◀️", // Previous
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s:page:%d", customIDPrefix, page-1),
			Disabled: page == 0,
		},
		discordgo.Button{
			Label:    fmt.Sprintf("Page %d/%d", page+1, totalPages),
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:current", customIDPrefix),
			Disabled: true,
		},
		discordgo.Button{
			Label:    "▶️", // Next
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s:page:%d", customIDPrefix, page+1),
			Disabled: page >= totalPages-1,
		},
		discordgo.Button{
			Label:    "⏭️", // Last
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:last", customIDPrefix),
			Disabled: page >= totalPages-1,
		},
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: buttons,
		},
	}
}

// parsePageAction resolves a pagination button ID into a page index.
// The second return value is false for IDs that need no update.
func parsePageAction(customID string, totalPages int) (int, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) < 2 {
		return 0, false
	}

	switch parts[1] {
	case "first":
		return 0, true
	case "last":
		return totalPages - 1, true
	case "page":
		if len(parts) < 3 {
			return 0, false
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil {
			return 0, false
		}
		return clampPage(page, totalPages), true
	}
	return 0, false
}

// buildSoundsPage builds a paginated sound list
func buildSoundsPage(names []string, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	if len(names) == 0 {
		return NewEmbed().
			Title("🔊 Sounds").
			Description("No sounds yet. Use `/upload` to add one!").
			Color(ColorInfo).
			Build(), nil
	}

	totalItems := len(names)
	totalPages := pageCount(totalItems)
	page = clampPage(page, totalPages)

	start := page * itemsPerPage
	end := start + itemsPerPage
	if end > totalItems {
		end = totalItems
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		sb.WriteString(fmt.Sprintf("`%2d.` **%s**\n", i+1, validation.TruncateString(names[i], 60)))
	}

	embed := NewEmbed().
		Title(fmt.Sprintf("🔊 Sounds (Page %d/%d)", page+1, totalPages)).
		Description(sb.String()).
		Color(ColorPrimary).
		Footer(fmt.Sprintf("Total: %d sounds • Showing %d-%d • Use /play to play one", totalItems, start+1, end)).
		Build()

	return embed, createPaginationButtons(page, totalPages, soundsButtonPrefix)
}
