package commands

import "github.com/bwmarrin/discordgo"

// Option names shared between definitions and handlers
const (
	optionName  = "name"
	optionFile  = "file"
	optionSound = "sound"
)

// GetCommands returns all slash command definitions
func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		// Sound commands
		{
			Name:        "upload",
			Description: "Upload an audio or short video clip as a new sound",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionName,
					Description: "Name of the sound",
					Required:    true,
					MaxLength:   100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        optionFile,
					Description: "Audio file (mp3, wav, ogg, ...) or a short video clip",
					Required:    true,
				},
			},
		},
		{
			Name:        "play",
			Description: "Play a sound in your voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         optionSound,
					Description:  "Sound to play",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "sounds",
			Description: "List all available sounds",
		},

		// Voice commands
		{
			Name:        "join",
			Description: "Join your voice channel and stay until /leave",
		},
		{
			Name:        "leave",
			Description: "Stop playing and leave the voice channel",
		},

		// Utility commands
		{
			Name:        "stats",
			Description: "Show bot statistics",
		},
		{
			Name:        "help",
			Description: "Show available commands",
		},
	}
}
