package commands

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCommands(t *testing.T) {
	byName := map[string]*discordgo.ApplicationCommand{}
	for _, cmd := range GetCommands() {
		byName[cmd.Name] = cmd
	}

	for _, name := range []string{"upload", "play", "sounds", "join", "leave", "stats", "help"} {
		assert.Contains(t, byName, name)
	}

	upload := byName["upload"]
	require.Len(t, upload.Options, 2)
	assert.Equal(t, discordgo.ApplicationCommandOptionAttachment, upload.Options[1].Type)

	play := byName["play"]
	require.Len(t, play.Options, 1)
	assert.True(t, play.Options[0].Autocomplete)
}

func TestBuildSoundsPage(t *testing.T) {
	t.Run("Empty catalog", func(t *testing.T) {
		embed, buttons := buildSoundsPage(nil, 0)
		assert.Contains(t, embed.Description, "/upload")
		assert.Nil(t, buttons)
	})

	t.Run("Single page", func(t *testing.T) {
		embed, buttons := buildSoundsPage([]string{"Air Horn", "Bruh"}, 0)
		assert.Contains(t, embed.Description, "Air Horn")
		assert.Contains(t, embed.Description, "Bruh")
		assert.Nil(t, buttons)
	})

	t.Run("Multiple pages clamp", func(t *testing.T) {
		names := make([]string, 40)
		for i := range names {
			names[i] = fmt.Sprintf("clip%02d", i)
		}

		embed, buttons := buildSoundsPage(names, 99)
		assert.Equal(t, "🔊 Sounds (Page 3/3)", embed.Title)
		assert.Contains(t, embed.Description, "clip39")
		assert.NotContains(t, embed.Description, "clip29")
		require.Len(t, buttons, 1)

		embed, _ = buildSoundsPage(names, 0)
		assert.True(t, strings.HasPrefix(embed.Title, "🔊 Sounds (Page 1/3)"))
		assert.Contains(t, embed.Description, "clip00")
	})
}

func TestParsePageAction(t *testing.T) {
	tests := []struct {
		customID string
		page     int
		ok       bool
	}{
		{customID: "sounds:first", page: 0, ok: true},
		{customID: "sounds:last", page: 2, ok: true},
		{customID: "sounds:page:1", page: 1, ok: true},
		{customID: "sounds:page:7", page: 2, ok: true},
		{customID: "sounds:page:-1", page: 0, ok: true},
		{customID: "sounds:page:x", ok: false},
		{customID: "sounds:current", ok: false},
		{customID: "sounds", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			page, ok := parsePageAction(tt.customID, 3)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.page, page)
			}
		})
	}
}

func TestAutocompleteChoices(t *testing.T) {
	choices := autocompleteChoices([]string{"Air Horn", "AIRPLANE"})
	require.Len(t, choices, 2)
	assert.Equal(t, "Air Horn", choices[0].Name)
	assert.Equal(t, "Air Horn", choices[0].Value)

	assert.Empty(t, autocompleteChoices(nil))
}

func TestFocusedValue(t *testing.T) {
	options := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "sound", Type: discordgo.ApplicationCommandOptionString, Value: "ai", Focused: true},
	}
	assert.Equal(t, "ai", focusedValue(options, "sound"))
	assert.Equal(t, "", focusedValue(nil, "sound"))
}

func TestResolveAttachment(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Attachments: map[string]*discordgo.MessageAttachment{
				"123": {ID: "123", Filename: "horn.mp3", URL: "https://cdn.example/horn.mp3"},
			},
		},
	}

	opt := &discordgo.ApplicationCommandInteractionDataOption{Name: "file", Type: discordgo.ApplicationCommandOptionAttachment, Value: "123"}
	att := resolveAttachment(data, opt)
	require.NotNil(t, att)
	assert.Equal(t, "horn.mp3", att.Filename)

	missing := &discordgo.ApplicationCommandInteractionDataOption{Name: "file", Value: "999"}
	assert.Nil(t, resolveAttachment(data, missing))
	assert.Nil(t, resolveAttachment(discordgo.ApplicationCommandInteractionData{}, opt))
}

func TestOptionMap(t *testing.T) {
	options := optionMap([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "name", Value: "Air Horn"},
		{Name: "file", Value: "123"},
	})
	assert.Len(t, options, 2)
	assert.Equal(t, "Air Horn", options["name"].Value)
}
