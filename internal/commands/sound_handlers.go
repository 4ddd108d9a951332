package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services"
)

const (
	downloadTimeout = 60 * time.Second
	ingestTimeout   = 2 * time.Minute
	playWaitTimeout = 10 * time.Minute
	connectTimeout  = 15 * time.Second
)

// handleUpload handles the upload command
func (h *Handler) handleUpload(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	options := optionMap(data.Options)

	nameOpt, okName := options[optionName]
	fileOpt, okFile := options[optionFile]
	if !okName || !okFile {
		return respondError(s, i, "Please provide a name and a file")
	}

	attachment := resolveAttachment(data, fileOpt)
	if attachment == nil {
		return respondError(s, i, "Please attach a file")
	}

	if h.config.MaxUploadBytes > 0 && int64(attachment.Size) > h.config.MaxUploadBytes {
		return respondError(s, i, errors.GetUserMessage(errors.ErrFileTooLarge))
	}

	if err := deferResponse(s, i); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	body, err := h.download(ctx, attachment.URL)
	if err != nil {
		h.logger.WithError(err).WithField("file", attachment.Filename).Warn("Failed to download attachment")
		return followUpError(s, i, "Could not download the attachment, please try again")
	}
	defer body.Close()

	entry, err := h.ingestionService.Ingest(ctx, services.UploadRequest{
		Name:         nameOpt.StringValue(),
		FilenameHint: attachment.Filename,
		Body:         body,
		RequestedBy:  interactionUser(i).ID,
		Source:       "discord",
	})
	if err != nil {
		return followUpError(s, i, errors.GetUserMessage(err))
	}

	return followUpSuccess(s, i, fmt.Sprintf("Uploaded sound: **%s**", entry.Name))
}

// download fetches an attachment body
func (h *Handler) download(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelOnClose releases the download context together with the body
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// handlePlay handles the play command
func (h *Handler) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := optionMap(i.ApplicationCommandData().Options)
	soundOpt, ok := options[optionSound]
	if !ok {
		return respondError(s, i, "Please choose a sound")
	}
	name := soundOpt.StringValue()

	if err := deferResponse(s, i); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	playback, err := h.playbackService.Play(ctx, h.destination(s, i), name)
	if err != nil {
		return followUpError(s, i, errors.GetUserMessage(err))
	}

	select {
	case <-playback.Done():
	case <-time.After(playWaitTimeout):
		return followUpSuccess(s, i, fmt.Sprintf("Playing sound: **%s**", name))
	}

	if playback.Stopped() {
		return followUpSuccess(s, i, fmt.Sprintf("Stopped sound: **%s**", name))
	}

	if err := playback.Err(); err != nil {
		h.logger.WithError(err).WithField("sound", name).Warn("Playback ended with error")
		return followUpError(s, i, "Playback failed, please try again")
	}

	return followUpSuccess(s, i, fmt.Sprintf("Played sound: **%s**", name))
}

// handleSounds handles the sounds command
func (h *Handler) handleSounds(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	names := lo.Map(h.catalogService.List(), func(e entities.SoundEntry, _ int) string {
		return e.Name
	})

	embed, components := buildSoundsPage(names, 0)
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// optionMap indexes options by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	return lo.SliceToMap(options, func(o *discordgo.ApplicationCommandInteractionDataOption) (string, *discordgo.ApplicationCommandInteractionDataOption) {
		return o.Name, o
	})
}

// resolveAttachment looks up the attachment referenced by an option
func resolveAttachment(data discordgo.ApplicationCommandInteractionData, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.MessageAttachment {
	if data.Resolved == nil || opt == nil {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	return data.Resolved.Attachments[id]
}

// focusedValue returns the text typed so far into the focused option
func focusedValue(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Focused || opt.Name == name {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// autocompleteChoices turns sound names into command choices
func autocompleteChoices(names []string) []*discordgo.ApplicationCommandOptionChoice {
	return lo.Map(names, func(name string, _ int) *discordgo.ApplicationCommandOptionChoice {
		return &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		}
	})
}
