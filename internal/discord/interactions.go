package discord

import (
	"log"

	"voice-sweeper/internal/command"

	"github.com/bwmarrin/discordgo"
)

// responder answers one interaction on behalf of a command.
type responder struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

var _ command.Responder = (*responder)(nil)

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (r *responder) Respond(content string, ephemeral bool) error {
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags(ephemeral)},
	})
}

func (r *responder) RespondEmbed(embed *discordgo.MessageEmbed, ephemeral bool) error {
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags(ephemeral),
		},
	})
}

func (r *responder) Defer(ephemeral bool) error {
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
}

func (r *responder) EditEmbed(embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := r.s.InteractionResponseEdit(r.i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

// replyError reports a failed command to its caller. A deferred interaction
// cannot take a fresh response, so the edit is tried when that fails.
func (r *responder) replyError(err error) {
	e := &discordgo.MessageEmbed{Description: "⚠️ " + err.Error(), Color: command.ErrorColor}
	if rerr := r.RespondEmbed(e, true); rerr != nil {
		if eerr := r.EditEmbed(e); eerr != nil {
			log.Println("[ERR] Failed to report command error:", eerr)
		}
	}
}
