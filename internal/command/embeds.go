package command

import (
	"fmt"
	"strings"
	"time"

	"voice-sweeper/internal/sweep"
	"voice-sweeper/pkg/util"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

const (
	EmbedColor   = 0x5865f2
	WarningColor = 0xf0b232
	ErrorColor   = 0xda373c

	timeFormat = "YYYY-MM-DD hh:mm:ss"
	// maxListedFailures bounds the failure field so the embed stays under
	// Discord's field size limit.
	maxListedFailures = 10
)

func channelMention(id string) string {
	if id == "" {
		return "disabled"
	}
	return "<#" + id + ">"
}

func warningSummary(w sweep.Warning) string {
	switch {
	case !w.Enabled():
		return "disabled"
	case w.Only:
		return channelMention(w.ChannelID) + ", warning only"
	default:
		return fmt.Sprintf("%s, %s before disconnecting", channelMention(w.ChannelID), w.Delay)
	}
}

// lastSweepSummary is a one-line description of a report for status views.
func lastSweepSummary(r *sweep.Report) string {
	if r == nil {
		return "never"
	}
	when := util.FormatTime(r.StartedAt, timeFormat) + " UTC"
	switch {
	case r.Error != "":
		return fmt.Sprintf("%s (%s)\n⚠️ %s", when, r.Trigger, r.Error)
	case r.WarningOnly:
		return fmt.Sprintf("%s (%s)\nWarning posted to %d member(s)", when, r.Trigger, r.Members)
	default:
		return fmt.Sprintf("%s (%s)\n%d disconnected, %d failed", when, r.Trigger, r.Succeeded(), r.Failed())
	}
}

func statusEmbed(target sweep.Target, opts sweep.Options, interval time.Duration, running bool, last *sweep.Report) *discordgo.MessageEmbed {
	state := "💤 Idle"
	if running {
		state = "🧹 Sweeping"
	}
	return embed.NewEmbed().
		SetColor(EmbedColor).
		SetDescription("🔇 **Voice sweep status**").
		AddField("Voice channel", channelMention(target.ChannelID)).
		AddField("Schedule", "every "+interval.String()).
		AddField("Audit log", channelMention(target.LogChannelID)).
		AddField("Warning", warningSummary(opts.Warning)).
		AddField("Skip bots", fmt.Sprintf("%t", opts.SkipBots)).
		AddField("State", state).
		AddField("Last sweep", lastSweepSummary(last)).
		MessageEmbed
}

func reportEmbed(r *sweep.Report) *discordgo.MessageEmbed {
	name := r.ChannelName
	if name == "" {
		name = channelMention(r.ChannelID)
	}

	if r.Error != "" {
		return embed.NewEmbed().
			SetColor(ErrorColor).
			SetDescription(fmt.Sprintf("⚠️ Sweep of **%s** failed\n\n%s", name, r.Error)).
			MessageEmbed
	}
	if r.WarningOnly {
		return embed.NewEmbed().
			SetColor(WarningColor).
			SetDescription(fmt.Sprintf("⏰ Warning posted to %d member(s) of **%s**. Nobody was disconnected.", r.Members, name)).
			MessageEmbed
	}
	if len(r.Outcomes) == 0 {
		return embed.NewEmbed().
			SetColor(EmbedColor).
			SetDescription(fmt.Sprintf("🧹 **%s** is already empty.", name)).
			MessageEmbed
	}

	e := embed.NewEmbed().
		SetColor(EmbedColor).
		SetDescription(fmt.Sprintf("🧹 Sweep of **%s** finished", name)).
		AddField("Disconnected", fmt.Sprintf("%d", r.Succeeded())).
		AddField("Failed", fmt.Sprintf("%d", r.Failed())).
		AddField("Duration", util.FormatDuration(r.Duration())).
		InlineAllFields()

	if failures := failureLines(r.Outcomes); failures != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Failures", Value: failures})
	}
	return e.MessageEmbed
}

func failureLines(outcomes []sweep.Outcome) string {
	var lines []string
	hidden := 0
	for _, o := range outcomes {
		if o.Disconnected {
			continue
		}
		if len(lines) == maxListedFailures {
			hidden++
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s**: %s", o.Tag, o.Error))
	}
	if hidden > 0 {
		lines = append(lines, fmt.Sprintf("…and %d more", hidden))
	}
	return strings.Join(lines, "\n")
}

func noticeEmbed(color int, text string) *discordgo.MessageEmbed {
	return embed.NewEmbed().SetColor(color).SetDescription(text).MessageEmbed
}
