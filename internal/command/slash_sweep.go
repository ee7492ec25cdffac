package command

import (
	"context"
	"errors"

	"voice-sweeper/internal/permissions"
	"voice-sweeper/internal/sweep"
	"voice-sweeper/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

type SweepCommand struct{}

func (c *SweepCommand) Name() string        { return "sweep" }
func (c *SweepCommand) Description() string { return "Disconnect everyone from the voice channel now" }

func (c *SweepCommand) RequiredLevel() permissions.Level { return permissions.Moderator }

func (c *SweepCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *SweepCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slashContext(inv)
	if err != nil {
		return err
	}

	// A warning delay can outlast the interaction deadline.
	if err := sc.Reply.Defer(false); err != nil {
		return err
	}

	report, err := sc.Sweeper.TryRun(ctx, sweep.ManualTrigger(sweep.Tag(invoker(sc.Event))))
	if errors.Is(err, sweep.ErrSweepInProgress) {
		return sc.Reply.EditEmbed(noticeEmbed(WarningColor, "⏳ A sweep is already running. Try again in a moment."))
	}
	if report == nil {
		return sc.Reply.EditEmbed(noticeEmbed(ErrorColor, "⚠️ "+sweep.Classify(err).Message))
	}
	return sc.Reply.EditEmbed(reportEmbed(report))
}

func init() {
	RegisterCommand(&SweepCommand{}, Standard()...)
}
