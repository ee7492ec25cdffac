package command

import (
	"context"
	"log"
	"time"

	"voice-sweeper/internal/permissions"
	"voice-sweeper/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

type StatusCommand struct{}

func (c *StatusCommand) Name() string { return "status" }
func (c *StatusCommand) Description() string {
	return "Show the voice sweep schedule and the last sweep"
}

func (c *StatusCommand) RequiredLevel() permissions.Level { return permissions.User }

func (c *StatusCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *StatusCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slashContext(inv)
	if err != nil {
		return err
	}

	target := sc.Sweeper.Target()
	last, err := sc.Storage.LastSweep(target.GuildID)
	if err != nil {
		log.Println("[WARN] Failed to read sweep history:", err)
	}

	var interval time.Duration
	if sc.Config != nil {
		interval = sc.Config.SweepInterval
	}
	return sc.Reply.RespondEmbed(statusEmbed(target, sc.Sweeper.Options(), interval, sc.Sweeper.Running(), last), true)
}

func init() {
	RegisterCommand(&StatusCommand{}, Standard()...)
}
