package command

import (
	"context"
	"errors"

	"voice-sweeper/internal/config"
	"voice-sweeper/internal/permissions"
	"voice-sweeper/internal/storage"
	"voice-sweeper/internal/sweep"
	"voice-sweeper/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Discord-specific context (what the runtime passes when executing).

// SlashInteractionContext is the Invocation.Data of every slash command.
type SlashInteractionContext struct {
	Session *discordgo.Session // nil outside a live session
	Event   *discordgo.InteractionCreate
	Guild   *discordgo.Guild // nil when the guild is not cached
	Storage *storage.Storage
	Sweeper SweepRunner
	Config  *config.Config
	Reply   Responder
}

// Responder answers an interaction. The Discord adapter implements it over a
// session so commands never import the discord package.
type Responder interface {
	Respond(content string, ephemeral bool) error
	RespondEmbed(embed *discordgo.MessageEmbed, ephemeral bool) error
	// Defer acknowledges now; the answer follows through EditEmbed.
	Defer(ephemeral bool) error
	EditEmbed(embed *discordgo.MessageEmbed) error
}

// SweepRunner is the part of *sweep.Sweeper commands use.
type SweepRunner interface {
	TryRun(ctx context.Context, trigger string) (*sweep.Report, error)
	Target() sweep.Target
	Options() sweep.Options
	Running() bool
}

// Providers: how a command is registered with Discord.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Leveled is implemented by commands that need a minimum access level.
type Leveled interface {
	RequiredLevel() permissions.Level
}

var errWrongContext = errors.New("wrong context type")

// slashContext extracts the Discord context from an invocation.
func slashContext(inv *cmd.Invocation) (*SlashInteractionContext, error) {
	if inv == nil {
		return nil, errWrongContext
	}
	sc, ok := inv.Data.(*SlashInteractionContext)
	if !ok || sc == nil || sc.Event == nil || sc.Reply == nil {
		return nil, errWrongContext
	}
	return sc, nil
}

// invoker returns the user behind the interaction, in a guild or a DM.
func invoker(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	return e.User
}

// RegisterCommand registers a command with the default registry and applies
// the standard middlewares.
func RegisterCommand(c cmd.Command, mws ...cmd.Middleware) {
	cmd.DefaultRegistry.Register(cmd.Apply(c, mws...))
}

// Standard is the middleware chain every slash command runs behind.
func Standard() []cmd.Middleware {
	return []cmd.Middleware{WithGuildOnly(), WithCommandLog(), WithAccessCheck()}
}
