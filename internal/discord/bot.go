package discord

import (
	"context"
	"errors"
	"fmt"
	"log"

	"voice-sweeper/internal/command"
	"voice-sweeper/internal/config"
	"voice-sweeper/internal/storage"
	"voice-sweeper/internal/sweep"
	"voice-sweeper/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Lifecycle hooks are called by Run. OnReady fires on every gateway READY,
// so it must tolerate reconnects. OnShutdown fires once, before the session
// is closed.
type Lifecycle struct {
	OnReady    func(ctx context.Context)
	OnShutdown func(ctx context.Context)
}

// Bot owns the Discord session for the lifetime of the process.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	platform *SessionPlatform
	registry *cmd.Registry

	ctx     context.Context
	sweeper command.SweepRunner
	hooks   Lifecycle
}

// New creates the session without connecting it.
func New(cfg *config.Config, store *storage.Storage) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	return &Bot{
		dg:       dg,
		cfg:      cfg,
		storage:  store,
		platform: NewSessionPlatform(dg),
		registry: cmd.DefaultRegistry,
	}, nil
}

// Platform exposes the session to the sweeper.
func (b *Bot) Platform() sweep.Platform { return b.platform }

// ClientID is the bot's user id once the session is ready, "" before.
func (b *Bot) ClientID() string {
	if b.dg.State == nil || b.dg.State.User == nil {
		return ""
	}
	return b.dg.State.User.ID
}

// Run connects, serves interactions and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, sweeper command.SweepRunner, hooks Lifecycle) error {
	b.ctx = ctx
	b.sweeper = sweeper
	b.hooks = hooks

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")

	if b.hooks.OnShutdown != nil {
		b.hooks.OnShutdown(context.WithoutCancel(ctx))
	}
	if err := b.dg.Close(); err != nil {
		return fmt.Errorf("failed to close Discord session: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] ✅ Logged in as %s", sweep.Tag(r.User))

	if err := b.registerCommands(b.cfg.GuildID); err != nil {
		log.Printf("[ERR] Failed to register slash commands for guild %s: %v", b.cfg.GuildID, err)
	}
	if b.hooks.OnReady != nil {
		b.hooks.OnReady(b.ctx)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	c := b.registry.Get(data.Name)
	if c == nil {
		log.Printf("[WARN] Unknown command: %s", data.Name)
		return
	}

	reply := &responder{s: s, i: i}
	sc := &command.SlashInteractionContext{
		Session: s,
		Event:   i,
		Storage: b.storage,
		Sweeper: b.sweeper,
		Config:  b.cfg,
		Reply:   reply,
	}
	if i.GuildID != "" {
		if g, err := s.State.Guild(i.GuildID); err == nil {
			sc.Guild = g
		}
	}

	err := c.Run(b.ctx, &cmd.Invocation{Args: commandArgs(data.Options), Data: sc})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERR] Error running /%s: %v", data.Name, err)
		reply.replyError(err)
	}
}

// commandArgs flattens options into the words a user typed, subcommand
// names first.
func commandArgs(opts []*discordgo.ApplicationCommandInteractionDataOption) []string {
	var args []string
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			args = append(args, o.Name)
			args = append(args, commandArgs(o.Options)...)
		default:
			args = append(args, fmt.Sprint(o.Value))
		}
	}
	return args
}
