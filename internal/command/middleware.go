package command

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"voice-sweeper/internal/permissions"
	st "voice-sweeper/internal/storagetypes"
	"voice-sweeper/pkg/cmd"
)

// WithGuildOnly refuses commands used outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			sc, err := slashContext(inv)
			if err != nil {
				return err
			}
			if sc.Event.GuildID == "" {
				return sc.Reply.Respond("You must be in a guild to use this command.", true)
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithAccessCheck enforces the RequiredLevel of the underlying command.
func WithAccessCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			leveled, ok := cmd.Root(c).(Leveled)
			if !ok || leveled.RequiredLevel() == permissions.None {
				return c.Run(ctx, inv)
			}
			sc, err := slashContext(inv)
			if err != nil {
				return err
			}

			have, err := ResolveLevel(sc)
			if err != nil {
				return fmt.Errorf("resolve permissions: %w", err)
			}
			if have < leveled.RequiredLevel() {
				return sc.Reply.Respond(fmt.Sprintf("🚫 `/%s` requires %s access.", c.Name(), leveled.RequiredLevel().Label()), true)
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithCommandLog appends every invocation to the guild's command history.
func WithCommandLog() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if sc, err := slashContext(inv); err == nil && sc.Storage != nil && sc.Event.GuildID != "" {
				if err := logCommand(sc, c.Name(), inv.Args); err != nil {
					log.Println("[WARN] Failed to log command:", err)
				}
			}
			return c.Run(ctx, inv)
		})
	}
}

// ResolveLevel computes the caller's access level in the interaction's guild.
func ResolveLevel(sc *SlashInteractionContext) (permissions.Level, error) {
	w, err := sc.Storage.Whitelist(sc.Event.GuildID)
	if err != nil {
		return permissions.None, err
	}
	developer := ""
	if sc.Config != nil {
		developer = sc.Config.DeveloperID
	}
	return permissions.Resolve(w, permissions.SubjectFromMember(sc.Guild, sc.Event.Member), developer), nil
}

func logCommand(sc *SlashInteractionContext, name string, args []string) error {
	rec := st.CommandHistory{
		ChannelID: sc.Event.ChannelID,
		Command:   name,
		Datetime:  time.Now().UTC(),
	}
	rec.Param = strings.Join(args, " ")
	if u := invoker(sc.Event); u != nil {
		rec.UserID = u.ID
		rec.Username = u.Username
	}
	if sc.Guild != nil {
		rec.GuildName = sc.Guild.Name
	}
	if sc.Session != nil && sc.Session.State != nil {
		if ch, err := sc.Session.State.Channel(sc.Event.ChannelID); err == nil {
			rec.ChannelName = ch.Name
		}
	}
	return sc.Storage.AppendCommandToHistory(sc.Event.GuildID, rec)
}
