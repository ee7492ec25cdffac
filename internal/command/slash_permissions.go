package command

import (
	"context"
	"fmt"
	"strings"

	"voice-sweeper/internal/permissions"
	"voice-sweeper/pkg/cmd"
	"voice-sweeper/pkg/util"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

type PermissionsCommand struct{}

func (c *PermissionsCommand) Name() string        { return "permissions" }
func (c *PermissionsCommand) Description() string { return "Manage who may use the bot's commands" }

func (c *PermissionsCommand) RequiredLevel() permissions.Level { return permissions.Admin }

func levelOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "level",
		Description: "Access level to grant",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "User", Value: permissions.User.String()},
			{Name: "Moderator", Value: permissions.Moderator.String()},
			{Name: "Admin", Value: permissions.Admin.String()},
		},
	}
}

func userOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: desc,
		Required:    true,
	}
}

func roleOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: desc,
		Required:    true,
	}
}

func (c *PermissionsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	sub := func(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: desc,
			Options:     opts,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			sub("list", "Show the whitelist"),
			sub("add-user", "Grant a level to a user", userOption("User to grant"), levelOption()),
			sub("add-role", "Grant a level to a role", roleOption("Role to grant"), levelOption()),
			sub("remove-user", "Remove a user from the whitelist", userOption("User to remove")),
			sub("remove-role", "Remove a role from the whitelist", roleOption("Role to remove")),
			sub("check", "Show the effective level of a user", userOption("User to check")),
		},
	}
}

func (c *PermissionsCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slashContext(inv)
	if err != nil {
		return err
	}

	data := sc.Event.ApplicationCommandData()
	if len(data.Options) == 0 {
		return sc.Reply.Respond("Missing subcommand.", true)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	by := ""
	if u := invoker(sc.Event); u != nil {
		by = u.ID
	}
	guildID := sc.Event.GuildID

	switch sub.Name {
	case "list":
		w, err := sc.Storage.Whitelist(guildID)
		if err != nil {
			return err
		}
		return sc.Reply.RespondEmbed(whitelistEmbed(w), true)

	case "add-user", "add-role":
		id := opts["user"]
		kind, mention := "user", "<@"+id+">"
		if sub.Name == "add-role" {
			id = opts["role"]
			kind, mention = "role", "<@&"+id+">"
		}
		level, err := permissions.ParseLevel(opts["level"])
		if err != nil || id == "" {
			return sc.Reply.Respond("Invalid arguments.", true)
		}
		err = sc.Storage.UpdateWhitelist(guildID, func(w *permissions.Whitelist) error {
			if kind == "role" {
				w.SetRole(id, level, by)
			} else {
				w.SetUser(id, level, by)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("update whitelist: %w", err)
		}
		return sc.Reply.Respond(fmt.Sprintf("✅ Granted %s to %s %s.", level.Label(), kind, mention), true)

	case "remove-user", "remove-role":
		id, mention := opts["user"], "<@"+opts["user"]+">"
		if sub.Name == "remove-role" {
			id, mention = opts["role"], "<@&"+opts["role"]+">"
		}
		removed := false
		err := sc.Storage.UpdateWhitelist(guildID, func(w *permissions.Whitelist) error {
			if sub.Name == "remove-role" {
				removed = w.RemoveRole(id, by)
			} else {
				removed = w.RemoveUser(id, by)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("update whitelist: %w", err)
		}
		if !removed {
			return sc.Reply.Respond(fmt.Sprintf("%s is not on the whitelist.", mention), true)
		}
		return sc.Reply.Respond(fmt.Sprintf("🗑️ Removed %s from the whitelist.", mention), true)

	case "check":
		id := opts["user"]
		w, err := sc.Storage.Whitelist(guildID)
		if err != nil {
			return err
		}
		developer := ""
		if sc.Config != nil {
			developer = sc.Config.DeveloperID
		}
		level := permissions.Resolve(w, checkedSubject(sc, data.Resolved, id), developer)
		return sc.Reply.Respond(fmt.Sprintf("<@%s> has %s access.", id, level.Label()), true)
	}

	return sc.Reply.Respond("Unknown subcommand.", true)
}

// checkedSubject builds the subject for a user picked in an option. Resolved
// members carry roles and permissions but not the user itself.
func checkedSubject(sc *SlashInteractionContext, resolved *discordgo.ApplicationCommandInteractionDataResolved, userID string) permissions.Subject {
	s := permissions.Subject{UserID: userID}
	if sc.Guild != nil {
		s.Owner = sc.Guild.OwnerID == userID
	}
	if resolved == nil {
		return s
	}
	if m, ok := resolved.Members[userID]; ok && m != nil {
		s.RoleIDs = m.Roles
		s.Administrator = m.Permissions&discordgo.PermissionAdministrator != 0
	}
	return s
}

// optionMap flattens string-valued options (users and roles arrive as ids).
func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(opts))
	for _, o := range opts {
		if v, ok := o.Value.(string); ok {
			out[o.Name] = v
		}
	}
	return out
}

func whitelistEmbed(w permissions.Whitelist) *discordgo.MessageEmbed {
	lines := func(entries []permissions.Entry, mention func(string) string) string {
		if len(entries) == 0 {
			return "none"
		}
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%s %s\n", e.Level.Label(), mention(e.ID))
		}
		return strings.TrimSuffix(b.String(), "\n")
	}

	e := embed.NewEmbed().
		SetColor(EmbedColor).
		SetDescription("🔐 **Command whitelist**\nServer owners and administrators always have admin access.").
		AddField("Users", lines(w.SortedUsers(), func(id string) string { return "<@" + id + ">" })).
		AddField("Roles", lines(w.SortedRoles(), func(id string) string { return "<@&" + id + ">" }))
	users, roles := w.Counts()
	footer := fmt.Sprintf("%d user(s), %d role(s)", users, roles)
	if !w.LastModified.IsZero() {
		footer += " · last modified " + util.FormatTime(w.LastModified, "YYYY-MM-DD hh:mm") + " UTC"
	}
	e.SetFooter(footer)
	return e.MessageEmbed
}

func init() {
	RegisterCommand(&PermissionsCommand{}, Standard()...)
}
