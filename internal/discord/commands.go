package discord

import (
	"fmt"
	"log"
	"time"

	"voice-sweeper/internal/command"
	"voice-sweeper/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// commandAPI is the slice of *discordgo.Session used to sync definitions.
type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, c *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// hashStore persists the hash of every definition last pushed to a guild.
type hashStore interface {
	CommandHashes(guildID string) (map[string]string, error)
	SetCommandHash(guildID, name, hash string) error
	DeleteCommandHash(guildID, name string) error
}

// registerDelay keeps bursts of creates well under Discord's rate limit.
var registerDelay = 25 * time.Millisecond

// buildCommandDefinitions returns the slash definitions of every registered
// command, walking through middleware wrappers.
func buildCommandDefinitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		slash, ok := cmd.Root(c).(command.SlashProvider)
		if !ok {
			continue
		}
		def := slash.SlashDefinition()
		if def == nil {
			continue
		}
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		defs = append(defs, def)
	}
	return defs
}

// syncCommands makes the guild's remote commands match defs: obsolete ones
// are deleted, and a definition is created when it is missing remotely or
// its hash differs from the stored one.
func syncCommands(api commandAPI, store hashStore, appID, guildID string, defs []*discordgo.ApplicationCommand) error {
	remote, err := api.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	hashes, err := store.CommandHashes(guildID)
	if err != nil {
		return fmt.Errorf("load command hashes: %w", err)
	}

	wanted := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		wanted[d.Name] = struct{}{}
	}
	registered := make(map[string]struct{}, len(remote))
	for _, rc := range remote {
		if _, ok := wanted[rc.Name]; ok {
			registered[rc.Name] = struct{}{}
			continue
		}
		log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, rc.Name)
		if err := api.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, rc.Name, err)
			continue
		}
		if err := store.DeleteCommandHash(guildID, rc.Name); err != nil {
			log.Printf("[WARN] [%s] Failed to forget hash of %s: %v", guildID, rc.Name, err)
		}
	}

	var changed []*discordgo.ApplicationCommand
	for _, d := range defs {
		_, present := registered[d.Name]
		if !present || hashes[d.Name] != hashCommand(d) {
			changed = append(changed, d)
		}
	}
	if len(changed) == 0 {
		log.Printf("[INFO] [%s] Slash commands are up to date", guildID)
		return nil
	}

	log.Printf("[INFO] [%s] Registering %d changed command(s)...", guildID, len(changed))
	for i, d := range changed {
		if i > 0 {
			time.Sleep(registerDelay)
		}
		if _, err := api.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Printf("[ERR] [%s] Failed to register %s: %v", guildID, d.Name, err)
			continue
		}
		if err := store.SetCommandHash(guildID, d.Name, hashCommand(d)); err != nil {
			log.Printf("[WARN] [%s] Failed to store hash of %s: %v", guildID, d.Name, err)
		}
		log.Printf("[DONE] [%s] Registered: %s", guildID, d.Name)
	}
	return nil
}

// registerCommands syncs the default registry with the guild.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}
	return syncCommands(b.dg, b.storage, appID, guildID, buildCommandDefinitions(cmd.DefaultRegistry))
}

// appID returns the bot's application ID, fetching it when State has none.
func (b *Bot) appID() (string, error) {
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}
