package discord

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// stableCommand and stableOption hold the fields of a definition that the
// user sees. IDs and versions assigned by Discord are left out.
type stableCommand struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description"`
	Type        discordgo.ApplicationCommandType `json:"type"`
	Options     []stableOption                   `json:"options,omitempty"`
}

type stableOption struct {
	Name        string                                 `json:"name"`
	Description string                                 `json:"description"`
	Type        discordgo.ApplicationCommandOptionType `json:"type"`
	Required    bool                                   `json:"required"`
	Choices     []stableChoice                         `json:"choices,omitempty"`
	Options     []stableOption                         `json:"options,omitempty"`
}

type stableChoice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// hashCommand returns a deterministic SHA-1 of a definition. Options are
// compared by name so their declaration order does not matter.
func hashCommand(c *discordgo.ApplicationCommand) string {
	data, _ := json.Marshal(stableCommand{
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
		Options:     stableOptions(c.Options),
	})
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func stableOptions(opts []*discordgo.ApplicationCommandOption) []stableOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]stableOption, 0, len(opts))
	for _, o := range opts {
		so := stableOption{
			Name:        o.Name,
			Description: o.Description,
			Type:        o.Type,
			Required:    o.Required,
			Options:     stableOptions(o.Options),
		}
		for _, ch := range o.Choices {
			so.Choices = append(so.Choices, stableChoice{Name: ch.Name, Value: ch.Value})
		}
		out = append(out, so)
	}
	slices.SortFunc(out, func(a, b stableOption) int { return strings.Compare(a.Name, b.Name) })
	return out
}
