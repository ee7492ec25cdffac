package sweep

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Platform is the slice of the chat platform a sweep needs. Implementations
// carry ctx into every REST call they make.
type Platform interface {
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	// VoiceMembers lists the members currently connected to a voice channel,
	// in the order the platform reports them.
	VoiceMembers(ctx context.Context, guildID, channelID string) ([]*discordgo.Member, error)
	Disconnect(ctx context.Context, guildID, userID, reason string) error
	SendMessage(ctx context.Context, channelID, content string) error
}

// Target identifies the voice channel to sweep and where audit messages go.
// An empty LogChannelID disables audit messages.
type Target struct {
	GuildID      string `json:"guild_id"`
	ChannelID    string `json:"channel_id"`
	LogChannelID string `json:"log_channel_id,omitempty"`
}

// Tag renders a user the way Discord clients show it: the bare username for
// migrated accounts, name#1234 for legacy ones.
func Tag(u *discordgo.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// IsVoiceChannel reports whether members can connect to ch.
func IsVoiceChannel(ch *discordgo.Channel) bool {
	return ch != nil && (ch.Type == discordgo.ChannelTypeGuildVoice || ch.Type == discordgo.ChannelTypeGuildStageVoice)
}
