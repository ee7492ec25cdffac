package sweep

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord JSON error codes the classifier knows about.
const (
	CodeUnknownChannel     = 10003
	CodeUnknownGuild       = 10004
	CodeUnknownMember      = 10007
	CodeUserNotInVoice     = 40032
	CodeMissingAccess      = 50001
	CodeMissingPermissions = 50013
)

// InvitePermissions is what the bot needs on the target channel.
const InvitePermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionVoiceConnect |
	discordgo.PermissionVoiceMoveMembers

// Advice is the operator-facing reading of an error. It never changes
// control flow.
type Advice struct {
	Code        int
	Message     string
	NeedsInvite bool
}

var knownCodes = map[int]Advice{
	CodeUnknownGuild:       {Message: "The bot is not a member of this server. An invite is required.", NeedsInvite: true},
	CodeUnknownChannel:     {Message: "Voice channel not found. Check CHANNEL_ID."},
	CodeUnknownMember:      {Message: "The member is no longer in the server."},
	CodeUserNotInVoice:     {Message: "The member already left the voice channel."},
	CodeMissingAccess:      {Message: "Missing access. The bot cannot see the channel."},
	CodeMissingPermissions: {Message: "Missing permissions. The bot needs Move Members on the channel."},
}

// Classify maps err to advisory text. Unknown errors fall back to their own
// message.
func Classify(err error) Advice {
	if err == nil {
		return Advice{}
	}

	if code := RESTCode(err); code != 0 {
		if a, ok := knownCodes[code]; ok {
			a.Code = code
			return a
		}
	}

	var resolve *ResolveError
	switch {
	case errors.Is(err, ErrServerNotFound):
		return knownCodes[CodeUnknownGuild]
	case errors.Is(err, ErrChannelNotFound):
		return knownCodes[CodeUnknownChannel]
	case errors.As(err, &resolve) && resolve.Kind == ErrNotAVoiceChannel:
		name := resolve.Name
		if name == "" {
			name = resolve.ID
		}
		return Advice{Message: fmt.Sprintf("Channel %s is not a voice channel.", name)}
	}

	return Advice{Code: RESTCode(err), Message: err.Error()}
}

// InviteURL builds the OAuth2 link that adds the bot with the permissions a
// sweep needs.
func InviteURL(clientID string) string {
	return fmt.Sprintf("https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands",
		clientID, InvitePermissions)
}
