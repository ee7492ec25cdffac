package storagetypes

import (
	"time"

	"voice-sweeper/internal/permissions"
	"voice-sweeper/internal/sweep"
)

type CommandHistory struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param,omitempty"`
	Datetime    time.Time `json:"datetime"`
}

// Record is everything persisted for one guild.
type Record struct {
	Whitelist       permissions.Whitelist `json:"whitelist"`
	SweepHistory    []sweep.Report        `json:"sweep_history"`
	CommandsHistory []CommandHistory      `json:"commands_history"`
	CommandHashes   map[string]string     `json:"command_hashes"` // slash command name -> definition hash
}
