package sweep

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Warning configures the optional notice posted before members are
// disconnected. An empty ChannelID disables it.
type Warning struct {
	ChannelID string
	Delay     time.Duration
	// Only posts the notice and skips the disconnects.
	Only bool
}

// Enabled reports whether a warning is posted before the sweep.
func (w Warning) Enabled() bool { return w.ChannelID != "" }

// WarningMessage is the notice posted to the warning channel.
func WarningMessage(channelName string, members []*discordgo.Member, delay time.Duration, only bool) string {
	mentions := make([]string, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			mentions = append(mentions, m.User.Mention())
		}
	}

	var b strings.Builder
	if only {
		fmt.Fprintf(&b, "⏰ **Time to leave %s!**\n", channelName)
		b.WriteString("Nobody gets disconnected this time, but please wrap it up.")
	} else {
		fmt.Fprintf(&b, "⏰ **%s is being cleared in %s.**\n", channelName, delay.Round(time.Second))
		b.WriteString("Leave now or you will be disconnected.")
	}
	if len(mentions) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(mentions, " "))
	}
	return b.String()
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
