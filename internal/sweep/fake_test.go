package sweep

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type sent struct {
	channelID string
	content   string
}

// fakePlatform is an in-memory Platform that records every mutating call.
type fakePlatform struct {
	mu sync.Mutex

	guilds        map[string]*discordgo.Guild
	channels      map[string]*discordgo.Channel
	members       map[string][]*discordgo.Member
	guildErr      error
	disconnectErr map[string]error
	sendErr       map[string]error
	// gate, when set, blocks Disconnect until it is closed.
	gate    chan struct{}
	entered chan struct{}
	// afterDisconnect runs after every recorded Disconnect.
	afterDisconnect func(userID string)

	disconnects []string
	reasons     []string
	sends       []sent
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		guilds:        map[string]*discordgo.Guild{"g1": {ID: "g1", Name: "Guild"}},
		channels:      map[string]*discordgo.Channel{},
		members:       map[string][]*discordgo.Member{},
		disconnectErr: map[string]error{},
		sendErr:       map[string]error{},
	}
}

func (f *fakePlatform) addVoice(id, name string, users ...string) {
	f.channels[id] = &discordgo.Channel{ID: id, GuildID: "g1", Name: name, Type: discordgo.ChannelTypeGuildVoice}
	for _, u := range users {
		f.members[id] = append(f.members[id], member(u))
	}
}

func member(name string) *discordgo.Member {
	return &discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "id-" + name, Username: name}}
}

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "error"},
	}
}

func (f *fakePlatform) Guild(_ context.Context, id string) (*discordgo.Guild, error) {
	if f.guildErr != nil {
		return nil, f.guildErr
	}
	g, ok := f.guilds[id]
	if !ok {
		return nil, restErr(http.StatusNotFound, CodeUnknownGuild)
	}
	return g, nil
}

func (f *fakePlatform) Channel(_ context.Context, id string) (*discordgo.Channel, error) {
	ch, ok := f.channels[id]
	if !ok {
		return nil, restErr(http.StatusNotFound, CodeUnknownChannel)
	}
	return ch, nil
}

func (f *fakePlatform) VoiceMembers(_ context.Context, _, channelID string) ([]*discordgo.Member, error) {
	return f.members[channelID], nil
}

func (f *fakePlatform) Disconnect(ctx context.Context, _, userID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.afterDisconnect != nil {
		defer f.afterDisconnect(userID)
	}
	if f.gate != nil {
		if f.entered != nil {
			select {
			case f.entered <- struct{}{}:
			default:
			}
		}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects = append(f.disconnects, userID)
	f.reasons = append(f.reasons, reason)
	return f.disconnectErr[userID]
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sent{channelID, content})
	return f.sendErr[channelID]
}

func (f *fakePlatform) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.disconnects)
}

type countingRecorder struct {
	mu                           sync.Mutex
	finished, ok, failed, audits int
	skipped                      int
	lastErr                      error
}

func (c *countingRecorder) SweepFinished(_ *Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished++
	c.lastErr = err
}

func (c *countingRecorder) MemberDisconnected(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func (c *countingRecorder) AuditFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audits++
}

func (c *countingRecorder) SweepSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped++
}

// syncBuffer is a bytes.Buffer safe for a logger shared across goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newLogger() (*log.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return log.New(buf, "", 0), buf
}

func countLines(out, substr string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func countSuffix(out, suffix string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasSuffix(line, suffix) {
			n++
		}
	}
	return n
}
