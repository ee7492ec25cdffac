package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"voice-sweeper/internal/sweep"
	"voice-sweeper/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
)

// restError lets retrylimit see the HTTP status of a discordgo REST failure.
type restError struct {
	*discordgo.RESTError
}

func (e *restError) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

func (e *restError) Unwrap() error { return e.RESTError }

func wrapREST(err error) error {
	var re *discordgo.RESTError
	if errors.As(err, &re) {
		return &restError{re}
	}
	return err
}

// SessionPlatform implements sweep.Platform over a live discordgo session.
// Reads come from the state cache first; REST calls are retried on 429, 5xx
// and transport errors.
type SessionPlatform struct {
	s     *discordgo.Session
	lim   *retrylimit.AdaptiveLimiter
	retry retrylimit.RetryConfig
}

var _ sweep.Platform = (*SessionPlatform)(nil)

func NewSessionPlatform(s *discordgo.Session) *SessionPlatform {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = 250 * time.Millisecond
	cfg.MaxDelay = 2 * time.Second
	cfg.Retryable = retrylimit.Transient
	return &SessionPlatform{
		s:     s,
		lim:   retrylimit.NewAdaptiveLimiter(10, 1, 40, 1, 0.5),
		retry: cfg,
	}
}

func (p *SessionPlatform) do(ctx context.Context, fn func() error) error {
	return retrylimit.WithRetryConfig(ctx, func() error {
		return wrapREST(fn())
	}, p.lim, p.retry)
}

func (p *SessionPlatform) Guild(ctx context.Context, id string) (*discordgo.Guild, error) {
	if g, err := p.s.State.Guild(id); err == nil {
		return g, nil
	}
	var g *discordgo.Guild
	err := p.do(ctx, func() (err error) {
		g, err = p.s.Guild(id, discordgo.WithContext(ctx))
		return err
	})
	return g, err
}

func (p *SessionPlatform) Channel(ctx context.Context, id string) (*discordgo.Channel, error) {
	if ch, err := p.s.State.Channel(id); err == nil {
		return ch, nil
	}
	var ch *discordgo.Channel
	err := p.do(ctx, func() (err error) {
		ch, err = p.s.Channel(id, discordgo.WithContext(ctx))
		return err
	})
	return ch, err
}

// VoiceMembers lists members whose voice state points at channelID. Voice
// states only exist in the gateway cache, so the guild must be cached.
func (p *SessionPlatform) VoiceMembers(ctx context.Context, guildID, channelID string) ([]*discordgo.Member, error) {
	g, err := p.s.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild %s is not cached: %w", guildID, err)
	}

	p.s.State.RLock()
	var states []*discordgo.VoiceState
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID {
			states = append(states, vs)
		}
	}
	p.s.State.RUnlock()

	members := make([]*discordgo.Member, 0, len(states))
	for _, vs := range states {
		members = append(members, p.member(ctx, guildID, vs))
	}
	return members, nil
}

func (p *SessionPlatform) member(ctx context.Context, guildID string, vs *discordgo.VoiceState) *discordgo.Member {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member
	}
	if m, err := p.s.State.Member(guildID, vs.UserID); err == nil {
		return m
	}
	var m *discordgo.Member
	err := p.do(ctx, func() (err error) {
		m, err = p.s.GuildMember(guildID, vs.UserID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		log.Printf("[WARN] Failed to fetch member %s: %v", vs.UserID, err)
		return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: vs.UserID, Username: vs.UserID}}
	}
	return m
}

// Disconnect moves the member out of voice, with reason in the audit log.
func (p *SessionPlatform) Disconnect(ctx context.Context, guildID, userID, reason string) error {
	return p.do(ctx, func() error {
		return p.s.GuildMemberMove(guildID, userID, nil,
			discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	})
}

func (p *SessionPlatform) SendMessage(ctx context.Context, channelID, content string) error {
	return p.do(ctx, func() error {
		_, err := p.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
		return err
	})
}
