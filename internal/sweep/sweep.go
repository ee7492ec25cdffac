// Package sweep disconnects everyone from one voice channel and reports what
// happened, member by member.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DefaultReason is the audit log reason attached to every disconnect.
const DefaultReason = "Automatic voice sweep"

// Recorder receives sweep events, typically for metrics.
type Recorder interface {
	SweepFinished(r *Report, err error)
	MemberDisconnected(ok bool)
	AuditFailed()
	SweepSkipped()
}

// Options tune a Sweeper. The zero value is usable.
type Options struct {
	Reason   string
	SkipBots bool
	Warning  Warning
	Logger   *log.Logger
	Recorder Recorder
	// OnReport is called with every finished report, including failed ones.
	OnReport func(*Report)
	// ClientID returns the bot's application id for invite links; it may
	// return "" before the session is ready.
	ClientID func() string
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Sweeper runs sweeps against a single target.
type Sweeper struct {
	platform Platform
	target   Target
	opts     Options
	log      *log.Logger
	running  atomic.Bool
}

// New builds a Sweeper. platform is used for every call; the Sweeper never
// opens or closes it.
func New(platform Platform, target Target, opts Options) *Sweeper {
	if opts.Reason == "" {
		opts.Reason = DefaultReason
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{platform: platform, target: target, opts: opts, log: logger}
}

// Target returns the configured target.
func (s *Sweeper) Target() Target { return s.target }

// Options returns the options the Sweeper was built with.
func (s *Sweeper) Options() Options { return s.opts }

// Running reports whether a sweep is in progress.
func (s *Sweeper) Running() bool { return s.running.Load() }

// TryRun runs a sweep unless one is already in progress, in which case it
// returns ErrSweepInProgress without queueing. Resolution failures are
// classified and logged here; the returned error is the raw one.
func (s *Sweeper) TryRun(ctx context.Context, trigger string) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Printf("[WARN] Sweep skipped (trigger=%s): previous sweep still running", trigger)
		if s.opts.Recorder != nil {
			s.opts.Recorder.SweepSkipped()
		}
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	s.log.Printf("[INFO] Sweep started (trigger=%s)", trigger)
	report, err := s.Run(ctx, trigger)
	if err != nil {
		s.logFailure(err)
	}

	if s.opts.Recorder != nil {
		s.opts.Recorder.SweepFinished(report, err)
	}
	if s.opts.OnReport != nil {
		s.opts.OnReport(report)
	}
	return report, err
}

// Run performs one sweep. The returned report is never nil. An error means
// the guild, the channel or the warning wait failed; per-member failures are
// only recorded in the report.
func (s *Sweeper) Run(ctx context.Context, trigger string) (*Report, error) {
	report := &Report{
		Trigger:   trigger,
		StartedAt: s.opts.Now(),
		GuildID:   s.target.GuildID,
		ChannelID: s.target.ChannelID,
		Outcomes:  []Outcome{},
	}
	finish := func(err error) (*Report, error) {
		report.FinishedAt = s.opts.Now()
		if err != nil {
			report.Error = Classify(err).Message
		}
		return report, err
	}

	channel, err := s.resolve(ctx)
	if channel != nil {
		report.ChannelName = channel.Name
	}
	if err != nil {
		return finish(err)
	}

	members, err := s.platform.VoiceMembers(ctx, s.target.GuildID, channel.ID)
	if err != nil {
		return finish(fmt.Errorf("list members of %s: %w", channel.Name, err))
	}
	members = s.filter(members)
	report.Members = len(members)

	if len(members) == 0 {
		s.log.Printf("[INFO] No members in %s", channel.Name)
		return finish(nil)
	}
	s.log.Printf("[INFO] Members to disconnect in %s: %d", channel.Name, len(members))

	if w := s.opts.Warning; w.Enabled() {
		report.WarningSent = s.warn(ctx, channel.Name, members)
		if w.Only {
			report.WarningOnly = true
			s.log.Printf("[INFO] Warning-only mode, nobody disconnected from %s", channel.Name)
			return finish(nil)
		}
		if err := wait(ctx, w.Delay); err != nil {
			return finish(fmt.Errorf("waiting after warning: %w", err))
		}
	}

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			s.log.Printf("[WARN] Sweep of %s interrupted after %d of %d member(s)", channel.Name, len(report.Outcomes), len(members))
			return finish(fmt.Errorf("sweep interrupted: %w", err))
		}
		report.Outcomes = append(report.Outcomes, s.disconnect(ctx, channel, m))
	}

	report.FinishedAt = s.opts.Now()
	s.log.Printf("[DONE] Sweep of %s finished in %v: %d disconnected, %d failed",
		channel.Name, report.Duration().Round(time.Millisecond), report.Succeeded(), report.Failed())
	return report, nil
}

// resolve looks up the guild then the channel and checks it takes voice.
// The channel is returned whenever it was found, even if unusable.
func (s *Sweeper) resolve(ctx context.Context) (*discordgo.Channel, error) {
	t := s.target

	guild, err := s.platform.Guild(ctx, t.GuildID)
	if err != nil {
		if isNotFound(err, CodeUnknownGuild) {
			return nil, &ResolveError{Kind: ErrServerNotFound, ID: t.GuildID, Err: err}
		}
		return nil, fmt.Errorf("fetch guild %s: %w", t.GuildID, err)
	}

	channel, err := s.platform.Channel(ctx, t.ChannelID)
	if err != nil {
		if isNotFound(err, CodeUnknownChannel) {
			return nil, &ResolveError{Kind: ErrChannelNotFound, ID: t.ChannelID, Err: err}
		}
		return nil, fmt.Errorf("fetch channel %s: %w", t.ChannelID, err)
	}
	if channel == nil || channel.GuildID != guild.ID {
		return nil, &ResolveError{Kind: ErrChannelNotFound, ID: t.ChannelID}
	}
	if !IsVoiceChannel(channel) {
		return channel, &ResolveError{Kind: ErrNotAVoiceChannel, ID: channel.ID, Name: channel.Name}
	}
	return channel, nil
}

func (s *Sweeper) filter(members []*discordgo.Member) []*discordgo.Member {
	out := members[:0:0]
	for _, m := range members {
		if m == nil || m.User == nil {
			s.log.Printf("[WARN] Skipping voice state without a user")
			continue
		}
		if s.opts.SkipBots && m.User.Bot {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *Sweeper) warn(ctx context.Context, channelName string, members []*discordgo.Member) bool {
	w := s.opts.Warning
	msg := WarningMessage(channelName, members, w.Delay, w.Only)
	if err := s.platform.SendMessage(ctx, w.ChannelID, msg); err != nil {
		s.log.Printf("[ERR] Failed to post warning to %s: %v", w.ChannelID, err)
		return false
	}
	s.log.Printf("[INFO] Warning posted for %d member(s) in %s", len(members), channelName)
	return true
}

func (s *Sweeper) disconnect(ctx context.Context, channel *discordgo.Channel, m *discordgo.Member) Outcome {
	tag := Tag(m.User)
	out := Outcome{UserID: m.User.ID, Tag: tag}

	if err := s.platform.Disconnect(ctx, s.target.GuildID, m.User.ID, s.opts.Reason); err != nil {
		out.Err = &DisconnectError{UserID: m.User.ID, Tag: tag, Err: err}
		out.Error = Classify(err).Message
		s.log.Printf("[ERR] Failed to disconnect %s: %v", tag, err)
		s.record(false)
		return out
	}

	out.Disconnected = true
	s.log.Printf("[INFO] %s disconnected", tag)
	s.record(true)

	if s.target.LogChannelID == "" {
		return out
	}
	out.Audited = true
	msg := fmt.Sprintf("🔇 %s disconnected from %s", tag, channel.Name)
	if err := s.platform.SendMessage(ctx, s.target.LogChannelID, msg); err != nil {
		out.AuditErr = &AuditError{ChannelID: s.target.LogChannelID, Err: err}
		out.AuditError = Classify(err).Message
		s.log.Printf("[ERR] Failed to post audit message: %v", out.AuditErr)
		if s.opts.Recorder != nil {
			s.opts.Recorder.AuditFailed()
		}
	}
	return out
}

func (s *Sweeper) record(ok bool) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.MemberDisconnected(ok)
	}
}

func (s *Sweeper) logFailure(err error) {
	if errors.Is(err, context.Canceled) {
		s.log.Printf("[WARN] Sweep cancelled: %v", err)
		return
	}
	advice := Classify(err)
	s.log.Printf("[WARN] ERROR: %s", advice.Message)
	if advice.NeedsInvite && s.opts.ClientID != nil {
		if id := s.opts.ClientID(); id != "" {
			s.log.Printf("[WARN] Invite the bot with this link: %s", InviteURL(id))
		}
	}
}
