package sweep

import "time"

// TriggerSchedule marks sweeps started by the recurring job.
const TriggerSchedule = "schedule"

// ManualTrigger names a sweep started by a user.
func ManualTrigger(tag string) string { return "manual:" + tag }

// Outcome is the result of disconnecting one member.
type Outcome struct {
	UserID       string `json:"user_id"`
	Tag          string `json:"tag"`
	Disconnected bool   `json:"disconnected"`
	Error        string `json:"error,omitempty"`
	Audited      bool   `json:"audited"`
	AuditError   string `json:"audit_error,omitempty"`

	// Err is the *DisconnectError and AuditErr the *AuditError behind the
	// text fields. Neither survives serialisation.
	Err      error `json:"-"`
	AuditErr error `json:"-"`
}

// Report is the aggregate result of one sweep.
type Report struct {
	Trigger     string    `json:"trigger"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"`
	// Members is the size of the snapshot, even when nobody was disconnected.
	Members     int       `json:"members"`
	Outcomes    []Outcome `json:"outcomes"`
	WarningSent bool      `json:"warning_sent"`
	WarningOnly bool      `json:"warning_only,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Succeeded counts members that were disconnected.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Disconnected {
			n++
		}
	}
	return n
}

// Failed counts members whose disconnect failed.
func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Duration is how long the sweep took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
