package sweep

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrServerNotFound   = errors.New("server not found")
	ErrChannelNotFound  = errors.New("channel not found")
	ErrNotAVoiceChannel = errors.New("not a voice channel")
	ErrSweepInProgress  = errors.New("a sweep is already running")
)

// ResolveError is returned when the target server or channel cannot be used.
// errors.Is matches both Kind and the underlying cause.
type ResolveError struct {
	Kind error
	ID   string
	Name string
	Err  error
}

func (e *ResolveError) Error() string {
	var msg string
	switch e.Kind {
	case ErrNotAVoiceChannel:
		name := e.Name
		if name == "" {
			name = e.ID
		}
		msg = fmt.Sprintf("channel %s is not a voice channel", name)
	default:
		msg = fmt.Sprintf("%v (id: %s)", e.Kind, e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolveError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// DisconnectError records a failed disconnect of one member.
type DisconnectError struct {
	UserID string
	Tag    string
	Err    error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnect %s (%s): %v", e.Tag, e.UserID, e.Err)
}

func (e *DisconnectError) Unwrap() error { return e.Err }

// AuditError records a failed post to the log channel.
type AuditError struct {
	ChannelID string
	Err       error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("post audit message to %s: %v", e.ChannelID, e.Err)
}

func (e *AuditError) Unwrap() error { return e.Err }

// RESTCode extracts the Discord JSON error code from err, or 0.
func RESTCode(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		return rest.Message.Code
	}
	return 0
}

func isNotFound(err error, code int) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil && rest.Message.Code == code {
		return true
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}
