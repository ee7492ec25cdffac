// Package permissions resolves who may run which bot command in a guild.
package permissions

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Level is an access level. The zero value grants nothing.
type Level int

const (
	None Level = iota
	User
	Moderator
	Admin
)

var levelNames = map[Level]string{
	None:      "none",
	User:      "user",
	Moderator: "moderator",
	Admin:     "admin",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Label is the decorated name shown in Discord replies.
func (l Level) Label() string {
	switch l {
	case User:
		return "👤 User"
	case Moderator:
		return "🛡️ Moderator"
	case Admin:
		return "👑 Admin"
	}
	return "🚫 None"
}

// ParseLevel accepts the names produced by String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s && l != None {
			return l, nil
		}
	}
	return None, fmt.Errorf("unknown permission level %q", s)
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Whitelist holds explicit user and role grants for one guild.
type Whitelist struct {
	Users        map[string]Level `json:"users"`
	Roles        map[string]Level `json:"roles"`
	LastModified time.Time        `json:"last_modified"`
	ModifiedBy   string           `json:"modified_by,omitempty"`
}

// NewWhitelist returns an empty whitelist with its maps allocated.
func NewWhitelist() Whitelist {
	return Whitelist{Users: map[string]Level{}, Roles: map[string]Level{}}
}

// Normalize allocates nil maps, e.g. after decoding an old record.
func (w *Whitelist) Normalize() {
	if w.Users == nil {
		w.Users = map[string]Level{}
	}
	if w.Roles == nil {
		w.Roles = map[string]Level{}
	}
}

func (w *Whitelist) touch(by string) {
	w.LastModified = time.Now().UTC()
	w.ModifiedBy = by
}

func (w *Whitelist) SetUser(userID string, level Level, by string) {
	w.Normalize()
	w.Users[userID] = level
	w.touch(by)
}

func (w *Whitelist) SetRole(roleID string, level Level, by string) {
	w.Normalize()
	w.Roles[roleID] = level
	w.touch(by)
}

// RemoveUser reports whether the user had an entry.
func (w *Whitelist) RemoveUser(userID, by string) bool {
	if _, ok := w.Users[userID]; !ok {
		return false
	}
	delete(w.Users, userID)
	w.touch(by)
	return true
}

// RemoveRole reports whether the role had an entry.
func (w *Whitelist) RemoveRole(roleID, by string) bool {
	if _, ok := w.Roles[roleID]; !ok {
		return false
	}
	delete(w.Roles, roleID)
	w.touch(by)
	return true
}

// LevelOf returns the highest level granted directly or through any role.
func (w Whitelist) LevelOf(userID string, roleIDs []string) Level {
	best := w.Users[userID]
	for _, r := range roleIDs {
		best = max(best, w.Roles[r])
	}
	return best
}

// Counts returns the number of user and role grants.
func (w Whitelist) Counts() (users, roles int) { return len(w.Users), len(w.Roles) }

// Entry is one whitelist line, used for listing.
type Entry struct {
	ID    string
	Level Level
}

// SortedUsers lists user grants, highest level first then by id.
func (w Whitelist) SortedUsers() []Entry { return sorted(w.Users) }

// SortedRoles lists role grants, highest level first then by id.
func (w Whitelist) SortedRoles() []Entry { return sorted(w.Roles) }

func sorted(m map[string]Level) []Entry {
	out := make([]Entry, 0, len(m))
	for id, l := range m {
		out = append(out, Entry{ID: id, Level: l})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if a.Level != b.Level {
			return int(b.Level - a.Level)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Subject is the caller whose level is being resolved.
type Subject struct {
	UserID        string
	RoleIDs       []string
	Owner         bool
	Administrator bool
}

// SubjectFromMember builds a Subject from an interaction member. guild may
// be nil when it is not cached.
func SubjectFromMember(guild *discordgo.Guild, m *discordgo.Member) Subject {
	if m == nil || m.User == nil {
		return Subject{}
	}
	return Subject{
		UserID:        m.User.ID,
		RoleIDs:       m.Roles,
		Owner:         guild != nil && guild.OwnerID == m.User.ID,
		Administrator: m.Permissions&discordgo.PermissionAdministrator != 0,
	}
}

// Resolve returns the effective level of s. Server owners, holders of the
// Administrator permission and the developer are always Admin.
func Resolve(w Whitelist, s Subject, developerID string) Level {
	if s.UserID == "" {
		return None
	}
	if s.Owner || s.Administrator || (developerID != "" && s.UserID == developerID) {
		return Admin
	}
	return w.LevelOf(s.UserID, s.RoleIDs)
}
