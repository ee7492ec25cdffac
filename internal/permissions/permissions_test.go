package permissions

import (
	"encoding/json"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{User, Moderator, Admin} {
		parsed, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	got, err := ParseLevel(" Moderator ")
	require.NoError(t, err)
	assert.Equal(t, Moderator, got)

	_, err = ParseLevel("none")
	assert.Error(t, err)
	_, err = ParseLevel("root")
	assert.Error(t, err)
}

func TestLevelOrdering(t *testing.T) {
	assert.Less(t, None, User)
	assert.Less(t, User, Moderator)
	assert.Less(t, Moderator, Admin)
}

func TestLevelOfTakesHighestGrant(t *testing.T) {
	w := NewWhitelist()
	w.SetUser("u1", User, "admin")
	w.SetRole("mods", Moderator, "admin")
	w.SetRole("staff", User, "admin")

	assert.Equal(t, User, w.LevelOf("u1", nil))
	assert.Equal(t, Moderator, w.LevelOf("u1", []string{"staff", "mods"}))
	assert.Equal(t, Moderator, w.LevelOf("u2", []string{"mods"}))
	assert.Equal(t, None, w.LevelOf("u3", []string{"other"}))
	assert.Equal(t, "admin", w.ModifiedBy)
	assert.False(t, w.LastModified.IsZero())
}

func TestRemove(t *testing.T) {
	w := NewWhitelist()
	w.SetUser("u1", Admin, "x")
	w.SetRole("r1", User, "x")

	assert.True(t, w.RemoveUser("u1", "y"))
	assert.False(t, w.RemoveUser("u1", "y"))
	assert.True(t, w.RemoveRole("r1", "y"))
	assert.False(t, w.RemoveRole("r1", "y"))
	assert.Empty(t, w.Users)
	assert.Empty(t, w.Roles)
}

func TestResolve(t *testing.T) {
	w := NewWhitelist()
	w.SetUser("mod", Moderator, "x")

	assert.Equal(t, Admin, Resolve(w, Subject{UserID: "o", Owner: true}, ""))
	assert.Equal(t, Admin, Resolve(w, Subject{UserID: "a", Administrator: true}, ""))
	assert.Equal(t, Admin, Resolve(w, Subject{UserID: "dev"}, "dev"))
	assert.Equal(t, Moderator, Resolve(w, Subject{UserID: "mod"}, "dev"))
	assert.Equal(t, None, Resolve(w, Subject{UserID: "nobody"}, ""))
	assert.Equal(t, None, Resolve(w, Subject{}, ""))
}

func TestSubjectFromMember(t *testing.T) {
	guild := &discordgo.Guild{ID: "g", OwnerID: "owner"}
	m := &discordgo.Member{
		User:        &discordgo.User{ID: "owner"},
		Roles:       []string{"r1"},
		Permissions: discordgo.PermissionAdministrator,
	}
	s := SubjectFromMember(guild, m)
	assert.True(t, s.Owner)
	assert.True(t, s.Administrator)
	assert.Equal(t, []string{"r1"}, s.RoleIDs)

	assert.Equal(t, Subject{}, SubjectFromMember(guild, nil))
	assert.False(t, SubjectFromMember(nil, m).Owner)
}

func TestWhitelistJSON(t *testing.T) {
	w := NewWhitelist()
	w.SetUser("u1", Moderator, "x")

	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"u1":"moderator"`)

	var back Whitelist
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Moderator, back.Users["u1"])
}

func TestSortedUsers(t *testing.T) {
	w := NewWhitelist()
	w.SetUser("b", User, "x")
	w.SetUser("a", User, "x")
	w.SetUser("c", Admin, "x")

	assert.Equal(t, []Entry{{"c", Admin}, {"a", User}, {"b", User}}, w.SortedUsers())
}

func TestCounts(t *testing.T) {
	w := NewWhitelist()
	users, roles := w.Counts()
	assert.Zero(t, users)
	assert.Zero(t, roles)

	w.SetUser("a", User, "x")
	w.SetRole("r", Moderator, "x")
	w.SetRole("s", Admin, "x")
	users, roles = w.Counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 2, roles)
}
