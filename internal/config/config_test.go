package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"DISCORD_TOKEN", "GUILD_ID", "CHANNEL_ID", "LOG_CHANNEL_ID",
	"SWEEP_INTERVAL", "SWEEP_SKIP_BOTS", "WARNING_CHANNEL_ID", "WARNING_DELAY",
	"WARNING_ONLY", "STORAGE_PATH", "STATUS_ADDR", "DEVELOPER_ID",
}

// clearEnv blanks every variable the config reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestParseListsEveryMissingVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("GUILD_ID", "123")

	cfg, err := Parse()
	require.Error(t, err)
	assert.Nil(t, cfg)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"DISCORD_TOKEN", "CHANNEL_ID"}, missing.Names)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN, CHANNEL_ID")
}

func TestParseBlankCountsAsMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "   ")
	t.Setenv("GUILD_ID", "1")
	t.Setenv("CHANNEL_ID", "2")

	_, err := Parse()
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"DISCORD_TOKEN"}, missing.Names)
}

func TestParseEmptyAndUnsetAreBothListed(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("CHANNEL_ID", "2")

	_, err := Parse()
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"DISCORD_TOKEN", "GUILD_ID"}, missing.Names)
}

func TestParseBadValueIsNotMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "t")
	t.Setenv("GUILD_ID", "1")
	t.Setenv("CHANNEL_ID", "2")
	t.Setenv("SWEEP_INTERVAL", "soon")

	_, err := Parse()
	require.Error(t, err)
	var missing *MissingError
	assert.False(t, errors.As(err, &missing))
	assert.Contains(t, err.Error(), "parse environment")
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("GUILD_ID", "1")
	t.Setenv("CHANNEL_ID", "2")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.WarningDelay)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Empty(t, cfg.LogChannelID)
	assert.Empty(t, cfg.StatusAddr)
	assert.False(t, cfg.WarningOnly)
	assert.False(t, cfg.SkipBots)
}

func TestParseOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("GUILD_ID", "1")
	t.Setenv("CHANNEL_ID", "2")
	t.Setenv("LOG_CHANNEL_ID", "3")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("WARNING_CHANNEL_ID", "4")
	t.Setenv("WARNING_DELAY", "5s")
	t.Setenv("WARNING_ONLY", "true")
	t.Setenv("SWEEP_SKIP_BOTS", "true")
	t.Setenv("STATUS_ADDR", ":9090")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "3", cfg.LogChannelID)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, "4", cfg.WarningChannelID)
	assert.Equal(t, 5*time.Second, cfg.WarningDelay)
	assert.True(t, cfg.WarningOnly)
	assert.True(t, cfg.SkipBots)
	assert.Equal(t, ":9090", cfg.StatusAddr)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{DiscordToken: "t", GuildID: "1", ChannelID: "2", SweepInterval: time.Minute}

	c := base
	c.SweepInterval = 0
	assert.Error(t, c.Validate())

	c = base
	c.WarningDelay = -time.Second
	assert.Error(t, c.Validate())

	c = base
	c.WarningOnly = true
	assert.Error(t, c.Validate())

	c = base
	assert.NoError(t, c.Validate())
}

func TestNewReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "DISCORD_TOKEN=from-file\nGUILD_ID=10\nCHANNEL_ID=20\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	chdir(t, dir)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.DiscordToken)
	assert.Equal(t, "10", cfg.GuildID)
	assert.Equal(t, "20", cfg.ChannelID)

	// godotenv.Load sets real process variables; drop them for later tests.
	for _, name := range []string{"DISCORD_TOKEN", "GUILD_ID", "CHANNEL_ID"} {
		os.Unsetenv(name)
	}
}

func TestIsDeveloper(t *testing.T) {
	cfg := &Config{DeveloperID: "42"}
	assert.True(t, IsDeveloper(cfg, "42"))
	assert.False(t, IsDeveloper(cfg, "43"))
	assert.False(t, IsDeveloper(&Config{}, ""))
	assert.False(t, IsDeveloper(nil, "42"))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
