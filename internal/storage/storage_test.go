package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"voice-sweeper/datastore"
	"voice-sweeper/internal/permissions"
	st "voice-sweeper/internal/storagetypes"
	"voice-sweeper/internal/sweep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, path string) *Storage {
	t.Helper()
	cfg := datastore.DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	cfg.Logger = nil
	ds, err := datastore.NewWithConfig(cfg)
	require.NoError(t, err)
	return NewWithDataStore(ds)
}

func TestUnknownGuildHasEmptyRecord(t *testing.T) {
	s := newTestStorage(t, filepath.Join(t.TempDir(), "db.json"))
	defer s.Close()

	last, err := s.LastSweep("g1")
	require.NoError(t, err)
	assert.Nil(t, last)

	w, err := s.Whitelist("g1")
	require.NoError(t, err)
	assert.NotNil(t, w.Users)
	assert.Empty(t, w.Users)

	hashes, err := s.CommandHashes("g1")
	require.NoError(t, err)
	assert.Empty(t, hashes)
	assert.Empty(t, s.Guilds())
}

func TestSweepHistoryIsCapped(t *testing.T) {
	s := newTestStorage(t, filepath.Join(t.TempDir(), "db.json"))
	defer s.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < sweepHistoryLimit+5; i++ {
		require.NoError(t, s.AppendSweepReport("g1", sweep.Report{
			Trigger:   fmt.Sprintf("t%d", i),
			StartedAt: start.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err := s.SweepHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, sweepHistoryLimit)
	assert.Equal(t, "t5", history[0].Trigger)

	last, err := s.LastSweep("g1")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("t%d", sweepHistoryLimit+4), last.Trigger)
	assert.Equal(t, []string{"g1"}, s.Guilds())
}

func TestCommandHistoryIsCapped(t *testing.T) {
	s := newTestStorage(t, filepath.Join(t.TempDir(), "db.json"))
	defer s.Close()

	for i := 0; i < commandHistoryLimit+3; i++ {
		require.NoError(t, s.AppendCommandToHistory("g1", st.CommandHistory{Command: fmt.Sprintf("c%d", i)}))
	}
	history, err := s.GetCommandsHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, commandHistoryLimit)
	assert.Equal(t, "c3", history[0].Command)
}

func TestWhitelistPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := newTestStorage(t, path)

	require.NoError(t, s.UpdateWhitelist("g1", func(w *permissions.Whitelist) error {
		w.SetUser("u1", permissions.Moderator, "admin")
		w.SetRole("r1", permissions.User, "admin")
		return nil
	}))
	require.NoError(t, s.SetCommandHash("g1", "sweep", "abc"))
	require.NoError(t, s.Close())

	reopened := newTestStorage(t, path)
	defer reopened.Close()

	w, err := reopened.Whitelist("g1")
	require.NoError(t, err)
	assert.Equal(t, permissions.Moderator, w.Users["u1"])
	assert.Equal(t, permissions.User, w.Roles["r1"])
	assert.Equal(t, "admin", w.ModifiedBy)

	hashes, err := reopened.CommandHashes("g1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sweep": "abc"}, hashes)
}

func TestFailedWhitelistUpdateIsDiscarded(t *testing.T) {
	s := newTestStorage(t, filepath.Join(t.TempDir(), "db.json"))
	defer s.Close()

	boom := errors.New("boom")
	err := s.UpdateWhitelist("g1", func(w *permissions.Whitelist) error {
		w.SetUser("u1", permissions.Admin, "x")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	w, err := s.Whitelist("g1")
	require.NoError(t, err)
	assert.Empty(t, w.Users)
}

func TestDeleteCommandHash(t *testing.T) {
	s := newTestStorage(t, filepath.Join(t.TempDir(), "db.json"))
	defer s.Close()

	require.NoError(t, s.SetCommandHash("g1", "status", "1"))
	require.NoError(t, s.SetCommandHash("g1", "sweep", "2"))
	require.NoError(t, s.DeleteCommandHash("g1", "status"))

	hashes, err := s.CommandHashes("g1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sweep": "2"}, hashes)
}
