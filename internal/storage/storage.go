// /internal/storage/storage.go
package storage

import (
	"fmt"
	"log"
	"os"

	"voice-sweeper/datastore"
	st "voice-sweeper/internal/storagetypes"
	"voice-sweeper/internal/sweep"
)

const (
	commandHistoryLimit int = 20
	sweepHistoryLimit   int = 20
)

type Storage struct {
	ds *datastore.DataStore
}

func New(filePath string) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithDataStore wraps an already opened datastore.
func NewWithDataStore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Flush writes pending changes to disk now.
func (s *Storage) Flush() error {
	return s.ds.SaveToFile()
}

func newRecord() *st.Record {
	r := &st.Record{}
	normalize(r)
	return r
}

func normalize(r *st.Record) {
	r.Whitelist.Normalize()
	if r.CommandHashes == nil {
		r.CommandHashes = map[string]string{}
	}
	if r.SweepHistory == nil {
		r.SweepHistory = []sweep.Report{}
	}
	if r.CommandsHistory == nil {
		r.CommandsHistory = []st.CommandHistory{}
	}
	r.SweepHistory = tail(r.SweepHistory, sweepHistoryLimit)
	r.CommandsHistory = tail(r.CommandsHistory, commandHistoryLimit)
}

func tail[T any](list []T, limit int) []T {
	if len(list) > limit {
		return list[len(list)-limit:]
	}
	return list
}

// getOrCreateGuildRecord returns a copy of the guild's record; the zero
// record is returned for unknown guilds.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*st.Record, error) {
	record := newRecord()
	if _, err := s.ds.Get(guildID, record); err != nil {
		return nil, fmt.Errorf("load record for guild %s: %w", guildID, err)
	}
	normalize(record)
	return record, nil
}

// updateGuildRecord applies fn to the guild's record atomically. The record
// is only stored when fn returns nil.
func (s *Storage) updateGuildRecord(guildID string, fn func(r *st.Record) error) error {
	return s.ds.Update(guildID, func() any { return newRecord() }, func(v any) error {
		r := v.(*st.Record)
		normalize(r)
		if err := fn(r); err != nil {
			return err
		}
		normalize(r)
		return nil
	})
}

// Guilds lists every guild with a stored record.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}
