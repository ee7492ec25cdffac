package storage

import (
	"voice-sweeper/internal/permissions"
	st "voice-sweeper/internal/storagetypes"
)

func (s *Storage) Whitelist(guildID string) (permissions.Whitelist, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return permissions.Whitelist{}, err
	}
	return record.Whitelist, nil
}

// UpdateWhitelist applies fn to the guild's whitelist and stores the result
// unless fn fails.
func (s *Storage) UpdateWhitelist(guildID string, fn func(w *permissions.Whitelist) error) error {
	return s.updateGuildRecord(guildID, func(r *st.Record) error {
		return fn(&r.Whitelist)
	})
}
