package storage

import st "voice-sweeper/internal/storagetypes"

// AppendCommandToHistory appends a command history record for a guild,
// keeping only the most recent entries.
func (s *Storage) AppendCommandToHistory(guildID string, command st.CommandHistory) error {
	return s.updateGuildRecord(guildID, func(r *st.Record) error {
		r.CommandsHistory = append(r.CommandsHistory, command)
		return nil
	})
}

func (s *Storage) GetCommandsHistory(guildID string) ([]st.CommandHistory, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}

// CommandHashes returns the stored slash command definition hashes by name.
func (s *Storage) CommandHashes(guildID string) (map[string]string, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandHashes, nil
}

func (s *Storage) SetCommandHash(guildID, name, hash string) error {
	return s.updateGuildRecord(guildID, func(r *st.Record) error {
		r.CommandHashes[name] = hash
		return nil
	})
}

func (s *Storage) DeleteCommandHash(guildID, name string) error {
	return s.updateGuildRecord(guildID, func(r *st.Record) error {
		delete(r.CommandHashes, name)
		return nil
	})
}
