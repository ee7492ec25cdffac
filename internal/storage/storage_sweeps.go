package storage

import (
	st "voice-sweeper/internal/storagetypes"
	"voice-sweeper/internal/sweep"
)

// AppendSweepReport stores a finished sweep, keeping only the most recent
// reports.
func (s *Storage) AppendSweepReport(guildID string, report sweep.Report) error {
	return s.updateGuildRecord(guildID, func(r *st.Record) error {
		r.SweepHistory = append(r.SweepHistory, report)
		return nil
	})
}

// SweepHistory returns stored reports, oldest first.
func (s *Storage) SweepHistory(guildID string) ([]sweep.Report, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.SweepHistory, nil
}

// LastSweep returns the most recent report, or nil if none was stored.
func (s *Storage) LastSweep(guildID string) (*sweep.Report, error) {
	history, err := s.SweepHistory(guildID)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	last := history[len(history)-1]
	return &last, nil
}
