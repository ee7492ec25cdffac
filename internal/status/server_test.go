package status

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-sweeper/internal/sweep"
	"voice-sweeper/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct{ running bool }

func (f fakeSweeper) Target() sweep.Target {
	return sweep.Target{GuildID: "g1", ChannelID: "vc1"}
}
func (f fakeSweeper) Running() bool { return f.running }

type fakeHistory struct {
	reports []sweep.Report
	err     error
}

func (f *fakeHistory) LastSweep(string) (*sweep.Report, error) {
	if f.err != nil || len(f.reports) == 0 {
		return nil, f.err
	}
	r := f.reports[len(f.reports)-1]
	return &r, nil
}

func (f *fakeHistory) SweepHistory(string) ([]sweep.Report, error) { return f.reports, f.err }

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := get(t, New(":0", fakeSweeper{}, &fakeHistory{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestStatusWithoutSweeps(t *testing.T) {
	rec, body := get(t, New(":0", fakeSweeper{}, &fakeHistory{}), "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no sweeps yet", body["error"])
}

func TestStatusReturnsLastSweep(t *testing.T) {
	h := &fakeHistory{reports: []sweep.Report{
		{Trigger: "schedule", StartedAt: time.Unix(1, 0).UTC()},
		{Trigger: "manual:alice", StartedAt: time.Unix(2, 0).UTC(), Outcomes: []sweep.Outcome{{UserID: "u1", Disconnected: true}}},
	}}
	rec, body := get(t, New(":0", fakeSweeper{running: true}, h), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, true, body["running"])
	target := body["target"].(map[string]any)
	assert.Equal(t, "vc1", target["channel_id"])
	last := body["last_sweep"].(map[string]any)
	assert.Equal(t, "manual:alice", last["trigger"])
}

func TestStatusStorageError(t *testing.T) {
	rec, body := get(t, New(":0", fakeSweeper{}, &fakeHistory{err: errors.New("disk gone")}), "/status")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk gone", body["error"])
}

func TestHistoryIsNeverNull(t *testing.T) {
	rec, body := get(t, New(":0", fakeSweeper{}, &fakeHistory{}), "/history")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["sweeps"])
}

func TestMetricsEndpoint(t *testing.T) {
	telemetry.Init()
	telemetry.Default.SweepSkipped()

	rec := httptest.NewRecorder()
	New(":0", fakeSweeper{}, &fakeHistory{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voice_sweeps_skipped_total")
}
