package jobmgr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleNextAligned(t *testing.T) {
	s := Schedule{Interval: time.Minute, Align: true}
	now := time.Date(2024, 5, 1, 12, 30, 17, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 31, 0, 0, time.UTC), s.Next(now))

	onBoundary := time.Date(2024, 5, 1, 12, 31, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 32, 0, 0, time.UTC), s.Next(onBoundary))
}

func TestScheduleNextUnaligned(t *testing.T) {
	s := Schedule{Interval: 90 * time.Second}
	now := time.Date(2024, 5, 1, 12, 30, 17, 0, time.UTC)
	assert.Equal(t, now.Add(90*time.Second), s.Next(now))
}

func TestStartRecurringTicksUntilStopped(t *testing.T) {
	m := NewManager(nil)
	var ticks atomic.Int32

	require.NoError(t, m.StartRecurring("sweep", Schedule{Interval: 5 * time.Millisecond}, func(ctx context.Context, _ time.Time) {
		ticks.Add(1)
	}))
	assert.Equal(t, []string{"sweep"}, m.List())

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.StopAll(ctx))
	assert.Empty(t, m.List())

	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestStartRecurringRejectsBadInterval(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.StartRecurring("x", Schedule{}, func(context.Context, time.Time) {}))
}

func TestDuplicateNameRejected(t *testing.T) {
	m := NewManager(nil)
	block := make(chan struct{})
	require.NoError(t, m.StartAsync("job", func(ctx context.Context) error {
		<-block
		return nil
	}))
	defer close(block)

	err := m.StartAsync("job", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrJobRunning)
	assert.Equal(t, "Running jobs: job", m.Status())
}

func TestStopAllWaitsForInflightRuns(t *testing.T) {
	m := NewManager(nil)
	started := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool

	require.NoError(t, m.StartRecurring("slow", Schedule{Interval: time.Millisecond}, func(ctx context.Context, _ time.Time) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.StopAll(ctx))
	assert.True(t, finished.Load())
}

func TestReporterSeesLifecycle(t *testing.T) {
	var mu sync.Mutex
	var events []string
	m := NewManager(func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	})

	done := make(chan struct{})
	require.NoError(t, m.StartAsync("fail", func(ctx context.Context) error {
		defer close(done)
		return errors.New("boom")
	}))
	<-done

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"running:fail", "error:fail:boom"}, events)
}

func TestStopUnknownJob(t *testing.T) {
	assert.Error(t, NewManager(nil).Stop("nope"))
}
