// Package jobmgr provides simple synchronous, asynchronous and recurring job
// execution with cancellation, status callbacks, and in-memory tracking of
// running jobs.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    log.Println("JOB:", msg)
//	})
//
//	err := jm.StartRecurring("sweep", jobmgr.Schedule{Interval: time.Minute, Align: true},
//	    func(ctx context.Context, tick time.Time) {
//	        // runs once per minute, on the minute
//	    })
//
//	// later...
//	_ = jm.StopAll(ctx)
//
// No retry logic and no persistence. Jobs run in separate goroutines and are
// removed on completion.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Job represents a running unit of work.
// Jobs are added and removed by Manager automatically.
type Job struct {
	Name   string
	Cancel context.CancelFunc

	done chan struct{}
}

// Schedule describes when a recurring job fires.
type Schedule struct {
	Interval time.Duration
	// Align makes ticks land on multiples of Interval since the Unix epoch
	// (a one minute interval fires at second zero of every minute).
	Align bool
}

// Next returns the first fire time strictly after now.
func (s Schedule) Next(now time.Time) time.Time {
	if !s.Align {
		return now.Add(s.Interval)
	}
	next := now.Truncate(s.Interval).Add(s.Interval)
	if !next.After(now) {
		next = next.Add(s.Interval)
	}
	return next
}

// StatusReporter receives lifecycle events for jobs.
// Example messages:
//
//	running:sweep
//	error:sweep:failed to connect
//	done:sweep
type StatusReporter func(string)

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	Reporter StatusReporter
}

// NewManager creates a new Manager.
// The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// StartSync runs a job in the current goroutine and blocks until completion.
func (m *Manager) StartSync(ctx context.Context, name string, runner func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return runner(ctx)
}

// StartAsync runs a job in a separate goroutine and returns immediately.
// If a job with the same name is already running, an error is returned.
// Jobs are removed automatically after completion (success or failure).
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	job, ctx, err := m.add(name)
	if err != nil {
		return err
	}

	go func() {
		defer m.finish(job)
		m.report("running:" + name)

		if err := runner(ctx); err != nil {
			m.report("error:" + name + ":" + err.Error())
			return
		}
		m.report("done:" + name)
	}()

	return nil
}

// StartRecurring calls run on every tick of sched until the job is stopped.
// Each tick runs in its own goroutine so a slow run never delays the clock;
// callers that must not overlap guard against it themselves.
func (m *Manager) StartRecurring(name string, sched Schedule, run func(ctx context.Context, tick time.Time)) error {
	if sched.Interval <= 0 {
		return fmt.Errorf("job '%s': interval must be positive", name)
	}
	job, ctx, err := m.add(name)
	if err != nil {
		return err
	}

	go func() {
		var inflight sync.WaitGroup
		defer m.finish(job)
		defer inflight.Wait()

		m.report("running:" + name)
		timer := time.NewTimer(time.Until(sched.Next(time.Now())))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				m.report("done:" + name)
				return
			case tick := <-timer.C:
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					run(ctx, tick)
				}()
				timer.Reset(time.Until(sched.Next(time.Now())))
			}
		}
	}()

	return nil
}

// Stop cancels a running job by name.
// If the job is not running, an error is returned.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}

	job.Cancel()
	delete(m.jobs, name)
	return nil
}

// StopAll cancels every job and waits for them (and their in-flight runs)
// to return, or for ctx to expire.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.jobs))
	for name, job := range m.jobs {
		job.Cancel()
		jobs = append(jobs, job)
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	for _, job := range jobs {
		select {
		case <-job.done:
		case <-ctx.Done():
			return fmt.Errorf("waiting for job '%s': %w", job.Name, ctx.Err())
		}
	}
	return nil
}

// List returns the names of active jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary of active jobs.
// Example:
//
//	"Running jobs: analyze, sweep"
//
// If none are running: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

// ErrJobRunning is returned when a job name is already taken.
var ErrJobRunning = errors.New("job is already running")

func (m *Manager) add(name string) (*Job, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return nil, nil, fmt.Errorf("job '%s': %w", name, ErrJobRunning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{Name: name, Cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = job
	return job, ctx, nil
}

// finish removes the job if it is still the registered one and marks it done.
func (m *Manager) finish(job *Job) {
	m.mu.Lock()
	if m.jobs[job.Name] == job {
		delete(m.jobs, job.Name)
	}
	m.mu.Unlock()
	job.Cancel()
	close(job.done)
}

// report delivers lifecycle messages to the reporter if present.
func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
