// Package sched runs the daemon's periodic workers.
//
// Each named task gets its own goroutine that loops on an interval,
// updates a heartbeat around every run, and survives panics: a single
// failed iteration is logged, never fatal. A watchdog goroutine checks
// the heartbeats and escalates through the Stalled channel when a loop
// has silently stopped making progress; that escalation is the only
// path from a background failure to process exit.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/domain"
)

// ShutdownTimeout is the default grace period for workers to exit.
const ShutdownTimeout = 30 * time.Second

// Task is a named periodic worker.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler owns the worker lifecycles and their heartbeats.
type Scheduler struct {
	mu         sync.RWMutex
	tasks      []Task
	heartbeats map[string]time.Time

	wg      sync.WaitGroup
	logger  zerolog.Logger
	stalled chan string
	once    sync.Once
}

// New creates an empty scheduler.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		heartbeats: make(map[string]time.Time),
		logger:     logger,
		stalled:    make(chan string, 1),
	}
}

// AddTask registers a periodic task. Must be called before Start.
func (s *Scheduler) AddTask(name string, interval time.Duration, run func(ctx context.Context)) {
	s.tasks = append(s.tasks, Task{Name: name, Interval: interval, Run: run})
}

// Start launches one goroutine per task plus the watchdog. Tasks run
// once immediately, then on their interval, until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, t := range s.tasks {
		s.beat(t.Name)
		s.wg.Add(1)
		go s.runLoop(ctx, t)
	}
	s.wg.Add(1)
	go s.watchdog(ctx)
	s.logger.Info().Int("tasks", len(s.tasks)).Msg("scheduler started")
}

// Stalled reports the name of a task whose heartbeat went stale. The
// daemon treats a receive as unrecoverable and shuts down.
func (s *Scheduler) Stalled() <-chan string {
	return s.stalled
}

// Heartbeats returns a copy of the per-task heartbeat timestamps.
func (s *Scheduler) Heartbeats() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.heartbeats))
	for k, v := range s.heartbeats {
		out[k] = v
	}
	return out
}

// Healthy reports whether every heartbeat is within twice its task's
// interval.
func (s *Scheduler) Healthy(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		hb, ok := s.heartbeats[t.Name]
		if !ok || now.Sub(hb) > 2*t.Interval {
			return false
		}
	}
	return true
}

// WaitWithTimeout waits for all workers to exit after cancellation.
// Returns ErrShutdownTimeout if the grace period expires first.
func (s *Scheduler) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.logger.Warn().Dur("timeout", timeout).Msg("shutdown timeout, forcing exit")
		return domain.ErrShutdownTimeout
	}
}

func (s *Scheduler) beat(name string) {
	s.mu.Lock()
	s.heartbeats[name] = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) runLoop(ctx context.Context, t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		s.beat(t.Name)
		s.guardedRun(ctx, t)
		s.beat(t.Name)

		select {
		case <-ctx.Done():
			s.logger.Debug().Str("task", t.Name).Msg("task loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// guardedRun converts a panic inside a task into a logged error so the
// loop never terminates on a single failed iteration.
func (s *Scheduler) guardedRun(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("task", t.Name).Interface("panic", r).Msg("task panicked, loop continues")
		}
	}()
	t.Run(ctx)
}

// watchdog periodically checks every heartbeat. A heartbeat older than
// twice the task's interval means the loop is stuck; a daemon that looks
// alive but no longer scans is worse than one that exits loudly.
func (s *Scheduler) watchdog(ctx context.Context) {
	defer s.wg.Done()

	interval := s.watchdogInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		s.mu.RLock()
		var stale string
		for _, t := range s.tasks {
			hb, ok := s.heartbeats[t.Name]
			if !ok || now.Sub(hb) > 2*t.Interval {
				stale = t.Name
				break
			}
		}
		s.mu.RUnlock()

		if stale != "" {
			s.logger.Error().Str("task", stale).Msg("watchdog: heartbeat stalled")
			s.once.Do(func() { s.stalled <- stale })
			return
		}
	}
}

func (s *Scheduler) watchdogInterval() time.Duration {
	min := time.Minute
	for _, t := range s.tasks {
		if t.Interval/2 < min {
			min = t.Interval / 2
		}
	}
	if min < 10*time.Millisecond {
		min = 10 * time.Millisecond
	}
	return min
}
