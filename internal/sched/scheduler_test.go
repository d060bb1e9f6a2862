package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/domain"
)

func TestTaskRunsPeriodically(t *testing.T) {
	s := New(zerolog.Nop())
	var runs atomic.Int64
	s.AddTask("tick", 20*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := s.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestPanickingTaskKeepsLooping(t *testing.T) {
	s := New(zerolog.Nop())
	var runs atomic.Int64
	s.AddTask("explode", 15*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("panicking task stopped looping after %d runs", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHeartbeatsAdvance(t *testing.T) {
	s := New(zerolog.Nop())
	s.AddTask("hb", 10*time.Millisecond, func(ctx context.Context) {})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	first, ok := s.Heartbeats()["hb"]
	if !ok {
		t.Fatal("expected heartbeat for hb after start")
	}

	time.Sleep(60 * time.Millisecond)
	second := s.Heartbeats()["hb"]
	if !second.After(first) {
		t.Fatalf("heartbeat did not advance: %v -> %v", first, second)
	}
	if !s.Healthy(time.Now()) {
		t.Fatal("running scheduler should be healthy")
	}
}

func TestWatchdogDetectsStalledTask(t *testing.T) {
	s := New(zerolog.Nop())
	block := make(chan struct{})
	first := make(chan struct{}, 1)
	s.AddTask("stuck", 20*time.Millisecond, func(ctx context.Context) {
		first <- struct{}{}
		<-block // simulate a hung provider call with no timeout
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer close(block)
	s.Start(ctx)

	<-first
	select {
	case name := <-s.Stalled():
		if name != "stuck" {
			t.Fatalf("expected stalled task 'stuck', got %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not report the stalled task")
	}

	if s.Healthy(time.Now()) {
		t.Fatal("scheduler with a stalled task must not be healthy")
	}
}

func TestWaitWithTimeoutExpires(t *testing.T) {
	s := New(zerolog.Nop())
	block := make(chan struct{})
	s.AddTask("stuck", 10*time.Millisecond, func(ctx context.Context) {
		<-block
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	err := s.WaitWithTimeout(50 * time.Millisecond)
	if !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Fatalf("expected ErrShutdownTimeout, got %v", err)
	}
	close(block)
}
