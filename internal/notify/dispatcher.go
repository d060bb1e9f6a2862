// Package notify implements the bounded-retry notification queue.
//
// Tasks live only in memory: a queue lost on crash is acceptable because
// the lifecycle document lets the next scan re-derive whether a
// notification is still owed. Dropping a notification never blocks or
// fails the scan that produced it.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/metrics"
	"github.com/bft-labs/guardian/internal/ports"
)

// DefaultMaxAttempts is the per-task retry budget before a drop.
const DefaultMaxAttempts = 3

// DefaultSendTimeout bounds a single delivery attempt.
const DefaultSendTimeout = 30 * time.Second

// Task is a queued notification.
type Task struct {
	Recipient string
	Subject   string
	Body      string

	Attempts       int
	NextEligibleAt time.Time
}

// Dispatcher owns the notification queue. The queue mutex is independent
// of the state store's so a slow send never blocks a scan.
type Dispatcher struct {
	mu    sync.Mutex
	queue []*Task

	notifier    ports.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	maxAttempts int
	sendTimeout time.Duration
	backoff     *backoff
}

// NewDispatcher creates a dispatcher delivering through notifier.
func NewDispatcher(notifier ports.Notifier, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		sendTimeout: DefaultSendTimeout,
		backoff:     newBackoff(5*time.Second, 2*time.Minute),
	}
}

// Enqueue adds a task to the queue. Tasks with an empty recipient are
// dropped immediately; there is nowhere to deliver them.
func (d *Dispatcher) Enqueue(t Task) {
	if t.Recipient == "" {
		d.logger.Debug().Str("subject", t.Subject).Msg("dropping notification without recipient")
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, &t)
	d.mu.Unlock()
}

// Len returns the number of queued tasks.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Drain attempts every eligible task once. Failed tasks are requeued
// with an increased attempt count and a backoff-delayed eligibility;
// tasks that exhaust the retry budget are dropped with a logged failure
// and a metrics increment.
func (d *Dispatcher) Drain(ctx context.Context) {
	now := time.Now()

	d.mu.Lock()
	var due, later []*Task
	for _, t := range d.queue {
		if t.NextEligibleAt.After(now) {
			later = append(later, t)
		} else {
			due = append(due, t)
		}
	}
	d.queue = later
	d.mu.Unlock()

	for _, t := range due {
		select {
		case <-ctx.Done():
			d.requeue(t)
			continue
		default:
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := d.notifier.Send(sendCtx, t.Recipient, t.Subject, t.Body)
		cancel()

		if err == nil {
			d.metrics.IncNotificationsSent()
			d.logger.Debug().Str("to", t.Recipient).Str("subject", t.Subject).Msg("notification sent")
			continue
		}

		t.Attempts++
		if t.Attempts >= d.maxAttempts {
			d.metrics.IncNotificationsFailed()
			d.logger.Error().Err(err).
				Str("to", t.Recipient).
				Str("subject", t.Subject).
				Int("attempts", t.Attempts).
				Msg("notification dropped after retry budget")
			continue
		}

		t.NextEligibleAt = now.Add(d.backoff.Delay(t.Attempts))
		d.logger.Warn().Err(err).
			Str("to", t.Recipient).
			Int("attempts", t.Attempts).
			Time("next_eligible", t.NextEligibleAt).
			Msg("notification send failed, will retry")
		d.requeue(t)
	}
}

func (d *Dispatcher) requeue(t *Task) {
	d.mu.Lock()
	d.queue = append(d.queue, t)
	d.mu.Unlock()
}
