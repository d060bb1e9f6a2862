// Package app wires the daemon together: state store, lifecycle engine,
// notification dispatcher, scheduler and health server. The scans run
// as scheduler tasks; everything they decide flows through applyActions
// so there is exactly one place that touches providers and state.
package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/cliconfig"
	"github.com/bft-labs/guardian/internal/domain"
	"github.com/bft-labs/guardian/internal/engine"
	"github.com/bft-labs/guardian/internal/health"
	"github.com/bft-labs/guardian/internal/metrics"
	"github.com/bft-labs/guardian/internal/notify"
	"github.com/bft-labs/guardian/internal/ports"
	"github.com/bft-labs/guardian/internal/sched"
	"github.com/bft-labs/guardian/internal/state"
)

// Task names as reported by heartbeats and the watchdog.
const (
	taskNewUsers   = "new-user-scan"
	taskInactivity = "inactivity-scan"
	taskNotify     = "notify-drain"
)

// Deps are the external collaborators, injected so tests can run the
// daemon against fakes.
type Deps struct {
	Access   ports.AccessProvider
	Activity ports.ActivityProvider
	Notifier ports.Notifier
	Alerts   ports.AlertChannel
}

// Guardian is the account lifecycle daemon.
type Guardian struct {
	cfg    cliconfig.Config
	logger zerolog.Logger

	store      *state.Store
	engine     *engine.Engine
	vips       *engine.VIPList
	metrics    *metrics.Metrics
	dispatcher *notify.Dispatcher
	scheduler  *sched.Scheduler
	health     *health.Server
	watcher    *cliconfig.Watcher

	access   ports.AccessProvider
	activity ports.ActivityProvider
	alerts   ports.AlertChannel

	dryRun atomic.Bool

	// mu serializes the scans: both read and replace doc, and
	// interleaved provider calls would race on lifecycle decisions.
	mu  sync.Mutex
	doc *state.Document
}

// New assembles a Guardian from validated configuration and providers.
func New(cfg cliconfig.Config, deps Deps, logger zerolog.Logger) *Guardian {
	m := metrics.New()

	g := &Guardian{
		cfg:    cfg,
		logger: logger,
		store:  state.NewStore(cfg.StateDir, cfg.KeepBackups, logger),
		engine: engine.New(engine.Config{
			WarnDays:      cfg.WarnDays,
			KickDays:      cfg.KickDays,
			Grace:         24 * time.Hour,
			WelcomeWindow: 7 * 24 * time.Hour,
		}),
		vips:       engine.NewVIPList(cfg.AdminEmail, cfg.VIPNames),
		metrics:    m,
		dispatcher: notify.NewDispatcher(deps.Notifier, m, logger),
		scheduler:  sched.New(logger),
		access:     deps.Access,
		activity:   deps.Activity,
		alerts:     deps.Alerts,
	}
	g.dryRun.Store(cfg.DryRun)
	g.health = health.NewServer(cfg.HealthPort, m, g.scheduler, g.dryRun.Load, logger)
	return g
}

// SetConfigWatchPath enables live reload of runtime-tunable settings
// (dry run, VIP names) from the given config file.
func (g *Guardian) SetConfigWatchPath(path string) {
	g.watcher = cliconfig.NewWatcher(path, g.applyRuntimeConfig, g.logger)
}

func (g *Guardian) applyRuntimeConfig(fc cliconfig.FileConfig) {
	if fc.DryRun != nil && *fc.DryRun != g.dryRun.Load() {
		g.dryRun.Store(*fc.DryRun)
		g.logger.Warn().Bool("dry_run", *fc.DryRun).Msg("dry run setting changed at runtime")
	}
	if len(fc.VIPNames) > 0 {
		g.vips.SetNames(fc.VIPNames)
		g.logger.Info().Strs("vip_names", fc.VIPNames).Msg("vip list replaced at runtime")
	}
}

// Run starts the daemon and blocks until the context is canceled or the
// watchdog reports a stalled worker. On a stall it returns
// domain.ErrWatchdogStalled so main can exit non-zero.
func (g *Guardian) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	g.doc = g.store.Load()
	g.metrics.IncStateLoads()
	tracked := len(g.doc.Welcomed)
	g.mu.Unlock()

	g.logger.Info().
		Int("tracked_users", tracked).
		Bool("dry_run", g.dryRun.Load()).
		Int("warn_days", g.cfg.WarnDays).
		Int("kick_days", g.cfg.KickDays).
		Msg("guardian starting")

	g.scheduler.AddTask(taskNewUsers, g.cfg.NewUserInterval, g.runNewUserScan)
	g.scheduler.AddTask(taskInactivity, g.cfg.InactivityInterval, g.runInactivityScan)
	g.scheduler.AddTask(taskNotify, g.cfg.NotifyInterval, g.dispatcher.Drain)

	if g.watcher != nil {
		g.watcher.Start(runCtx)
	}
	g.health.Start()
	g.scheduler.Start(runCtx)

	var runErr error
	select {
	case <-ctx.Done():
		g.logger.Info().Msg("shutdown requested")
	case name := <-g.scheduler.Stalled():
		g.logger.Error().Str("task", name).Msg("worker stalled, shutting down")
		runErr = domain.ErrWatchdogStalled
	}

	cancel()
	g.shutdown()
	return runErr
}

// shutdown stops the workers, flushes state once more and logs the
// final counters.
func (g *Guardian) shutdown() {
	if err := g.scheduler.WaitWithTimeout(sched.ShutdownTimeout); err != nil {
		g.logger.Warn().Err(err).Msg("workers did not stop in time")
	}
	if g.watcher != nil {
		g.watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.health.Shutdown(shutdownCtx); err != nil {
		g.logger.Warn().Err(err).Msg("health server shutdown failed")
	}

	g.mu.Lock()
	g.saveLocked()
	g.mu.Unlock()

	snap := g.metrics.Snapshot()
	g.logger.Info().
		Int64("welcomed", snap.Welcomed).
		Int64("warned", snap.Warned).
		Int64("removed", snap.Removed).
		Int64("notifications_sent", snap.NotificationsSent).
		Int64("notifications_failed", snap.NotificationsFailed).
		Int64("provider_errors", snap.ProviderErrors).
		Msg("guardian stopped")
}

// runNewUserScan reconciles membership and welcomes recent joiners.
func (g *Guardian) runNewUserScan(ctx context.Context) {
	facts, err := g.access.ListUsers(ctx)
	if err != nil {
		g.providerFailure("list users", err)
		return
	}
	active, err := g.access.ListActiveUsers(ctx)
	if err != nil {
		// Reconciliation can wait a tick; welcoming cannot.
		g.providerFailure("list active users", err)
		active = nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	doc, rejoined, departed := g.engine.ReconcileActive(g.doc, active)
	for _, id := range departed {
		g.logger.Info().Str("user", id).Msg("user departed, tracking dropped")
	}

	now := time.Now().UTC()
	doc, actions := g.engine.NewUserScan(now, facts, doc, rejoined)
	g.applyActions(ctx, doc, actions)

	g.doc = doc
	g.saveLocked()
}

// runInactivityScan enriches facts with activity data and applies the
// warn/remove decisions.
func (g *Guardian) runInactivityScan(ctx context.Context) {
	facts, err := g.access.ListUsers(ctx)
	if err != nil {
		g.providerFailure("list users", err)
		return
	}

	// Identity cross-check against the tracker. A user the tracker has
	// never heard of cannot be measured; skipping beats guessing.
	known := map[string]bool{}
	if actUsers, err := g.activity.ListUsers(ctx); err != nil {
		if !domain.Permanent(err) {
			g.providerFailure("list activity users", err)
			return
		}
		g.logger.Warn().Err(err).Msg("activity listing unavailable, skipping identity matching")
	} else {
		for _, au := range actUsers {
			known[au.ID] = true
		}
	}

	enriched := make([]domain.UserFact, 0, len(facts))
	for _, u := range facts {
		if len(known) > 0 && !known[u.ID] {
			g.logger.Warn().Str("user", u.ID).Msg("no matching activity identity, skipping user")
			g.metrics.IncProviderErrors()
			continue
		}
		last, err := g.activity.LastActivityOf(ctx, u.ID)
		if err != nil {
			if domain.Permanent(err) {
				// Identity unknown to the activity service; skip the
				// user rather than guess at their inactivity.
				g.logger.Warn().Str("user", u.ID).Err(err).Msg("activity lookup failed, skipping user")
				g.metrics.IncProviderErrors()
				continue
			}
			g.providerFailure("activity lookup", err)
			return
		}
		u.LastActivityAt = last
		u.VIP = g.vips.Match(u)
		enriched = append(enriched, u)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	doc, actions := g.engine.InactivityScan(now, enriched, g.doc)
	g.applyActions(ctx, doc, actions)

	g.doc = doc
	g.saveLocked()
}

// providerFailure logs a scan-aborting provider error. The scan retries
// on its next interval; transient trouble never kills the daemon.
func (g *Guardian) providerFailure(op string, err error) {
	g.metrics.IncProviderErrors()
	g.logger.Error().Str("op", op).Err(err).Msg("provider call failed, scan postponed")
}

// saveLocked persists the document. Callers hold g.mu. A failed save is
// logged and retried implicitly on the next scan; the in-memory
// document stays authoritative.
func (g *Guardian) saveLocked() {
	if g.doc == nil {
		return
	}
	if err := g.store.Save(g.doc); err != nil {
		g.logger.Error().Err(err).Msg("state save failed, keeping in-memory document")
		return
	}
	g.metrics.IncStateSaves()
}
