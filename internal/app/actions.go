package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/guardian/internal/domain"
	"github.com/bft-labs/guardian/internal/notify"
	"github.com/bft-labs/guardian/internal/state"
)

// applyActions executes what a scan decided: queue notifications and
// perform removals. Removal outcomes are recorded on the document here
// because only the provider call knows whether the removal worked.
// Callers hold g.mu.
func (g *Guardian) applyActions(ctx context.Context, doc *state.Document, actions []domain.Action) {
	for _, a := range actions {
		switch act := a.(type) {
		case domain.SendNotification:
			g.applyNotification(ctx, act)
		case domain.CallRemove:
			g.applyRemoval(ctx, doc, act)
		}
	}
}

func (g *Guardian) applyNotification(ctx context.Context, act domain.SendNotification) {
	var subject, body string
	switch act.Kind {
	case domain.NotifyWelcome:
		subject = welcomeSubject()
		body = welcomeBody(act.Display, g.cfg.KickDays)
		g.metrics.IncWelcomed()
		g.alert(ctx, fmt.Sprintf("welcomed %s", act.Display))
	case domain.NotifyWarning:
		subject = warningSubject(g.cfg.KickDays - act.DaysInactive)
		body = warningBody(act.Display, act.DaysInactive, g.cfg.KickDays)
		g.metrics.IncWarned()
		g.alert(ctx, fmt.Sprintf("warned %s after %d idle days", act.Display, act.DaysInactive))
	default:
		g.logger.Warn().Str("kind", string(act.Kind)).Msg("unknown notification kind dropped")
		return
	}

	g.logger.Info().
		Str("user", act.UserID).
		Str("kind", string(act.Kind)).
		Msg("queueing notification")
	g.dispatcher.Enqueue(notify.Task{Recipient: act.Recipient, Subject: subject, Body: body})
	g.enqueueAdminCopy(adminSubject(string(act.Kind), act.Display), body)
}

// applyRemoval removes the user, or pretends to in dry run. A failed
// removal is recorded as unsuccessful so the next scan retries it.
func (g *Guardian) applyRemoval(ctx context.Context, doc *state.Document, act domain.CallRemove) {
	now := time.Now().UTC()

	if g.dryRun.Load() {
		g.logger.Info().
			Str("user", act.UserID).
			Int("days_inactive", act.DaysInactive).
			Msg("dry run: would remove user")
		doc.MarkRemoved(act.UserID, domain.Removal{When: now, Success: true, Reason: "dry-run"})
		g.metrics.IncRemoved()
		g.alert(ctx, fmt.Sprintf("[dry-run] would remove %s after %d idle days", act.Display, act.DaysInactive))
		return
	}

	if err := g.access.RemoveUser(ctx, act.UserID); err != nil {
		g.logger.Error().Str("user", act.UserID).Err(err).Msg("removal failed, will retry next scan")
		g.metrics.IncProviderErrors()
		doc.MarkRemoved(act.UserID, domain.Removal{When: now, Success: false, Reason: err.Error()})
		return
	}

	g.logger.Info().
		Str("user", act.UserID).
		Int("days_inactive", act.DaysInactive).
		Msg("removed inactive user")
	doc.MarkRemoved(act.UserID, domain.Removal{When: now, Success: true, Reason: "inactive"})
	g.metrics.IncRemoved()

	// History cleanup is best-effort; the removal already happened.
	if err := g.activity.DeleteUser(ctx, act.UserID); err != nil {
		g.logger.Warn().Str("user", act.UserID).Err(err).Msg("activity history cleanup failed")
	}

	g.dispatcher.Enqueue(notify.Task{
		Recipient: act.Email,
		Subject:   removalSubject(),
		Body:      removalBody(act.Display, act.DaysInactive),
	})
	g.enqueueAdminCopy(adminSubject("removed", act.Display), removalBody(act.Display, act.DaysInactive))
	g.alert(ctx, fmt.Sprintf("removed %s after %d idle days", act.Display, act.DaysInactive))
}

func (g *Guardian) enqueueAdminCopy(subject, body string) {
	if g.cfg.AdminEmail == "" {
		return
	}
	g.dispatcher.Enqueue(notify.Task{Recipient: g.cfg.AdminEmail, Subject: subject, Body: body})
}

func (g *Guardian) alert(ctx context.Context, message string) {
	if g.alerts == nil {
		return
	}
	_ = g.alerts.Post(ctx, message)
}
