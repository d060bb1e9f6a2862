// Package engine implements the lifecycle decision logic. Scans are pure
// functions of (now, user facts, document, config) that return an updated
// document and a list of actions; all I/O is applied by the daemon
// afterwards.
package engine

import (
	"time"

	"github.com/bft-labs/guardian/internal/domain"
	"github.com/bft-labs/guardian/internal/state"
)

// Config holds the lifecycle thresholds.
type Config struct {
	// WarnDays is the inactivity threshold for a warning notification.
	WarnDays int

	// KickDays is the inactivity threshold for removal. Must be greater
	// than WarnDays; validated at startup.
	KickDays int

	// Grace is added to the join time before inactivity accrues for a
	// user with no observed activity.
	Grace time.Duration

	// WelcomeWindow bounds how recently a user must have joined to
	// receive a welcome notification. Users first seen outside the
	// window are tracked silently so the first scan of an existing
	// population never mass-mails.
	WelcomeWindow time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		WarnDays:      27,
		KickDays:      30,
		Grace:         24 * time.Hour,
		WelcomeWindow: 7 * 24 * time.Hour,
	}
}

// Engine computes lifecycle decisions.
type Engine struct {
	cfg Config
}

// New creates an engine with the given thresholds.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// NewUserScan walks the user facts and decides who gets welcomed.
//
// A user not yet in the welcomed map is welcomed when their join date is
// within the welcome window, or when they just rejoined after a final
// removal (rejoined ids come from ReconcileActive). Everyone else is
// tracked silently with their join date so inactivity accrual stays fair.
// VIP status does not exempt a user from the welcome.
func (e *Engine) NewUserScan(now time.Time, facts []domain.UserFact, doc *state.Document, rejoined []string) (*state.Document, []domain.Action) {
	out := doc.Clone()
	var actions []domain.Action

	rejoinedSet := make(map[string]bool, len(rejoined))
	for _, id := range rejoined {
		rejoinedSet[id] = true
	}

	for _, u := range facts {
		if _, ok := out.Welcomed[u.ID]; ok {
			continue
		}
		if out.IsRemovalFinal(u.ID) {
			continue
		}

		recent := rejoinedSet[u.ID] || (u.HasJoinDate() && now.Sub(u.JoinedAt) <= e.cfg.WelcomeWindow)
		if recent {
			out.MarkWelcomed(u.ID, now)
			actions = append(actions, domain.SendNotification{
				Kind:      domain.NotifyWelcome,
				Recipient: u.Email,
				UserID:    u.ID,
				Display:   u.Display(),
			})
			continue
		}

		// Existing user first seen by this daemon: track without mail.
		joined := u.JoinedAt
		if joined.IsZero() {
			joined = now
		}
		out.MarkWelcomed(u.ID, joined)
	}

	return out, actions
}

// InactivityScan walks the user facts and decides who gets warned or
// removed. Removal marking happens when the action is applied, not here,
// because the outcome depends on the provider call.
func (e *Engine) InactivityScan(now time.Time, facts []domain.UserFact, doc *state.Document) (*state.Document, []domain.Action) {
	out := doc.Clone()
	var actions []domain.Action

	for _, u := range facts {
		if out.IsRemovalFinal(u.ID) {
			continue
		}
		if u.VIP {
			continue
		}

		baseline, ok := e.baseline(u, out)
		if !ok {
			// Never assume inactivity without a baseline.
			continue
		}

		days := daysSince(now, baseline)
		if days < e.cfg.WarnDays {
			continue
		}

		if days < e.cfg.KickDays {
			if _, warned := out.Warned[u.ID]; !warned {
				out.MarkWarned(u.ID, now)
				actions = append(actions, domain.SendNotification{
					Kind:         domain.NotifyWarning,
					Recipient:    u.Email,
					UserID:       u.ID,
					Display:      u.Display(),
					DaysInactive: days,
				})
			}
			continue
		}

		actions = append(actions, domain.CallRemove{
			UserID:       u.ID,
			Display:      u.Display(),
			Email:        u.Email,
			DaysInactive: days,
		})
	}

	out.LastInactivityScan = now
	return out, actions
}

// baseline resolves the timestamp inactivity is measured from: last
// observed activity when known, else join time plus the grace period.
// The welcomed timestamp stands in for an unknown join date.
func (e *Engine) baseline(u domain.UserFact, doc *state.Document) (time.Time, bool) {
	if u.LastActivityAt != nil {
		return *u.LastActivityAt, true
	}
	if u.HasJoinDate() {
		return u.JoinedAt.Add(e.cfg.Grace), true
	}
	if welcomedAt, ok := doc.Welcomed[u.ID]; ok {
		return welcomedAt.Add(e.cfg.Grace), true
	}
	return time.Time{}, false
}

func daysSince(now, baseline time.Time) int {
	d := now.Sub(baseline)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// ReconcileActive updates the document against the provider's current
// active id list. A successfully removed user who reappears is fully
// reset and treated as newly joined; welcomed/warned entries for users
// who left on their own are dropped. Removal records are kept as an
// audit trail. An empty active list is ignored: it is more likely a
// provider hiccup than everyone leaving at once.
func (e *Engine) ReconcileActive(doc *state.Document, activeIDs []string) (*state.Document, []string, []string) {
	if len(activeIDs) == 0 {
		return doc.Clone(), nil, nil
	}

	out := doc.Clone()
	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	var rejoined []string
	for id, r := range out.Removed {
		if r.Success && active[id] {
			out.Reset(id)
			rejoined = append(rejoined, id)
		}
	}

	var departed []string
	for id := range out.Welcomed {
		if !active[id] {
			delete(out.Welcomed, id)
			delete(out.Warned, id)
			departed = append(departed, id)
		}
	}
	for id := range out.Warned {
		if !active[id] {
			delete(out.Warned, id)
		}
	}

	return out, rejoined, departed
}
