package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/guardian/internal/domain"
	"github.com/bft-labs/guardian/internal/state"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func fact(id string, joined time.Time) domain.UserFact {
	return domain.UserFact{
		ID:       id,
		Email:    id + "@example.com",
		Username: "user-" + id,
		JoinedAt: joined,
	}
}

func notifications(actions []domain.Action) []domain.SendNotification {
	var out []domain.SendNotification
	for _, a := range actions {
		if n, ok := a.(domain.SendNotification); ok {
			out = append(out, n)
		}
	}
	return out
}

func removals(actions []domain.Action) []domain.CallRemove {
	var out []domain.CallRemove
	for _, a := range actions {
		if r, ok := a.(domain.CallRemove); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestNewUserScanWelcomesRecentJoin(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()

	facts := []domain.UserFact{fact("1", t0.Add(-2*24*time.Hour))}
	out, actions := e.NewUserScan(t0, facts, doc, nil)

	ns := notifications(actions)
	require.Len(t, ns, 1)
	assert.Equal(t, domain.NotifyWelcome, ns[0].Kind)
	assert.Equal(t, "1@example.com", ns[0].Recipient)
	assert.Equal(t, t0, out.Welcomed["1"])
}

func TestNewUserScanTracksOldUsersSilently(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()

	joined := t0.Add(-90 * 24 * time.Hour)
	out, actions := e.NewUserScan(t0, []domain.UserFact{fact("1", joined)}, doc, nil)

	assert.Empty(t, notifications(actions), "existing population must not be mass-mailed")
	assert.Equal(t, joined, out.Welcomed["1"], "silent tracking keeps the real join date")
}

func TestNewUserScanIsIdempotent(t *testing.T) {
	e := New(DefaultConfig())
	facts := []domain.UserFact{fact("1", t0.Add(-time.Hour)), fact("2", t0.Add(-60*24*time.Hour))}

	doc1, actions1 := e.NewUserScan(t0, facts, state.NewDocument(), nil)
	require.Len(t, notifications(actions1), 1)

	doc2, actions2 := e.NewUserScan(t0.Add(time.Minute), facts, doc1, nil)
	assert.Empty(t, actions2, "second scan with unchanged facts must emit nothing")
	assert.Equal(t, doc1.Welcomed, doc2.Welcomed)
}

func TestNewUserScanWelcomesRejoinedUser(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()

	// Rejoined users carry their original (old) join date but still get
	// a fresh welcome.
	facts := []domain.UserFact{fact("1", t0.Add(-365*24*time.Hour))}
	out, actions := e.NewUserScan(t0, facts, doc, []string{"1"})

	require.Len(t, notifications(actions), 1)
	assert.Equal(t, t0, out.Welcomed["1"])
}

func TestNewUserScanSkipsFinallyRemoved(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()
	doc.MarkRemoved("1", domain.Removal{When: t0, Success: true})

	out, actions := e.NewUserScan(t0, []domain.UserFact{fact("1", t0)}, doc, nil)

	assert.Empty(t, actions)
	assert.NotContains(t, out.Welcomed, "1")
}

func TestInactivityScanScenarioTimeline(t *testing.T) {
	// User joins at t0, never active, warn=27 kick=30 grace=24h.
	// Baseline is t0+24h.
	e := New(DefaultConfig())
	u := fact("1", t0)

	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)

	// Just below the warning threshold: nothing.
	_, actions := e.InactivityScan(t0.Add(27*24*time.Hour), []domain.UserFact{u}, doc)
	assert.Empty(t, actions, "26d23h inactive is below warn threshold")

	// 27 days past the baseline: warning.
	warnAt := t0.Add(24*time.Hour + 27*24*time.Hour + 2*time.Hour)
	out, actions := e.InactivityScan(warnAt, []domain.UserFact{u}, doc)
	ns := notifications(actions)
	require.Len(t, ns, 1)
	assert.Equal(t, domain.NotifyWarning, ns[0].Kind)
	assert.Equal(t, 27, ns[0].DaysInactive)
	assert.Equal(t, warnAt, out.Warned["1"])
	assert.Equal(t, warnAt, out.LastInactivityScan)

	// 30 days past the baseline: removal action, no second warning.
	kickAt := t0.Add(24*time.Hour + 30*24*time.Hour + time.Hour)
	out2, actions := e.InactivityScan(kickAt, []domain.UserFact{u}, out)
	assert.Empty(t, notifications(actions))
	rs := removals(actions)
	require.Len(t, rs, 1)
	assert.Equal(t, "1", rs[0].UserID)
	assert.GreaterOrEqual(t, rs[0].DaysInactive, 30)
	assert.NotContains(t, out2.Removed, "1", "removal is marked at apply time, not scan time")
}

func TestInactivityScanUsesLastActivity(t *testing.T) {
	e := New(DefaultConfig())
	u := fact("1", t0.Add(-100*24*time.Hour))
	active := t0.Add(-5 * 24 * time.Hour)
	u.LastActivityAt = &active

	doc := state.NewDocument()
	doc.MarkWelcomed("1", u.JoinedAt)

	_, actions := e.InactivityScan(t0, []domain.UserFact{u}, doc)
	assert.Empty(t, actions, "recent activity resets the inactivity clock")
}

func TestInactivityScanWarnedOnlyOnce(t *testing.T) {
	e := New(DefaultConfig())
	u := fact("1", t0)
	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)

	at := t0.Add(28 * 24 * time.Hour)
	out, actions := e.InactivityScan(at, []domain.UserFact{u}, doc)
	require.Len(t, notifications(actions), 1)

	_, actions = e.InactivityScan(at.Add(time.Hour), []domain.UserFact{u}, out)
	assert.Empty(t, actions, "already-warned user below kick threshold gets nothing")
}

func TestInactivityScanSkipsVIP(t *testing.T) {
	e := New(DefaultConfig())
	u := fact("1", t0)
	u.VIP = true
	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)

	out, actions := e.InactivityScan(t0.Add(400*24*time.Hour), []domain.UserFact{u}, doc)
	assert.Empty(t, actions)
	assert.NotContains(t, out.Removed, "1")
	assert.NotContains(t, out.Warned, "1")
}

func TestInactivityScanSafetyFirstSkip(t *testing.T) {
	e := New(DefaultConfig())
	u := domain.UserFact{ID: "1", Email: "1@example.com"} // no join date, no activity

	_, actions := e.InactivityScan(t0.Add(365*24*time.Hour), []domain.UserFact{u}, state.NewDocument())
	assert.Empty(t, actions, "user with no baseline must never be warned or removed")
}

func TestInactivityScanFallsBackToWelcomedTimestamp(t *testing.T) {
	e := New(DefaultConfig())
	u := domain.UserFact{ID: "1", Email: "1@example.com"} // provider lost the join date

	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)

	_, actions := e.InactivityScan(t0.Add(32*24*time.Hour), []domain.UserFact{u}, doc)
	require.Len(t, removals(actions), 1)
}

func TestInactivityScanRetriesFailedRemoval(t *testing.T) {
	e := New(DefaultConfig())
	u := fact("1", t0)
	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)
	doc.MarkWarned("1", t0.Add(28*24*time.Hour))
	doc.MarkRemoved("1", domain.Removal{When: t0.Add(31 * 24 * time.Hour), Success: false, Reason: "timeout"})

	_, actions := e.InactivityScan(t0.Add(32*24*time.Hour), []domain.UserFact{u}, doc)
	require.Len(t, removals(actions), 1, "failed removal is retried on the next scan")
}

func TestReconcileActiveResetsRejoinedUser(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)
	doc.MarkWarned("1", t0)
	doc.MarkRemoved("1", domain.Removal{When: t0, Success: true, Reason: "inactivity"})

	out, rejoined, _ := e.ReconcileActive(doc, []string{"1", "2"})

	assert.Equal(t, []string{"1"}, rejoined)
	assert.False(t, out.Tracked("1"), "rejoined user must be fully reset")
}

func TestReconcileActiveDropsDepartedTracking(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()
	doc.MarkWelcomed("gone", t0)
	doc.MarkWarned("gone", t0)
	doc.MarkWelcomed("here", t0)
	doc.MarkRemoved("audit", domain.Removal{When: t0, Success: true})

	out, _, departed := e.ReconcileActive(doc, []string{"here"})

	assert.Equal(t, []string{"gone"}, departed)
	assert.NotContains(t, out.Welcomed, "gone")
	assert.NotContains(t, out.Warned, "gone")
	assert.Contains(t, out.Welcomed, "here")
	assert.Contains(t, out.Removed, "audit", "removal records are kept as audit trail")
}

func TestReconcileActiveIgnoresEmptyActiveList(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)

	out, rejoined, departed := e.ReconcileActive(doc, nil)

	assert.Empty(t, rejoined)
	assert.Empty(t, departed)
	assert.Contains(t, out.Welcomed, "1")
}

func TestReconcileActiveKeepsFailedRemovalForRetry(t *testing.T) {
	e := New(DefaultConfig())
	doc := state.NewDocument()
	doc.MarkWelcomed("1", t0)
	doc.MarkRemoved("1", domain.Removal{When: t0, Success: false, Reason: "timeout"})

	out, rejoined, _ := e.ReconcileActive(doc, []string{"1"})

	assert.Empty(t, rejoined, "failed removal is not a rejoin")
	assert.Contains(t, out.Removed, "1")
}
