package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotReflectsIncrements(t *testing.T) {
	m := New()

	m.IncWelcomed()
	m.IncWelcomed()
	m.IncNotificationsFailed()
	m.IncStateSaves()

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.Welcomed)
	assert.EqualValues(t, 1, snap.NotificationsFailed)
	assert.EqualValues(t, 1, snap.StateSaves)
	assert.EqualValues(t, 0, snap.Removed)
	assert.False(t, snap.StartedAt.IsZero())
}

func TestPrometheusCountersMirrored(t *testing.T) {
	m := New()
	m.IncProviderErrors()
	m.IncProviderErrors()
	m.IncProviderErrors()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "guardian_provider_errors_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.EqualValues(t, 3, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "expected guardian_provider_errors_total to be registered")
}
