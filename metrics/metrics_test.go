package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, name, label string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label == "" {
				return metric.GetCounter().GetValue()
			}
			for _, lp := range metric.GetLabel() {
				if lp.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Spawn("ok")
		m.Claim("caught")
		m.Minted(2)
		m.Command("ping")
		m.ObserveRender(time.Second)
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.Spawn("ok")
	m.Spawn("ok")
	m.Spawn("failed")
	m.Claim("caught")
	m.Minted(3)
	m.Command("giveball")
	m.ObserveRender(20 * time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m, "countrydex_spawns_total", "ok"))
	assert.Equal(t, 1.0, counterValue(t, m, "countrydex_spawns_total", "failed"))
	assert.Equal(t, 1.0, counterValue(t, m, "countrydex_claims_total", "caught"))
	assert.Equal(t, 3.0, counterValue(t, m, "countrydex_instances_minted_total", ""))
	assert.Equal(t, 1.0, counterValue(t, m, "countrydex_commands_total", "giveball"))

	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)
}
