package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTransition("submit", "applied")
	m.IncTransition("submit", "applied")
	m.IncArchiveDecision("request", "archiving")
	m.IncPublishFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("submit", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArchiveDecisions.WithLabelValues("request", "archiving")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTransition("submit", "applied")
		m.IncArchiveDecision("restore", "pending")
		m.IncPublishFailure()
	})
}
