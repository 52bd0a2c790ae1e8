package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for onboarding and archive transitions.
// All methods are safe on a nil receiver.
type Metrics struct {
	// Transitions by operation (submit, approve_analysis, ...) and result
	// (applied, noop, or the error class).
	Transitions *prometheus.CounterVec

	// Archive workflow decisions by operation and resulting account status.
	ArchiveDecisions *prometheus.CounterVec

	// Notification events that could not be published after commit.
	PublishFailures prometheus.Counter
}

// New registers all metrics on reg. Pass prometheus.DefaultRegisterer in main.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "party_onboarding_transitions_total",
			Help: "Onboarding transitions by operation and result",
		}, []string{"operation", "result"}),

		ArchiveDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "party_archive_decisions_total",
			Help: "Archive workflow operations by operation and resulting account status",
		}, []string{"operation", "status"}),

		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "party_notification_publish_failures_total",
			Help: "Notification events that failed to publish to the broker",
		}),
	}
}

func (m *Metrics) IncTransition(operation, result string) {
	if m != nil {
		m.Transitions.WithLabelValues(operation, result).Inc()
	}
}

func (m *Metrics) IncArchiveDecision(operation, status string) {
	if m != nil {
		m.ArchiveDecisions.WithLabelValues(operation, status).Inc()
	}
}

func (m *Metrics) IncPublishFailure() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
