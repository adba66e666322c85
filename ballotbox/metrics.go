package ballotbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ballotBoxMetrics struct {
	sessionsCreated  prometheus.Counter
	stateTransitions *prometheus.CounterVec
	ballotsAccepted  prometheus.Counter
	ballotsRejected  *prometheus.CounterVec
	decryptionGrants prometheus.Counter
}

func (b *BallotBox) initMetrics(registerer prometheus.Registerer) {
	promautoFactory := promauto.With(registerer)
	b.metrics = &ballotBoxMetrics{}
	b.metrics.sessionsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "blindtest_sessions_created_total",
		Help: "number of sessions created",
	})
	b.metrics.stateTransitions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blindtest_session_transitions_total",
			Help: "number of session state transitions by target state",
		},
		[]string{"state"},
	)
	b.metrics.ballotsAccepted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "blindtest_ballots_accepted_total",
		Help: "number of ballots accepted and folded into an aggregate",
	})
	b.metrics.ballotsRejected = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blindtest_ballots_rejected_total",
			Help: "number of ballots rejected by reason",
		},
		[]string{"reason"},
	)
	b.metrics.decryptionGrants = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "blindtest_decryption_grants_total",
		Help: "number of organizer decryption grants",
	})
}
