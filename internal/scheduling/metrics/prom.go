package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's own prometheus registry, exposed on
// /metrics by the HTTP server.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// WaitingCustomers is the current depth of the waiting queue.
var WaitingCustomers = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "tellerd",
	Name:      "waiting_customers",
	Help:      "Customers currently waiting for an agent",
})

// AverageWaitSeconds is the mean wait over served customers.
var AverageWaitSeconds = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "tellerd",
	Name:      "average_wait_seconds",
	Help:      "Average wait time across served customers",
})

// UtilizationPercent is the mean agent utilization.
var UtilizationPercent = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "tellerd",
	Name:      "agent_utilization_percent",
	Help:      "Average agent utilization (busy time over elapsed time)",
})

// FairnessScore is the workload dispersion score, higher is fairer.
var FairnessScore = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "tellerd",
	Name:      "fairness_score",
	Help:      "Dispersion score of work across agents (0-100)",
})

// ArrivalsTotal counts accepted customer submissions.
var ArrivalsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "tellerd",
	Name:      "arrivals_total",
	Help:      "Customers accepted at the boundary",
})

// AssignmentsTotal counts committed assignments, labelled by the
// policy that proposed them.
var AssignmentsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tellerd",
	Name:      "assignments_total",
	Help:      "Assignments committed, by scheduling policy",
}, []string{"policy"})

// CompletionsTotal counts retired customers.
var CompletionsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "tellerd",
	Name:      "completions_total",
	Help:      "Customers whose service completed",
})

// TransientConflictsTotal counts assignments dropped because the
// agent became unassignable between selection and commit.
var TransientConflictsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "tellerd",
	Name:      "transient_conflicts_total",
	Help:      "Assignments dropped and re-queued due to agent state changes",
})

// TickDurationSeconds observes how long one dispatcher tick body takes.
var TickDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "tellerd",
	Name:      "tick_duration_seconds",
	Help:      "Time spent inside one Advance/Select/Commit tick",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
})

// Publish pushes a snapshot's gauge values to the registry. Counters
// are incremented at the point the events happen.
func Publish(s Snapshot) {
	WaitingCustomers.Set(float64(s.CustomersInQueue))
	AverageWaitSeconds.Set(s.AverageWaitSeconds)
	UtilizationPercent.Set(s.UtilizationPercent)
	FairnessScore.Set(s.FairnessScore)
}
