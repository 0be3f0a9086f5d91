// Package metrics derives aggregate fairness and utilization figures
// from scheduler state. The engine holds no state of its own: every
// snapshot is recomputed from the registry and history it is handed,
// so a mid-run policy switch cannot bias the numbers.
package metrics

import (
	"math"
	"time"

	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

// Snapshot is the aggregate view published after every tick.
type Snapshot struct {
	AverageWaitSeconds  float64 `json:"average_wait_time"`
	WaitingEstimateSecs float64 `json:"waiting_estimate"`
	UtilizationPercent  float64 `json:"agent_utilization"`
	FairnessScore       float64 `json:"fairness_score"`
	CompletedCustomers  int     `json:"completed_customers"`
	CustomersInQueue    int     `json:"customers_in_queue"`
	ActiveAlgorithm     string  `json:"active_algorithm"`
}

// FairnessFunc scores how evenly work is spread over the agents'
// current workloads. Higher is fairer. The formula is configuration,
// not doctrine.
type FairnessFunc func(workloads []int) float64

// StdDevFairness is the default score: 100 minus one hundred times
// the standard deviation of the workloads, clamped to [0, 100]. No
// agents means nothing is unfair yet.
func StdDevFairness(workloads []int) float64 {
	if len(workloads) == 0 {
		return 100
	}
	mean := 0.0
	for _, w := range workloads {
		mean += float64(w)
	}
	mean /= float64(len(workloads))
	variance := 0.0
	for _, w := range workloads {
		d := float64(w) - mean
		variance += d * d
	}
	variance /= float64(len(workloads))
	score := 100 - 100*math.Sqrt(variance)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Engine computes snapshots. It is safe to share: Compute reads only
// its arguments.
type Engine struct {
	fairness FairnessFunc
}

// NewEngine builds an engine with the given fairness formula, falling
// back to StdDevFairness when nil.
func NewEngine(f FairnessFunc) *Engine {
	if f == nil {
		f = StdDevFairness
	}
	return &Engine{fairness: f}
}

// Compute derives a snapshot from value copies of the agents, the
// served history, and the current waiting set. Before any data exists
// every figure is a zero-safe default, never NaN.
func (e *Engine) Compute(ags []agents.Agent, served, waiting []*customers.Customer, elapsed time.Duration, now time.Time) Snapshot {
	s := Snapshot{
		CompletedCustomers: len(served),
		CustomersInQueue:   len(waiting),
	}

	if len(served) > 0 {
		total := 0.0
		for _, c := range served {
			total += c.WaitTime.Seconds()
		}
		s.AverageWaitSeconds = total / float64(len(served))
	}

	if len(waiting) > 0 {
		total := 0.0
		for _, c := range waiting {
			if d := now.Sub(c.ArrivalAt); d > 0 {
				total += d.Seconds()
			}
		}
		s.WaitingEstimateSecs = total / float64(len(waiting))
	}

	if len(ags) > 0 {
		total := 0.0
		workloads := make([]int, 0, len(ags))
		for _, a := range ags {
			total += a.Utilization(elapsed)
			workloads = append(workloads, a.CurrentWorkload)
		}
		s.UtilizationPercent = total / float64(len(ags))
		s.FairnessScore = e.fairness(workloads)
	} else {
		s.FairnessScore = e.fairness(nil)
	}

	return s
}
