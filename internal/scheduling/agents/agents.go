// Package agents holds the teller registry: who can serve customers,
// how much concurrent work each teller may hold, and the running
// counters the metrics engine derives utilization from.
//
// The registry does no locking of its own. All mutation goes through
// the dispatcher's commit path, which holds the scheduling mutex for
// the duration of a tick.
package agents

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicateAgent       = errors.New("agent id already registered")
	ErrUnknownAgent         = errors.New("unknown agent id")
	ErrInvalidWorkloadLimit = errors.New("workload limit must be positive")
	ErrInvalidAvailability  = errors.New("invalid availability")
	ErrAgentUnavailable     = errors.New("agent cannot accept work")
)

type Availability string

const (
	Available Availability = "available"
	Busy      Availability = "busy"
	Offline   Availability = "offline"
)

// ParseAvailability maps an external string onto an Availability.
func ParseAvailability(s string) (Availability, error) {
	switch Availability(s) {
	case Available, Busy, Offline:
		return Availability(s), nil
	}
	return "", ErrInvalidAvailability
}

// Agent is a single teller. CurrentWorkload counts customers in
// service; it never exceeds WorkloadLimit.
type Agent struct {
	ID              string        `json:"agent_id"`
	Name            string        `json:"name"`
	WorkloadLimit   int           `json:"workload_limit"`
	CurrentWorkload int           `json:"current_workload"`
	Availability    Availability  `json:"availability"`
	ServedCount     int           `json:"customers_served"`
	BusyTime        time.Duration `json:"-"`

	// Seq is the agent's position in registration order, assigned by
	// the registry. Round-robin rotation advances over this sequence.
	Seq int `json:"-"`

	// UtilizationPercent is filled in on snapshots only.
	UtilizationPercent float64 `json:"utilization_percent"`
}

// New creates an agent with a generated id, marked Available.
func New(name string, workloadLimit int) *Agent {
	return &Agent{
		ID:            uuid.NewString()[:8],
		Name:          name,
		WorkloadLimit: workloadLimit,
		Availability:  Available,
	}
}

// Eligible reports whether the agent may be offered a customer.
func (a *Agent) Eligible() bool {
	return a.Availability == Available && a.CurrentWorkload < a.WorkloadLimit
}

// SpareCapacity is the number of additional customers the agent can hold.
func (a *Agent) SpareCapacity() int {
	return a.WorkloadLimit - a.CurrentWorkload
}

// Utilization returns busy time as a percentage of elapsed wall time.
func (a *Agent) Utilization(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	pct := 100 * float64(a.BusyTime) / float64(elapsed)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Registry keeps agents in registration order. That order is the
// round-robin baseline rotation and the tie-break for agent choice.
type Registry struct {
	ordered []*Agent
	byID    map[string]*Agent
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Agent)}
}

// Register adds an agent. The id must be unique for the lifetime of
// the run; agents are never deleted, only taken Offline.
func (r *Registry) Register(a *Agent) error {
	if a.WorkloadLimit <= 0 {
		return ErrInvalidWorkloadLimit
	}
	if _, exists := r.byID[a.ID]; exists {
		return ErrDuplicateAgent
	}
	a.Seq = len(r.ordered)
	r.ordered = append(r.ordered, a)
	r.byID[a.ID] = a
	return nil
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (*Agent, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// SetAvailability flips an agent between Available and Offline. An
// agent returned to service while at capacity shows up as Busy until
// a completion frees a slot.
func (r *Registry) SetAvailability(id string, s Availability) error {
	a, ok := r.byID[id]
	if !ok {
		return ErrUnknownAgent
	}
	if s == Available && a.CurrentWorkload >= a.WorkloadLimit {
		s = Busy
	}
	a.Availability = s
	return nil
}

// ListEligible returns agents that can take work, in registration order.
func (r *Registry) ListEligible() []*Agent {
	out := make([]*Agent, 0, len(r.ordered))
	for _, a := range r.ordered {
		if a.Eligible() {
			out = append(out, a)
		}
	}
	return out
}

// List returns all agents in registration order.
func (r *Registry) List() []*Agent {
	out := make([]*Agent, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Snapshot returns value copies of every agent with utilization
// computed against the given elapsed run time.
func (r *Registry) Snapshot(elapsed time.Duration) []Agent {
	out := make([]Agent, 0, len(r.ordered))
	for _, a := range r.ordered {
		cp := *a
		cp.UtilizationPercent = a.Utilization(elapsed)
		out = append(out, cp)
	}
	return out
}

// CommitAssignment reserves a workload slot on the agent. It fails
// with ErrAgentUnavailable when the agent went Offline or filled up
// between policy selection and commit; the caller drops that single
// assignment and leaves the customer waiting.
func (r *Registry) CommitAssignment(id string) error {
	a, ok := r.byID[id]
	if !ok {
		return ErrUnknownAgent
	}
	if !a.Eligible() {
		return ErrAgentUnavailable
	}
	a.CurrentWorkload++
	a.ServedCount++
	if a.CurrentWorkload == a.WorkloadLimit {
		a.Availability = Busy
	}
	return nil
}

// CommitCompletion releases a workload slot and accrues the time the
// agent spent on the customer.
func (r *Registry) CommitCompletion(id string, serviceDuration time.Duration) error {
	a, ok := r.byID[id]
	if !ok {
		return ErrUnknownAgent
	}
	if a.CurrentWorkload > 0 {
		a.CurrentWorkload--
	}
	a.BusyTime += serviceDuration
	if a.Availability == Busy && a.CurrentWorkload < a.WorkloadLimit {
		a.Availability = Available
	}
	return nil
}
