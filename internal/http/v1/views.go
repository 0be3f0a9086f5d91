package v1

import (
	"time"

	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
	"github.com/tellerworks/tellerd/internal/scheduling/dispatch"
	"github.com/tellerworks/tellerd/internal/scheduling/metrics"
)

// Wire views for the dashboard. Durations are exposed in seconds, not
// Go duration strings, to keep the payloads language-neutral.

type agentView struct {
	ID                 string  `json:"agent_id"`
	Name               string  `json:"name"`
	WorkloadLimit      int     `json:"workload_limit"`
	CurrentWorkload    int     `json:"current_workload"`
	Availability       string  `json:"availability"`
	CustomersServed    int     `json:"customers_served"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

type customerView struct {
	ID                 string     `json:"customer_id"`
	Priority           string     `json:"priority"`
	ServiceTimeSeconds float64    `json:"service_time_seconds"`
	ArrivalTime        time.Time  `json:"arrival_time"`
	Status             string     `json:"status"`
	AssignedAgent      string     `json:"assigned_agent,omitempty"`
	WaitTimeSeconds    *float64   `json:"wait_time_seconds,omitempty"`
	ServiceStartTime   *time.Time `json:"service_start_time,omitempty"`
	ServiceEndTime     *time.Time `json:"service_end_time,omitempty"`
}

type snapshotView struct {
	TakenAt      time.Time        `json:"taken_at"`
	Agents       []agentView      `json:"agents"`
	WaitingQueue []customerView   `json:"waiting_queue"`
	InService    []customerView   `json:"in_service"`
	Metrics      metrics.Snapshot `json:"metrics"`
}

func viewAgent(a agents.Agent) agentView {
	return agentView{
		ID:                 a.ID,
		Name:               a.Name,
		WorkloadLimit:      a.WorkloadLimit,
		CurrentWorkload:    a.CurrentWorkload,
		Availability:       string(a.Availability),
		CustomersServed:    a.ServedCount,
		UtilizationPercent: a.UtilizationPercent,
	}
}

func viewCustomer(c customers.Customer) customerView {
	v := customerView{
		ID:                 c.ID,
		Priority:           c.Tier.String(),
		ServiceTimeSeconds: c.ServiceTime.Seconds(),
		ArrivalTime:        c.ArrivalAt,
		Status:             string(c.Status),
		AssignedAgent:      c.AssignedAgent,
		ServiceStartTime:   c.ServiceStartAt,
		ServiceEndTime:     c.ServiceEndAt,
	}
	// Wait time is meaningful only once service has started.
	if c.ServiceStartAt != nil {
		w := c.WaitTime.Seconds()
		v.WaitTimeSeconds = &w
	}
	return v
}

func viewSnapshot(s dispatch.Snapshot) snapshotView {
	out := snapshotView{
		TakenAt: s.TakenAt,
		Metrics: s.Metrics,
		Agents:  make([]agentView, 0, len(s.Agents)),
	}
	for _, a := range s.Agents {
		out.Agents = append(out.Agents, viewAgent(a))
	}
	out.WaitingQueue = make([]customerView, 0, len(s.WaitingQueue))
	for _, c := range s.WaitingQueue {
		out.WaitingQueue = append(out.WaitingQueue, viewCustomer(c))
	}
	out.InService = make([]customerView, 0, len(s.InService))
	for _, c := range s.InService {
		out.InService = append(out.InService, viewCustomer(c))
	}
	return out
}
