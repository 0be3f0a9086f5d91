package policy

import (
	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

// ShortestJob serves the smallest required service time first, ties
// broken by arrival. Each customer goes to the least-loaded eligible
// agent, registration order breaking ties.
//
// Long jobs can starve under a steady stream of short ones; that is
// accepted, not corrected.
type ShortestJob struct{}

func (p *ShortestJob) Name() string { return NameShortestJob }

// Less orders by required service time ascending, then arrival.
func (p *ShortestJob) Less(a, b *customers.Customer) bool {
	if a.ServiceTime != b.ServiceTime {
		return a.ServiceTime < b.ServiceTime
	}
	return a.ArrivalAt.Before(b.ArrivalAt)
}

func (p *ShortestJob) Select(eligible []*agents.Agent, ordered []*customers.Customer) []Assignment {
	if len(eligible) == 0 {
		return nil
	}
	spare := spareCapacity(eligible)
	// Effective load includes assignments made earlier in this call.
	load := make(map[string]int, len(eligible))
	for _, a := range eligible {
		load[a.ID] = a.CurrentWorkload
	}

	var out []Assignment
	for _, c := range ordered {
		agentID := ""
		best := -1
		for _, a := range eligible {
			if spare[a.ID] <= 0 {
				continue
			}
			if best == -1 || load[a.ID] < best {
				best = load[a.ID]
				agentID = a.ID
			}
		}
		if agentID == "" {
			break
		}
		spare[agentID]--
		load[agentID]++
		out = append(out, Assignment{CustomerID: c.ID, AgentID: agentID})
	}
	return out
}
