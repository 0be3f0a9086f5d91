package policy

import (
	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

// Priority serves the highest tier first, earliest arrival within a
// tier. Agents are picked first-fit in registration order.
//
// A continuous VIP stream can starve Normal customers indefinitely;
// this policy documents that rather than mitigating it (no aging).
type Priority struct{}

func (p *Priority) Name() string { return NamePriority }

// Less orders by tier descending, then arrival ascending.
func (p *Priority) Less(a, b *customers.Customer) bool {
	if a.Tier != b.Tier {
		return a.Tier > b.Tier
	}
	return a.ArrivalAt.Before(b.ArrivalAt)
}

func (p *Priority) Select(eligible []*agents.Agent, ordered []*customers.Customer) []Assignment {
	if len(eligible) == 0 {
		return nil
	}
	spare := spareCapacity(eligible)

	var out []Assignment
	for _, c := range ordered {
		agentID := ""
		for _, a := range eligible {
			if spare[a.ID] > 0 {
				agentID = a.ID
				break
			}
		}
		if agentID == "" {
			break
		}
		spare[agentID]--
		out = append(out, Assignment{CustomerID: c.ID, AgentID: agentID})
	}
	return out
}
