package policy

import (
	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

// RoundRobin offers customers in arrival order to agents rotating
// over registration order. The cursor is the registration sequence to
// resume from and persists across ticks, so agents that drop out of
// the eligible set (offline, saturated) are skipped without losing
// the rotation's place: the next assignment still goes to the first
// assignable agent at or past the cursor, wrapping to the front.
type RoundRobin struct {
	cursorSeq int
}

func (p *RoundRobin) Name() string { return NameRoundRobin }

// Less orders customers by arrival, earliest first.
func (p *RoundRobin) Less(a, b *customers.Customer) bool {
	return a.ArrivalAt.Before(b.ArrivalAt)
}

func (p *RoundRobin) Select(eligible []*agents.Agent, ordered []*customers.Customer) []Assignment {
	if len(eligible) == 0 {
		return nil
	}
	spare := spareCapacity(eligible)

	// Eligible agents arrive in registration order; resume from the
	// first one at or past the cursor, wrapping to the front.
	start := 0
	for i, a := range eligible {
		if a.Seq >= p.cursorSeq {
			start = i
			break
		}
	}

	var out []Assignment
	for _, c := range ordered {
		assigned := false
		for probes := 0; probes < len(eligible); probes++ {
			a := eligible[start]
			start = (start + 1) % len(eligible)
			if spare[a.ID] > 0 {
				spare[a.ID]--
				p.cursorSeq = a.Seq + 1
				out = append(out, Assignment{CustomerID: c.ID, AgentID: a.ID})
				assigned = true
				break
			}
		}
		if !assigned {
			// Every agent is saturated for this tick.
			break
		}
	}
	return out
}
