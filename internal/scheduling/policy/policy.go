// Package policy implements the interchangeable scheduling algorithms.
// A policy is a pure selection function over the eligible agents and
// the ordered waiting customers; committing its proposals is the
// dispatcher's job.
package policy

import (
	"errors"

	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

var ErrUnknownPolicy = errors.New("unknown scheduling policy")

// Assignment is the ephemeral link a policy proposes. The dispatcher
// resolves the ids and stamps the start time at commit; nothing else
// consumes it.
type Assignment struct {
	CustomerID string
	AgentID    string
}

// Policy selects assignments for one tick.
//
// Contract: Select is deterministic for identical inputs, never
// proposes more work for an agent than its spare capacity within one
// invocation, and never proposes a customer twice. Less is the
// comparator the queue uses to produce the ordered input.
type Policy interface {
	Name() string
	Less(a, b *customers.Customer) bool
	Select(eligible []*agents.Agent, ordered []*customers.Customer) []Assignment
}

const (
	NameRoundRobin  = "round_robin"
	NamePriority    = "priority"
	NameShortestJob = "shortest_job"
)

// New constructs a fresh policy instance by name. Round-robin state
// (the rotation cursor) belongs to the instance, so reactivating a
// policy starts its rotation over.
func New(name string) (Policy, error) {
	switch name {
	case NameRoundRobin:
		return &RoundRobin{}, nil
	case NamePriority:
		return &Priority{}, nil
	case NameShortestJob:
		return &ShortestJob{}, nil
	}
	return nil, ErrUnknownPolicy
}

// Names lists the selectable policies.
func Names() []string {
	return []string{NameRoundRobin, NamePriority, NameShortestJob}
}

// spareCapacity snapshots each eligible agent's remaining slots so a
// single Select never over-books an agent.
func spareCapacity(eligible []*agents.Agent) map[string]int {
	spare := make(map[string]int, len(eligible))
	for _, a := range eligible {
		spare[a.ID] = a.SpareCapacity()
	}
	return spare
}
