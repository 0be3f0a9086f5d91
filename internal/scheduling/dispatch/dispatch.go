// Package dispatch runs the scheduling loop. One Dispatcher owns all
// scheduler state (registry, queue, history, active policy) behind a
// single mutex held for the length of a tick's Advance/Select/Commit
// sequence. Producers only append to an arrival inbox and consumers
// only read published snapshots, so neither contends with a tick for
// long.
package dispatch

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	collections "github.com/golang-collections/collections/queue"

	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/customers"
	"github.com/tellerworks/tellerd/internal/scheduling/metrics"
	"github.com/tellerworks/tellerd/internal/scheduling/policy"
)

const DefaultTickInterval = 5 * time.Second

// Config tunes a Dispatcher. Zero values fall back to defaults.
type Config struct {
	TickInterval time.Duration
	HistoryLimit int
	Clock        Clock
	Fairness     metrics.FairnessFunc
}

// Snapshot is the read-only view handed to the presentation layer. It
// reflects state as of the last completed tick.
type Snapshot struct {
	TakenAt      time.Time            `json:"taken_at"`
	Agents       []agents.Agent       `json:"agents"`
	WaitingQueue []customers.Customer `json:"waiting_queue"`
	InService    []customers.Customer `json:"in_service"`
	Metrics      metrics.Snapshot     `json:"metrics"`
}

// Dispatcher is the sole mutator of agent and customer state.
type Dispatcher struct {
	mu      sync.Mutex
	reg     *agents.Registry
	queue   *customers.Queue
	history *customers.History
	active  policy.Policy
	serving map[string]*customers.Customer

	engine    *metrics.Engine
	clock     Clock
	interval  time.Duration
	startedAt time.Time

	// inbox decouples concurrent arrivals from the tick mutex; the
	// tick drains it before advancing.
	inboxMu sync.Mutex
	inbox   *collections.Queue

	last Snapshot
}

// New builds a dispatcher around an already-populated registry,
// starting with the round-robin policy like the original dashboard.
func New(reg *agents.Registry, cfg Config) *Dispatcher {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	p, _ := policy.New(policy.NameRoundRobin)
	d := &Dispatcher{
		reg:      reg,
		queue:    customers.NewQueue(),
		history:  customers.NewHistory(cfg.HistoryLimit),
		active:   p,
		serving:  make(map[string]*customers.Customer),
		engine:   metrics.NewEngine(cfg.Fairness),
		clock:    cfg.Clock,
		interval: cfg.TickInterval,
		inbox:    collections.New(),
	}
	d.startedAt = d.clock.Now()
	return d
}

// SubmitCustomer validates and accepts an arrival. The customer lands
// in the inbox and joins the waiting queue on the next tick; its
// arrival timestamp is the submission time, not the ingest time.
func (d *Dispatcher) SubmitCustomer(tier customers.Tier, serviceTime time.Duration) (string, error) {
	c, err := customers.New(tier, serviceTime, d.clock.Now())
	if err != nil {
		return "", err
	}
	d.inboxMu.Lock()
	d.inbox.Enqueue(c)
	d.inboxMu.Unlock()
	metrics.ArrivalsTotal.Inc()
	log.Printf("dispatch: customer %s arrived (priority=%s service=%s)", c.ID, c.Tier, c.ServiceTime)
	return c.ID, nil
}

// SwitchPolicy swaps the active policy. It takes effect on the next
// tick; customers already in service are untouched and every waiting
// customer is re-evaluated under the new comparator.
func (d *Dispatcher) SwitchPolicy(name string) error {
	p, err := policy.New(name)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.active = p
	d.mu.Unlock()
	log.Printf("dispatch: active policy switched to %s", name)
	return nil
}

// ActivePolicy names the policy the next tick will use.
func (d *Dispatcher) ActivePolicy() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active.Name()
}

// RegisterAgent adds a teller to the registry.
func (d *Dispatcher) RegisterAgent(name string, workloadLimit int) (string, error) {
	a := agents.New(name, workloadLimit)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.reg.Register(a); err != nil {
		return "", err
	}
	log.Printf("dispatch: agent %s (%s) registered with limit %d", a.ID, a.Name, a.WorkloadLimit)
	return a.ID, nil
}

// SetAgentAvailability flips an agent Available or Offline.
func (d *Dispatcher) SetAgentAvailability(id string, s agents.Availability) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.SetAvailability(id, s)
}

// Snapshot returns the view published by the last completed tick.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// History returns served customers, oldest first.
func (d *Dispatcher) History() []customers.Customer {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := d.history.Items()
	out := make([]customers.Customer, 0, len(items))
	for _, c := range items {
		out = append(out, *c)
	}
	return out
}

// Run drives ticks at the configured interval until the context is
// cancelled. An in-flight tick always completes; commits happen
// atomically under the mutex, so a stop cannot corrupt state.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Printf("dispatch: loop started (tick %s, policy %s)", d.interval, d.ActivePolicy())
	// Publish an initial snapshot so early polls see agents.
	d.Tick(d.clock.Now())
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("dispatch: loop stopped")
			return nil
		case <-ticker.C:
			d.Tick(d.clock.Now())
		}
	}
}

// Tick executes one Advance/Select/Commit/Report sequence at the
// given instant. Exported so tests can drive virtual time.
func (d *Dispatcher) Tick(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	started := time.Now()

	d.drainInbox()
	d.advance(now)

	eligible := d.reg.ListEligible()
	ordered := d.queue.PeekOrdered(d.active.Less)
	assignments := d.active.Select(eligible, ordered)
	d.commit(assignments, now)

	d.report(now)
	metrics.TickDurationSeconds.Observe(time.Since(started).Seconds())
}

// drainInbox moves concurrently submitted customers into the waiting
// queue in submission order.
func (d *Dispatcher) drainInbox() {
	d.inboxMu.Lock()
	defer d.inboxMu.Unlock()
	for d.inbox.Len() > 0 {
		c := d.inbox.Dequeue().(*customers.Customer)
		if err := d.queue.Enqueue(c); err != nil {
			// Unreachable after SubmitCustomer validation; never drop silently.
			log.Printf("dispatch: rejecting customer %s at ingest: %v", c.ID, err)
		}
	}
}

// advance retires every in-service customer whose required time has
// elapsed, freeing the agent's slot.
func (d *Dispatcher) advance(now time.Time) {
	for id, c := range d.serving {
		elapsed := now.Sub(*c.ServiceStartAt)
		if elapsed < c.ServiceTime {
			continue
		}
		if err := d.reg.CommitCompletion(c.AssignedAgent, elapsed); err != nil {
			log.Printf("dispatch: completion for %s on missing agent %s: %v", id, c.AssignedAgent, err)
		}
		end := now
		c.Status = customers.StatusServed
		c.ServiceEndAt = &end
		d.history.Append(c)
		delete(d.serving, id)
		metrics.CompletionsTotal.Inc()
		log.Printf("dispatch: customer %s served by agent %s (waited %s)", c.ID, c.AssignedAgent, c.WaitTime)
	}
}

// commit applies the policy's proposals. An agent that stopped being
// assignable since selection drops only its own assignment; the
// customer simply stays waiting for the next tick.
func (d *Dispatcher) commit(assignments []policy.Assignment, now time.Time) {
	for _, asn := range assignments {
		c, ok := d.queue.Get(asn.CustomerID)
		if !ok {
			log.Printf("dispatch: assignment for unknown customer %s dropped", asn.CustomerID)
			continue
		}
		if err := d.reg.CommitAssignment(asn.AgentID); err != nil {
			metrics.TransientConflictsTotal.Inc()
			log.Printf("dispatch: assignment %s->%s dropped, customer re-queued: %v", asn.CustomerID, asn.AgentID, err)
			continue
		}
		if _, err := d.queue.Remove(asn.CustomerID); err != nil {
			// Should not happen after Get; keep the workload invariant intact.
			_ = d.reg.CommitCompletion(asn.AgentID, 0)
			continue
		}
		start := now
		c.Status = customers.StatusInService
		c.AssignedAgent = asn.AgentID
		c.ServiceStartAt = &start
		c.WaitTime = now.Sub(c.ArrivalAt)
		d.serving[c.ID] = c
		metrics.AssignmentsTotal.WithLabelValues(d.active.Name()).Inc()
		log.Printf("dispatch: customer %s assigned to agent %s", c.ID, asn.AgentID)
	}
}

// report recomputes the metrics snapshot from current state and
// publishes it for pollers and prometheus.
func (d *Dispatcher) report(now time.Time) {
	elapsed := now.Sub(d.startedAt)
	ags := d.reg.Snapshot(elapsed)
	waiting := d.queue.PeekOrdered(d.active.Less)

	m := d.engine.Compute(ags, d.history.Items(), waiting, elapsed, now)
	m.ActiveAlgorithm = d.active.Name()

	wq := make([]customers.Customer, 0, len(waiting))
	for _, c := range waiting {
		wq = append(wq, *c)
	}
	inService := make([]customers.Customer, 0, len(d.serving))
	for _, c := range d.serving {
		inService = append(inService, *c)
	}
	sort.Slice(inService, func(i, j int) bool {
		a, b := inService[i], inService[j]
		if !a.ServiceStartAt.Equal(*b.ServiceStartAt) {
			return a.ServiceStartAt.Before(*b.ServiceStartAt)
		}
		return a.ID < b.ID
	})
	d.last = Snapshot{TakenAt: now, Agents: ags, WaitingQueue: wq, InService: inService, Metrics: m}
	metrics.Publish(m)
}
