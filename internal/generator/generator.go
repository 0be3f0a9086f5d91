// Package generator simulates customer arrivals for demo runs. It
// only pushes inputs through the same validated submission path the
// HTTP boundary uses.
package generator

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

// SubmitFunc is the dispatcher's customer intake.
type SubmitFunc func(tier customers.Tier, serviceTime time.Duration) (string, error)

// Generator emits a random customer every 1-5 seconds: 70% Normal,
// 20% Corporate, 10% VIP, with service times uniform in 5-30s.
type Generator struct {
	submit SubmitFunc
	rng    *rand.Rand

	minDelay, maxDelay     time.Duration
	minService, maxService time.Duration
}

func New(submit SubmitFunc, seed int64) *Generator {
	return &Generator{
		submit:     submit,
		rng:        rand.New(rand.NewSource(seed)),
		minDelay:   1 * time.Second,
		maxDelay:   5 * time.Second,
		minService: 5 * time.Second,
		maxService: 30 * time.Second,
	}
}

// Run produces arrivals until the context is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	log.Printf("generator: started")
	timer := time.NewTimer(g.nextDelay())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("generator: stopped")
			return nil
		case <-timer.C:
			tier := g.nextTier()
			svc := g.nextService()
			if _, err := g.submit(tier, svc); err != nil {
				log.Printf("generator: submit rejected: %v", err)
			}
			timer.Reset(g.nextDelay())
		}
	}
}

func (g *Generator) nextDelay() time.Duration {
	return g.minDelay + time.Duration(g.rng.Int63n(int64(g.maxDelay-g.minDelay)))
}

func (g *Generator) nextService() time.Duration {
	span := int64((g.maxService - g.minService) / time.Second)
	return g.minService + time.Duration(g.rng.Int63n(span+1))*time.Second
}

func (g *Generator) nextTier() customers.Tier {
	switch roll := g.rng.Float64(); {
	case roll < 0.10:
		return customers.TierVIP
	case roll < 0.30:
		return customers.TierCorporate
	default:
		return customers.TierNormal
	}
}
