package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tellerworks/tellerd/internal/generator"
	httpserver "github.com/tellerworks/tellerd/internal/http"
	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/dispatch"
)

var agentNames = []string{"Alex", "Blake", "Casey", "Dana", "Elliot", "Frankie", "Gray", "Harper", "Indigo", "Jordan"}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	tick := flag.Duration("tick", dispatch.DefaultTickInterval, "Dispatcher tick interval")
	agentCount := flag.Int("agents", 5, "Number of agents to bootstrap")
	historyLimit := flag.Int("history", 200, "Served customers retained for metrics")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for agent limits and the arrival generator")
	generate := flag.Bool("generate", true, "Run the random customer arrival generator")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	reg := agents.NewRegistry()
	for i := 0; i < *agentCount; i++ {
		a := agents.New(agentNames[i%len(agentNames)], rng.Intn(3)+1)
		if err := reg.Register(a); err != nil {
			log.Fatalf("bootstrap agent: %v", err)
		}
	}
	log.Printf("tellerd: initialized with %d agents", *agentCount)

	core := dispatch.New(reg, dispatch.Config{
		TickInterval: *tick,
		HistoryLimit: *historyLimit,
	})

	adminSecret := []byte(os.Getenv("TELLERD_ADMIN_JWT_SECRET"))
	srv := &http.Server{
		Addr:    *addr,
		Handler: httpserver.NewServer(core, adminSecret),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return core.Run(gCtx)
	})

	if *generate {
		gen := generator.New(core.SubmitCustomer, rng.Int63())
		g.Go(func() error {
			return gen.Run(gCtx)
		})
	}

	g.Go(func() error {
		log.Printf("tellerd listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("tellerd: %v", err)
	}
	log.Printf("tellerd: shut down")
}
