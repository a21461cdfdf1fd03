// Package scheduler wires up the cron job that periodically refreshes the
// per-stage analytics gauges.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"jobmate/workflow-service/internal/analytics"
)

// Source computes current stage analytics, e.g. *workflow.Service.
type Source interface {
	Analytics(ctx context.Context) (analytics.StageAnalytics, error)
}

// Sink receives refreshed analytics, e.g. *metrics.Manager.
type Sink interface {
	SetStageAnalytics(a analytics.StageAnalytics)
}

// Scheduler wraps robfig/cron and manages the refresh loop.
type Scheduler struct {
	cron   *cron.Cron
	source Source
	sink   Sink
	spec   string // cron spec, e.g. "@every 30s"

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler firing on spec.
func New(source Source, sink Sink, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		source: source,
		sink:   sink,
		spec:   spec,
	}
}

// Start registers the job and starts the scheduler. It also refreshes once
// immediately so the gauges are populated before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.refresh(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)

	go s.refresh(ctx)
	return nil
}

// Stop shuts the scheduler down and waits for a running refresh.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	log.Println("[scheduler] Cron stopped")
}

// RunOnce refreshes the gauges synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	a, err := s.source.Analytics(ctx)
	if err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	s.sink.SetStageAnalytics(a)
	return nil
}

func (s *Scheduler) refresh(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("[scheduler] Refresh error: %v", err)
	}
}
