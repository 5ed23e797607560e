package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okonma/citymood/collector"
	"github.com/okonma/citymood/logger"
)

// cycleTimeout bounds a single collection cycle.
const cycleTimeout = 30 * time.Minute

// CycleRunner runs one collection cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) collector.CycleStats
}

// Scheduler runs collection cycles on a repeating timer. Start is
// idempotent; overlapping runs are skipped, never stacked.
type Scheduler struct {
	mu       sync.Mutex
	runner   CycleRunner
	interval time.Duration
	cron     *cron.Cron
	running  bool
	inFlight atomic.Bool

	// OnCycle, when set, fires after every completed cycle.
	OnCycle func(stats collector.CycleStats)
}

// New creates a scheduler firing every interval.
func New(runner CycleRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
	}
}

// Start runs one cycle immediately, then arms the repeating timer.
// Calling Start on a running scheduler is a logged no-op, so repeated
// initialization from a UI layer never creates a second timer.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logger.Logger.Printf("Scheduler already running, ignoring start request")
		return nil
	}

	logger.Logger.Printf("Starting scheduler, collecting every %v", s.interval)

	// First cycle runs before the timer is armed, so a fresh process has
	// data without waiting a full interval.
	s.runGuarded()

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, s.runGuarded); err != nil {
		return fmt.Errorf("failed to schedule collection job: %w", err)
	}
	c.Start()

	s.cron = c
	s.running = true
	return nil
}

// Stop cancels the timer and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron = nil
	s.running = false
	logger.Logger.Printf("Scheduler stopped")
}

// Running reports whether the timer is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CollectionInFlight reports whether a cycle is currently executing.
func (s *Scheduler) CollectionInFlight() bool {
	return s.inFlight.Load()
}

// TriggerNow runs a cycle outside the timer. It refuses when one is
// already in flight.
func (s *Scheduler) TriggerNow() (collector.CycleStats, bool) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return collector.CycleStats{}, false
	}
	defer s.inFlight.Store(false)

	return s.run(), true
}

// runGuarded is the timer entry point: a tick arriving while a cycle is
// still in flight is dropped.
func (s *Scheduler) runGuarded() {
	if !s.inFlight.CompareAndSwap(false, true) {
		logger.Logger.Printf("Previous collection cycle still running, skipping this tick")
		return
	}
	defer s.inFlight.Store(false)

	s.run()
}

func (s *Scheduler) run() collector.CycleStats {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	stats := s.runner.RunCycle(ctx)
	if s.OnCycle != nil {
		s.OnCycle(stats)
	}
	return stats
}

// Process-wide singleton holder. UI layers re-invoking initialization on
// every page load all land on the same scheduler instance.
var (
	defaultMu        sync.Mutex
	defaultScheduler *Scheduler
)

// EnsureStarted creates the process-wide scheduler exactly once and starts
// it. Later calls return the existing instance without arming a second
// timer.
func EnsureStarted(runner CycleRunner, interval time.Duration,
	onCycle func(collector.CycleStats)) (*Scheduler, error) {

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultScheduler == nil {
		defaultScheduler = New(runner, interval)
		defaultScheduler.OnCycle = onCycle
	}

	if err := defaultScheduler.Start(); err != nil {
		return nil, err
	}
	return defaultScheduler, nil
}
