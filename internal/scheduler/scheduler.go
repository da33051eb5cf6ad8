// Package scheduler implements the C9 Scheduler: loads dataset specs,
// translates their cron expressions to triggers, and dispatches
// non-overlapping per-dataset JobExecutions — grounded on the teacher's
// services/automation Scheduler (mutex + trigger map + ticker loop) shape.
package scheduler

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/connresolve"
	"github.com/r3e-network/datalake-ingestion/internal/cronx"
	"github.com/r3e-network/datalake-ingestion/internal/dataset"
	"github.com/r3e-network/datalake-ingestion/internal/datasource"
	"github.com/r3e-network/datalake-ingestion/internal/ledger"
	"github.com/r3e-network/datalake-ingestion/internal/logging"
	"github.com/r3e-network/datalake-ingestion/internal/metrics"
	"github.com/r3e-network/datalake-ingestion/internal/transform"
	"github.com/r3e-network/datalake-ingestion/internal/upload"
)

// tickInterval mirrors the teacher's automation.SchedulerInterval of one
// second for the dispatcher's main loop.
const tickInterval = time.Second

// Dependencies are the collaborators the scheduler wires into every
// JobExecution's pipeline.
type Dependencies struct {
	Resolver            *connresolve.Resolver
	Registry            *transform.Registry
	DataSourceFactory   *datasource.Factory
	UploadFactory       *upload.Factory
	Ledger              ledger.Sink
	Metrics             *metrics.Registry
	Log                 *logging.Logger
	Environment         string
	ConnectionTemplates map[string]string
	DatasetsDir         string
	HotReload           bool
	PollInterval        time.Duration
	StopGracePeriod     time.Duration
}

type entry struct {
	spec     *dataset.DatasetSpec
	schedule *cronx.Schedule
	nextFire time.Time
	runMu    sync.Mutex
}

// Scheduler owns the dataset trigger table and the dispatch loop.
type Scheduler struct {
	deps Dependencies

	mu      sync.Mutex
	entries map[string]*entry

	stopCh chan struct{}
	wg     sync.WaitGroup

	activeMu sync.Mutex
	active   map[string]context.CancelFunc

	// runJobFn defaults to s.runJob; tests override it to exercise dispatch
	// and concurrency semantics without real datasource/upload backends.
	runJobFn func(ctx context.Context, spec *dataset.DatasetSpec)
}

// New builds a Scheduler from Dependencies. Call Start to load specs and
// begin dispatching.
func New(deps Dependencies) *Scheduler {
	s := &Scheduler{
		deps:    deps,
		entries: map[string]*entry{},
		stopCh:  make(chan struct{}),
		active:  map[string]context.CancelFunc{},
	}
	s.runJobFn = s.runJob
	return s
}

// Start loads every dataset spec, registers triggers for enabled ones, and
// launches the dispatch loop (and the hot-reload poller, if configured).
func (s *Scheduler) Start(ctx context.Context) error {
	specs, err := dataset.Load(s.deps.DatasetsDir, s.deps.Log)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		s.register(spec)
	}

	go s.runLoop(ctx)

	if s.deps.HotReload {
		go s.runReloadLoop(ctx)
	}
	return nil
}

// register computes the entry's trigger. Disabled datasets are not
// registered — the scheduler never assigns them a next-fire time (spec §4.9
// / §8 boundary: "Dataset disabled... MUST NOT register a trigger").
//
// An unmodified spec is a no-op: replacing an unchanged entry would hand out
// a brand-new, unlocked runMu while an in-flight execution still holds the
// lock on the old *entry it closed over, letting a concurrent fire() of the
// same dataset slip past TryLock (spec §8.2, Invariant 2 — no two
// executions of the same dataset overlap). Every poll tick calls register()
// for every spec on disk, so this comparison is what keeps a no-change
// reload from ever touching an in-flight dataset's entry.
func (s *Scheduler) register(spec *dataset.DatasetSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !spec.Enabled {
		delete(s.entries, spec.ID)
		return
	}

	if existing, ok := s.entries[spec.ID]; ok && reflect.DeepEqual(existing.spec, spec) {
		return
	}

	schedule, err := cronx.Parse(spec.Cron)
	if err != nil {
		if s.deps.Log != nil {
			s.deps.Log.WithField("dataset_id", spec.ID).WithField("error", err).Warn("scheduler: invalid cron, dataset not scheduled")
		}
		return
	}

	now := time.Now().UTC()
	s.entries[spec.ID] = &entry{
		spec:     spec,
		schedule: schedule,
		nextFire: schedule.Next(now),
	}
}

// unregister removes a dataset's trigger (hot reload removal).
func (s *Scheduler) unregister(datasetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, datasetID)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-s.stopCh:
			s.shutdown()
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	due := make([]*entry, 0)
	for _, e := range s.entries {
		if !e.nextFire.IsZero() && !e.nextFire.After(now) {
			due = append(due, e)
			e.nextFire = e.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fire(ctx, e)
	}
}

// fire enforces at-most-one concurrent execution per dataset: a second fire
// while one is active is skipped and logged, never queued (spec §4.9/§8.2,
// scenario S6).
func (s *Scheduler) fire(ctx context.Context, e *entry) {
	if !e.runMu.TryLock() {
		if s.deps.Log != nil {
			s.deps.Log.WithField("dataset_id", e.spec.ID).Warn("scheduler: fire skipped, execution already in progress")
		}
		return
	}

	execCtx, cancel := context.WithCancel(ctx)
	s.activeMu.Lock()
	s.active[e.spec.ID] = cancel
	s.activeMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer e.runMu.Unlock()
		defer func() {
			s.activeMu.Lock()
			delete(s.active, e.spec.ID)
			s.activeMu.Unlock()
			cancel()
		}()
		defer func() {
			if r := recover(); r != nil && s.deps.Log != nil {
				s.deps.Log.WithField("dataset_id", e.spec.ID).WithField("panic", r).Error("scheduler: job execution panicked")
			}
		}()
		s.runJobFn(execCtx, e.spec)
	}()
}

func (s *Scheduler) shutdown() {
	s.activeMu.Lock()
	for _, cancel := range s.active {
		cancel()
	}
	s.activeMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	grace := s.deps.StopGracePeriod
	if grace <= 0 {
		grace = 30 * time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
		if s.deps.Log != nil {
			s.deps.Log.Warn("scheduler: grace period elapsed, some executions may not have finished")
		}
	}
}

// Stop signals cancellation to every active execution and waits up to the
// configured grace period before returning.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.shutdown()
}
