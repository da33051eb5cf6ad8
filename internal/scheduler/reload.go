package scheduler

import (
	"context"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/dataset"
)

// runReloadLoop polls the dataset directory every PollInterval and
// recomputes triggers on content change: additions added, removals
// unscheduled, modifications rescheduled. Active executions of a
// removed/modified dataset are allowed to finish (spec §4.9).
func (s *Scheduler) runReloadLoop(ctx context.Context) {
	interval := s.deps.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.reload()
		}
	}
}

func (s *Scheduler) reload() {
	specs, err := dataset.Load(s.deps.DatasetsDir, s.deps.Log)
	if err != nil {
		if s.deps.Log != nil {
			s.deps.Log.WithField("error", err).Warn("scheduler: hot reload failed to list dataset specs")
		}
		return
	}

	seen := map[string]struct{}{}
	for _, spec := range specs {
		seen[spec.ID] = struct{}{}
		s.register(spec)
	}

	s.mu.Lock()
	var stale []string
	for id := range s.entries {
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.unregister(id)
	}
}
