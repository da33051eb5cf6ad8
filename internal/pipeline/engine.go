package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/logging"
	"github.com/r3e-network/datalake-ingestion/internal/metrics"
)

// Engine runs the linear stage chain for one JobExecution.
type Engine struct {
	stages  []Stage
	log     *logging.Logger
	metrics *metrics.Registry
}

// NewEngine builds an Engine over the five stages in order.
func NewEngine(log *logging.Logger, stages ...Stage) *Engine {
	return &Engine{stages: stages, log: log}
}

// WithMetrics attaches a metrics.Registry the Engine reports the
// ExecutionsTotal/ExecutionDuration/RowsExtracted/ActiveExecutions
// collectors to while running. Optional: a nil-metrics Engine behaves
// exactly as before, just without exporting anything on /metrics.
func (e *Engine) WithMetrics(reg *metrics.Registry) *Engine {
	e.metrics = reg
	return e
}

// Run executes every stage in order, aborting before any stage if a prior
// stage recorded a Critical error, and wrapping each stage's Execute in a
// panic boundary (spec §4.8).
func (e *Engine) Run(ctx context.Context, exec *execution.JobExecution) {
	start := time.Now()

	if e.metrics != nil {
		e.metrics.ActiveExecutions.Inc()
		defer e.metrics.ActiveExecutions.Dec()
	}

	for _, stage := range e.stages {
		// A Critical error recorded by a prior stage skips every remaining
		// stage outright and ends the execution Aborted (spec.md:192). A
		// Critical error raised by the stage that just ran is a different
		// outcome — that stage failed, which is classified Failed below,
		// not Aborted (spec.md:322, scenario S4).
		if exec.HasCritical() {
			exec.SetState(execution.StateAborted)
			break
		}

		result := e.runStageSafely(ctx, exec, stage)

		if e.log != nil {
			e.log.WithFields(map[string]any{
				"execution_id": exec.ExecutionID,
				"dataset_id":   exec.DatasetID,
				"stage":        stage.Name(),
				"success":      result.Success,
				"metrics":      result.Metrics,
			}).Info("pipeline: stage completed")
		}

		if e.metrics != nil && stage.Name() == "Extraction" {
			if rows, ok := result.Metrics["row_count"].(int); ok {
				e.metrics.RowsExtracted.WithLabelValues(exec.DatasetID).Add(float64(rows))
			}
		}

		if !result.ShouldContinue {
			break
		}
	}

	exec.EndTime = time.Now().UTC()
	if exec.State != execution.StateAborted {
		if exec.ErrorCount() > 0 {
			exec.SetState(execution.StateFailed)
		} else {
			exec.SetState(execution.StateSucceeded)
		}
	}

	outcome := "succeeded"
	switch exec.State {
	case execution.StateFailed:
		outcome = "failed"
	case execution.StateAborted:
		outcome = "aborted"
	}
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.ExecutionsTotal.WithLabelValues(exec.DatasetID, outcome).Inc()
		e.metrics.ExecutionDuration.WithLabelValues(exec.DatasetID).Observe(elapsed.Seconds())
	}

	if e.log != nil {
		entry := e.log.WithFields(map[string]any{
			"dataset_id":    exec.DatasetID,
			"execution_id":  exec.ExecutionID,
			"outcome":       outcome,
			"duration_s":    elapsed.Seconds(),
			"error_count":   exec.ErrorCount(),
			"published_uri": exec.PublishedURI,
		})
		if exec.State == execution.StateSucceeded {
			entry.Info("pipeline: execution completed")
		} else {
			entry.Error("pipeline: execution completed")
		}
	}
}

func (e *Engine) runStageSafely(ctx context.Context, exec *execution.JobExecution, stage Stage) (result StageResult) {
	defer func() {
		if r := recover(); r != nil {
			exec.AddError(stage.Name(), fmt.Sprintf("panic: %v", r), nil, execution.SeverityCritical)
			result = StageResult{Success: false, ShouldContinue: false}
		}
	}()
	return stage.Execute(ctx, exec)
}
