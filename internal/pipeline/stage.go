// Package pipeline implements the C8 Pipeline Engine: a linear five-stage
// chain Extract → Transform → Pack → GenerateControl → Publish over a
// shared JobExecution, with abort-on-Critical-error semantics.
package pipeline

import (
	"context"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

// StageResult is returned by a Stage's Execute.
type StageResult struct {
	Success        bool
	Message        string
	ShouldContinue bool
	Metrics        map[string]any
}

// Stage is one link in the pipeline chain.
type Stage interface {
	Name() string
	Execute(ctx context.Context, exec *execution.JobExecution) StageResult
}
