package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/dataset"
	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/transform"
)

// TransformStage applies the dataset's registered transformation steps to
// the extracted table (spec §4.8 step 2). An empty extraction is a no-op.
type TransformStage struct {
	Engine *transform.Engine
	Specs  []dataset.TransformationSpec
}

func (s *TransformStage) Name() string { return "Transformation" }

func (s *TransformStage) Execute(ctx context.Context, exec *execution.JobExecution) StageResult {
	exec.SetState(execution.StateTransforming)
	start := time.Now()

	if exec.ExtractedTable == nil || len(exec.ExtractedTable.Rows) == 0 {
		return StageResult{Success: true, ShouldContinue: true, Message: "empty extraction, transform skipped"}
	}

	out, err := s.Engine.Run(ctx, exec.ExtractedTable, s.Specs)
	if err != nil {
		exec.AddError(s.Name(), fmt.Sprintf("transform failed: %v", err), err, execution.SeverityCritical)
		return StageResult{ShouldContinue: false}
	}

	exec.ExtractedTable = out
	return StageResult{
		Success:        true,
		ShouldContinue: true,
		Metrics: map[string]any{
			"row_count":  len(out.Rows),
			"elapsed_ms": time.Since(start).Milliseconds(),
		},
	}
}
