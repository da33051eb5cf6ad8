package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/columnar"
	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

// PackStage serializes the extracted table via C5 into packedBytes (spec
// §4.8 step 3). A nil extractedTable is a Critical failure.
type PackStage struct {
	Codec string
}

func (s *PackStage) Name() string { return "Pack" }

func (s *PackStage) Execute(ctx context.Context, exec *execution.JobExecution) StageResult {
	exec.SetState(execution.StatePacking)
	start := time.Now()

	if exec.ExtractedTable == nil {
		exec.AddError(s.Name(), "no extracted table to pack", nil, execution.SeverityCritical)
		return StageResult{ShouldContinue: false}
	}

	var buf bytes.Buffer
	if err := columnar.Write(ctx, exec.ExtractedTable, s.Codec, &buf); err != nil {
		exec.AddError(s.Name(), fmt.Sprintf("pack failed: %v", err), err, execution.SeverityCritical)
		return StageResult{ShouldContinue: false}
	}

	exec.PackedBytes = buf.Bytes()
	return StageResult{
		Success:        true,
		ShouldContinue: true,
		Metrics: map[string]any{
			"bytes":      buf.Len(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		},
	}
}
