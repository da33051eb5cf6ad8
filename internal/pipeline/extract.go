package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/datasource"
	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

// ExtractStage reads SourceType/ConnectionString/Query/Parameters from the
// execution's metadata bag and runs the matching C3 driver (spec §4.8 step 1).
type ExtractStage struct {
	Factory *datasource.Factory
}

func (s *ExtractStage) Name() string { return "Extraction" }

func (s *ExtractStage) Execute(ctx context.Context, exec *execution.JobExecution) StageResult {
	exec.SetState(execution.StateExtracting)
	start := time.Now()

	sourceType, _ := exec.Metadata["SourceType"].(string)
	connectionString, _ := exec.Metadata["ConnectionString"].(string)
	query, _ := exec.Metadata["Query"].(string)
	parameters, _ := exec.Metadata["Parameters"].(map[string]any)
	timeoutSec, _ := exec.Metadata["CommandTimeoutSec"].(int)

	driver, err := s.Factory.Create(sourceType)
	if err != nil {
		exec.AddError(s.Name(), "unknown source kind", err, execution.SeverityCritical)
		return StageResult{ShouldContinue: false}
	}

	table, err := driver.Extract(ctx, connectionString, query, parameters, timeoutSec)
	if err != nil {
		exec.AddError(s.Name(), fmt.Sprintf("extraction failed for %q", query), err, execution.SeverityCritical)
		return StageResult{ShouldContinue: false}
	}

	exec.ExtractedTable = table
	return StageResult{
		Success:        true,
		ShouldContinue: true,
		Metrics: map[string]any{
			"row_count":  len(table.Rows),
			"elapsed_ms": time.Since(start).Milliseconds(),
		},
	}
}
