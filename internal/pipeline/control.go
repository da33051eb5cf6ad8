package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/control"
	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

// GenerateControlStage computes the SHA-256 checksum of packedBytes and
// writes the CSV control record via C6 (spec §4.8 step 4).
type GenerateControlStage struct {
	DatasetID  string
	SourceKind string
	Now        func() time.Time
}

func (s *GenerateControlStage) Name() string { return "GenerateControl" }

func (s *GenerateControlStage) Execute(ctx context.Context, exec *execution.JobExecution) StageResult {
	exec.SetState(execution.StateGeneratingControl)
	start := time.Now()
	now := s.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	refTime := now()

	sum := sha256.Sum256(exec.PackedBytes)
	checksum := hex.EncodeToString(sum[:])

	datasetName := fmt.Sprintf("%s_%s", s.DatasetID, refTime.Format("20060102150405"))

	rowCount := 0
	if exec.ExtractedTable != nil {
		rowCount = len(exec.ExtractedTable.Rows)
	}

	rec := execution.ControlRecord{
		RecordCount: rowCount,
		RefDate:     refTime,
		Checksum:    checksum,
		Timestamp:   refTime,
		DatasetName: datasetName,
		Source:      s.SourceKind,
	}

	bytes, err := control.Write(rec)
	if err != nil {
		exec.AddError(s.Name(), fmt.Sprintf("control record generation failed: %v", err), err, execution.SeverityCritical)
		return StageResult{ShouldContinue: false}
	}

	exec.ControlBytes = bytes
	exec.ControlFileName = control.FileName(datasetName)
	exec.Metadata["ControlRecord"] = rec

	return StageResult{
		Success:        true,
		ShouldContinue: true,
		Metrics: map[string]any{
			"record_count": rowCount,
			"elapsed_ms":   time.Since(start).Milliseconds(),
		},
	}
}
