package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/logging"
	"github.com/r3e-network/datalake-ingestion/internal/upload"
)

// PublishStage delivers the packed artifact then the control record through
// one shared Provider instance (spec §4.8 step 5 / §3.2 invariant 6). A
// failure here is Error severity, not Critical: the execution still ends
// Failed, but does not poison the engine's abort-on-critical rule.
type PublishStage struct {
	Provider        upload.Provider
	DestinationPath string
	FileName        string
	KeepLocalCopy   bool
	LocalCopyPath   string
	Log             *logging.Logger
}

func (s *PublishStage) Name() string { return "Publish" }

func (s *PublishStage) Execute(ctx context.Context, exec *execution.JobExecution) StageResult {
	exec.SetState(execution.StatePublishing)
	start := time.Now()

	artifactResult, err := s.Provider.Upload(ctx, s.DestinationPath, s.FileName, exec.PackedBytes)
	if err != nil {
		exec.AddError(s.Name(), fmt.Sprintf("artifact upload failed: %v", err), err, execution.SeverityError)
		return StageResult{ShouldContinue: false}
	}

	if _, err := s.Provider.Upload(ctx, s.DestinationPath, exec.ControlFileName, exec.ControlBytes); err != nil {
		exec.AddError(s.Name(), fmt.Sprintf("control upload failed: %v", err), err, execution.SeverityError)
		return StageResult{ShouldContinue: false}
	}

	exec.PublishedURI = artifactResult.Path

	if s.KeepLocalCopy && s.LocalCopyPath != "" {
		if err := s.writeLocalCopy(exec); err != nil && s.Log != nil {
			s.Log.WithField("error", err).Error("publish: keepLocalCopy write failed")
		}
	}

	return StageResult{
		Success:        true,
		ShouldContinue: true,
		Metrics: map[string]any{
			"bytes_written": artifactResult.BytesWritten,
			"elapsed_ms":    time.Since(start).Milliseconds(),
		},
	}
}

// writeLocalCopy mirrors both published bytes under LocalCopyPath. Errors
// are logged at ERROR by the caller but never fail the execution (spec §4.7).
func (s *PublishStage) writeLocalCopy(exec *execution.JobExecution) error {
	if err := os.MkdirAll(s.LocalCopyPath, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.LocalCopyPath, s.FileName), exec.PackedBytes, 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.LocalCopyPath, exec.ControlFileName), exec.ControlBytes, 0644)
}
