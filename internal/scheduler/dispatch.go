package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/dataset"
	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ledger"
	"github.com/r3e-network/datalake-ingestion/internal/pipeline"
	"github.com/r3e-network/datalake-ingestion/internal/transform"
)

// runJob builds a fresh JobExecution for spec and runs its pipeline to
// completion (spec §4.9 "On trigger fire").
func (s *Scheduler) runJob(ctx context.Context, spec *dataset.DatasetSpec) {
	now := time.Now().UTC()
	exec := execution.New(ctx, spec.ID, now)

	if err := s.buildMetadata(exec, spec, now); err != nil {
		exec.AddError("Dispatch", "failed to build job metadata", err, execution.SeverityCritical)
		exec.SetState(execution.StateAborted)
		exec.EndTime = time.Now().UTC()
		s.recordToLedger(exec)
		return
	}

	provider, err := s.deps.UploadFactory.Create(spec.Destination.Provider)
	if err != nil {
		exec.AddError("Dispatch", "failed to build upload provider", err, execution.SeverityCritical)
		exec.SetState(execution.StateAborted)
		exec.EndTime = time.Now().UTC()
		s.recordToLedger(exec)
		return
	}

	engine := pipeline.NewEngine(s.deps.Log,
		&pipeline.ExtractStage{Factory: s.deps.DataSourceFactory},
		&pipeline.TransformStage{
			Engine: transform.NewEngine(s.deps.Registry, s.deps.Log, s.deps.Environment),
			Specs:  spec.Transformations,
		},
		&pipeline.PackStage{Codec: spec.Output.Compression},
		&pipeline.GenerateControlStage{DatasetID: spec.ID, SourceKind: spec.Source.Kind},
		&pipeline.PublishStage{
			Provider:        provider,
			DestinationPath: spec.Destination.DestinationPath,
			FileName:        exec.Metadata["FileName"].(string),
			KeepLocalCopy:   spec.KeepLocalCopy,
			LocalCopyPath:   spec.LocalCopyPath,
			Log:             s.deps.Log,
		},
	).WithMetrics(s.deps.Metrics)

	engine.Run(ctx, exec)
	s.recordToLedger(exec)
}

func (s *Scheduler) recordToLedger(exec *execution.JobExecution) {
	if s.deps.Ledger == nil {
		return
	}
	if err := s.deps.Ledger.Record(context.Background(), ledger.Entry{
		DatasetID:    exec.DatasetID,
		ExecutionID:  exec.ExecutionID,
		Outcome:      string(exec.State),
		StartTime:    exec.StartTime,
		EndTime:      exec.EndTime,
		ErrorCount:   exec.ErrorCount(),
		PublishedURI: exec.PublishedURI,
	}); err != nil && s.deps.Log != nil {
		s.deps.Log.WithField("error", err).Error("scheduler: ledger record failed")
	}
}

// buildMetadata resolves the connection template, determines the query
// text for the configured extractionKind, coerces parameters, and renders
// the output file name, storing all of it in the execution's metadata bag
// for the Extract/Publish stages to read (spec §4.8/§4.9/§6.5).
func (s *Scheduler) buildMetadata(exec *execution.JobExecution, spec *dataset.DatasetSpec, now time.Time) error {
	template, ok := s.deps.ConnectionTemplates[spec.Source.ConnectionKey]
	if !ok {
		return fmt.Errorf("no connection template registered for key %q", spec.Source.ConnectionKey)
	}

	resolved, err := s.deps.Resolver.Resolve(exec.Context(), template)
	if err != nil {
		return err
	}

	query, err := queryText(spec)
	if err != nil {
		return err
	}

	exec.Metadata["SourceType"] = spec.Source.Kind
	exec.Metadata["ConnectionString"] = resolved
	exec.Metadata["Query"] = query
	exec.Metadata["Parameters"] = spec.Source.Parameters
	exec.Metadata["CommandTimeoutSec"] = spec.Source.CommandTimeoutSec
	exec.Metadata["FileName"] = renderFileName(spec.Output.FileNamePattern, now)
	return nil
}

func queryText(spec *dataset.DatasetSpec) (string, error) {
	switch spec.Source.ExtractionKind {
	case "procedure":
		return spec.Source.Procedure, nil
	case "package":
		return spec.Source.Package, nil
	case "query":
		data, err := os.ReadFile(spec.Source.SQLFile)
		if err != nil {
			return "", fmt.Errorf("read sqlFile %q: %w", spec.Source.SQLFile, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown extractionKind %q", spec.Source.ExtractionKind)
	}
}

// renderFileName substitutes {date:yyyyMMdd}, {time:HHmmss}, and the
// un-formatted {date}/{time} tokens (spec §6.5).
func renderFileName(pattern string, now time.Time) string {
	r := strings.NewReplacer(
		"{date:yyyyMMdd}", now.Format("20060102"),
		"{time:HHmmss}", now.Format("150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	)
	return r.Replace(pattern)
}
