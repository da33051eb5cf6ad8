// Package ledger implements the optional execution-history sink (§2.5 of
// SPEC_FULL.md): a supplement restoring the original source's ingestion-
// history bookkeeping that the distilled spec dropped. It is ambient
// observability — no pipeline correctness invariant depends on it.
package ledger

import (
	"context"
	"time"
)

// Entry is one terminal JobExecution's history row.
type Entry struct {
	DatasetID    string
	ExecutionID  string
	Outcome      string
	StartTime    time.Time
	EndTime      time.Time
	ErrorCount   int
	PublishedURI string
}

// Sink records terminal executions for later querying.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
	Close() error
}

// NoOp is used when Ledger.DSN is unconfigured.
type NoOp struct{}

func (NoOp) Record(ctx context.Context, entry Entry) error { return nil }
func (NoOp) Close() error                                  { return nil }
