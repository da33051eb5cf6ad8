// Package control implements the C6 Control Record Writer: an RFC-4180 CSV
// sidecar describing a packed artifact. encoding/csv from the standard
// library is used deliberately — no corpus example imports a third-party
// CSV writer anywhere, and RFC-4180 quoting is exactly what encoding/csv
// implements.
package control

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

var header = []string{"RecordCount", "RefDate", "Checksum", "Timestamp", "DatasetName", "Source"}

// Write renders rec as a single-row RFC-4180 CSV document with the literal
// header row mandated by spec §4.6.
func Write(rec execution.ControlRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("control: write header: %w: %v", ingesterr.ErrControl, err)
	}

	row := []string{
		fmt.Sprintf("%d", rec.RecordCount),
		rec.RefDate.UTC().Format("2006-01-02T15:04:05Z"),
		rec.Checksum,
		rec.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		rec.DatasetName,
		rec.Source,
	}
	if err := w.Write(row); err != nil {
		return nil, fmt.Errorf("control: write row: %w: %v", ingesterr.ErrControl, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("control: flush: %w: %v", ingesterr.ErrControl, err)
	}
	return buf.Bytes(), nil
}

// FileName returns "{datasetName}.ctl" (spec §3.2 invariant 4).
func FileName(datasetName string) string {
	return datasetName + ".ctl"
}
