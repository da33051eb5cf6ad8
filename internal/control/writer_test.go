package control

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/datalake-ingestion/internal/execution"
)

func TestWrite_HeaderAndRow(t *testing.T) {
	rec := execution.ControlRecord{
		RecordCount: 3,
		RefDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Checksum:    "abc123",
		Timestamp:   time.Date(2024, 1, 15, 0, 5, 0, 0, time.UTC),
		DatasetName: "tr1_20240115000000",
		Source:      "relA",
	}

	data, err := Write(rec)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(string(data)))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{"3", "2024-01-15T00:00:00Z", "abc123", "2024-01-15T00:05:00Z", "tr1_20240115000000", "relA"}, records[1])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "tr1_20240115000000.ctl", FileName("tr1_20240115000000"))
}

func TestCSVRoundTrip_FieldsWithSpecialChars(t *testing.T) {
	rec := execution.ControlRecord{
		RecordCount: 1,
		DatasetName: `quoted,"name"` + "\n" + "line2",
		Source:      "relB",
	}
	data, err := Write(rec)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(string(data)))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, rec.DatasetName, records[1][4])
}
