package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpecFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestLoad_ValidSpecParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	writeSpecFile(t, dir, "dataset-trades.json", `{
		"id": "trades",
		"enabled": true,
		"cron": "0 */5 * * * ?",
		"source": {
			"kind": "RELA",
			"connectionKey": "main",
			"extractionKind": "Procedure",
			"procedure": "dbo.sp_GetDailyTrades",
			"parameters": {"StartDate": "2024-01-01", "MaxRows": 1000, "Ratio": 1.5, "Active": true, "Tag": null}
		},
		"transformations": [
			{"type": "dataCleansing", "enabled": true, "order": 1}
		],
		"output": {"fileNamePattern": "trades_{date:yyyyMMdd}.parquet"},
		"destination": {"provider": "FS", "destinationPath": "/data/out"}
	}`)

	specs, err := Load(dir, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	spec := specs[0]
	assert.Equal(t, "trades", spec.ID)
	assert.Equal(t, "relA", spec.Source.Kind)
	assert.Equal(t, "procedure", spec.Source.ExtractionKind)
	assert.Equal(t, "fs", spec.Destination.Provider)
	assert.Equal(t, 300, spec.Source.CommandTimeoutSec)
	assert.Equal(t, "snappy", spec.Output.Compression)

	assert.Equal(t, int64(1000), spec.Source.Parameters["MaxRows"])
	assert.Equal(t, 1.5, spec.Source.Parameters["Ratio"])
	assert.Equal(t, true, spec.Source.Parameters["Active"])
	assert.Nil(t, spec.Source.Parameters["Tag"])
	assert.Equal(t, "2024-01-01", spec.Source.Parameters["StartDate"])
}

func TestLoad_InvalidSpecIsSkippedOtherSpecsStillLoad(t *testing.T) {
	dir := t.TempDir()
	writeSpecFile(t, dir, "dataset-bad.json", `{"id": "bad", "cron": "0 * * * * ?", "source": {"kind": "unknown"}}`)
	writeSpecFile(t, dir, "dataset-good.json", `{
		"id": "good",
		"cron": "0 * * * * ?",
		"source": {"kind": "relB", "connectionKey": "main", "extractionKind": "package", "package": "pkg.get_data"},
		"output": {"fileNamePattern": "good.parquet"},
		"destination": {"provider": "blob", "destinationPath": "container/path"}
	}`)

	specs, err := Load(dir, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "good", specs[0].ID)
}

func TestLoad_MissingRequiredFieldIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeSpecFile(t, dir, "dataset-noid.json", `{
		"cron": "0 * * * * ?",
		"source": {"kind": "relA", "connectionKey": "main", "extractionKind": "procedure", "procedure": "dbo.sp_X"},
		"output": {"fileNamePattern": "x.parquet"},
		"destination": {"provider": "fs", "destinationPath": "/out"}
	}`)

	specs, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Len(t, specs, 0)
}

func TestLoad_TransformationMissingTypeIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeSpecFile(t, dir, "dataset-badtransform.json", `{
		"id": "badtransform",
		"cron": "0 * * * * ?",
		"source": {"kind": "relA", "connectionKey": "main", "extractionKind": "procedure", "procedure": "dbo.sp_X"},
		"transformations": [{"enabled": true, "order": 1}],
		"output": {"fileNamePattern": "x.parquet"},
		"destination": {"provider": "fs", "destinationPath": "/out"}
	}`)

	specs, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Len(t, specs, 0)
}

func TestLoad_NoMatchingFilesReturnsEmptySlice(t *testing.T) {
	dir := t.TempDir()
	specs, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Len(t, specs, 0)
}
