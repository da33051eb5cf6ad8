package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/datalake-ingestion/internal/dataset"
)

func writeDatasetFile(t *testing.T, dir, id string, enabled bool, cron string) {
	t.Helper()
	spec := map[string]any{
		"id":      id,
		"enabled": enabled,
		"cron":    cron,
		"source": map[string]any{
			"kind":           "relA",
			"connectionKey":  "main",
			"extractionKind": "procedure",
			"procedure":      "dbo.sp_Test",
		},
		"output": map[string]any{
			"fileNamePattern": "out_{date:yyyyMMdd}.parquet",
		},
		"destination": map[string]any{
			"provider":        "fs",
			"destinationPath": "out",
		},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataset-"+id+".json"), data, 0644))
}

func TestScheduler_DisabledDatasetNeverRegistersATrigger(t *testing.T) {
	dir := t.TempDir()
	writeDatasetFile(t, dir, "ds-disabled", false, "0/1 * * * * ?")

	s := New(Dependencies{DatasetsDir: dir})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.mu.Lock()
	_, exists := s.entries["ds-disabled"]
	s.mu.Unlock()
	assert.False(t, exists)
}

func TestScheduler_ConcurrentFireOfSameDatasetIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDatasetFile(t, dir, "ds1", true, "0/1 * * * * ?")

	s := New(Dependencies{DatasetsDir: dir})

	var running int32
	var invocations int32
	block := make(chan struct{})
	s.runJobFn = func(ctx context.Context, spec *dataset.DatasetSpec) {
		atomic.AddInt32(&invocations, 1)
		atomic.AddInt32(&running, 1)
		<-block
		atomic.AddInt32(&running, -1)
	}

	specs, err := dataset.Load(dir, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	s.register(specs[0])

	s.mu.Lock()
	e := s.entries["ds1"]
	s.mu.Unlock()
	require.NotNil(t, e)

	s.fire(context.Background(), e)
	time.Sleep(50 * time.Millisecond)
	s.fire(context.Background(), e) // second fire while first still blocked

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invocations))
	assert.Equal(t, int32(1), atomic.LoadInt32(&running))

	close(block)
}

func TestReload_UnchangedSpecDoesNotReplaceInFlightEntry(t *testing.T) {
	dir := t.TempDir()
	writeDatasetFile(t, dir, "ds1", true, "0/1 * * * * ?")

	s := New(Dependencies{DatasetsDir: dir})
	specs, err := dataset.Load(dir, nil)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	s.register(specs[0])

	s.mu.Lock()
	before := s.entries["ds1"]
	s.mu.Unlock()
	require.NotNil(t, before)

	// Simulate an in-flight execution holding the dataset's concurrency lock.
	require.True(t, before.runMu.TryLock())
	defer before.runMu.Unlock()

	// A reload poll over an unchanged spec file must not swap in a fresh,
	// unlocked entry — that would let a concurrent fire() slip past TryLock.
	s.reload()

	s.mu.Lock()
	after := s.entries["ds1"]
	s.mu.Unlock()
	require.NotNil(t, after)
	assert.Same(t, before, after)
}

func TestReload_ChangedSpecReplacesEntry(t *testing.T) {
	dir := t.TempDir()
	writeDatasetFile(t, dir, "ds1", true, "0/1 * * * * ?")

	s := New(Dependencies{DatasetsDir: dir})
	specs, err := dataset.Load(dir, nil)
	require.NoError(t, err)
	s.register(specs[0])

	s.mu.Lock()
	before := s.entries["ds1"]
	s.mu.Unlock()
	require.NotNil(t, before)

	writeDatasetFile(t, dir, "ds1", true, "0/5 * * * * ?")
	s.reload()

	s.mu.Lock()
	after := s.entries["ds1"]
	s.mu.Unlock()
	require.NotNil(t, after)
	assert.NotSame(t, before, after)
}

func TestReload_DisablingDatasetUnregistersIt(t *testing.T) {
	dir := t.TempDir()
	writeDatasetFile(t, dir, "ds1", true, "0/1 * * * * ?")

	s := New(Dependencies{DatasetsDir: dir})
	specs, err := dataset.Load(dir, nil)
	require.NoError(t, err)
	s.register(specs[0])

	s.mu.Lock()
	_, exists := s.entries["ds1"]
	s.mu.Unlock()
	require.True(t, exists)

	writeDatasetFile(t, dir, "ds1", false, "0/1 * * * * ?")
	s.reload()

	s.mu.Lock()
	_, exists = s.entries["ds1"]
	s.mu.Unlock()
	assert.False(t, exists)
}

func TestRenderFileName(t *testing.T) {
	now := timeFixed()
	assert.Equal(t, "tr_20240115.parquet", renderFileName("tr_{date:yyyyMMdd}.parquet", now))
	assert.Equal(t, "tr_20240115_000000.parquet", renderFileName("tr_{date}_{time:HHmmss}.parquet", now))
}

func timeFixed() (t time.Time) {
	return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
}
