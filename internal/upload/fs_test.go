package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSProvider_Upload_WritesFileAtomically(t *testing.T) {
	dir := t.TempDir()
	p := &fsProvider{basePath: dir}

	result, err := p.Upload(context.Background(), "trades/2024", "trades_20240115.parquet", []byte("hello"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5, result.BytesWritten)

	data, err := os.ReadFile(filepath.Join(dir, "trades/2024", "trades_20240115.parquet"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "trades/2024"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover .tmp files after a successful upload")
}

func TestFSProvider_Upload_CancelledContextAborts(t *testing.T) {
	dir := t.TempDir()
	p := &fsProvider{basePath: dir}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Upload(ctx, "x", "y.parquet", []byte("data"))
	assert.Error(t, err)
}

func TestFSProvider_Upload_CreatesNestedDestination(t *testing.T) {
	dir := t.TempDir()
	p := &fsProvider{basePath: dir}

	_, err := p.Upload(context.Background(), "a/b/c", "file.csv", []byte("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "a/b/c", "file.csv"))
	assert.NoError(t, err)
}
