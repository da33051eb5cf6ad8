// Package upload implements the C7 Upload Providers: pluggable destinations
// for the packed artifact and its control record.
package upload

import (
	"context"
	"fmt"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// Result is returned by a successful Provider.Upload.
type Result struct {
	Success      bool
	Path         string
	BytesWritten int
}

// Provider is the C7 contract. One instance is shared for both uploads of
// a single execution (artifact, then control record) per spec §3.2
// invariant 6.
type Provider interface {
	Upload(ctx context.Context, destinationPath, fileName string, data []byte) (Result, error)
}

// Factory returns a Provider for tag ∈ {fs, blob}.
type Factory struct {
	FSBasePath     string
	BlobAccountURL string
	BlobContainer  string
}

// Create builds a Provider for tag.
func (f *Factory) Create(tag string) (Provider, error) {
	switch tag {
	case "fs":
		return &fsProvider{basePath: f.FSBasePath}, nil
	case "blob":
		return newBlobProvider(f.BlobAccountURL, f.BlobContainer)
	default:
		return nil, fmt.Errorf("upload: unknown provider %q: %w", tag, ingesterr.ErrConfig)
	}
}
