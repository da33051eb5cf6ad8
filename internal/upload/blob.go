package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
)

// blobProvider delivers bytes to an Azure-Blob-shaped object store,
// creating the container if absent and overwriting existing blobs.
type blobProvider struct {
	client    *azblob.Client
	container string
}

func newBlobProvider(accountURL, containerName string) (Provider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("upload(blob): credential: %w: %v", ingesterr.ErrConfig, err)
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("upload(blob): client: %w: %v", ingesterr.ErrConfig, err)
	}
	return &blobProvider{client: client, container: containerName}, nil
}

func (p *blobProvider) Upload(ctx context.Context, destinationPath, fileName string, data []byte) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("upload(blob): %w", ingesterr.ErrCancelled)
	default:
	}

	if _, err := p.client.CreateContainer(ctx, p.container, nil); err != nil {
		if !isContainerAlreadyExists(err) {
			return Result{}, fmt.Errorf("upload(blob): ensure container %s: %w: %v", p.container, ingesterr.ErrUpload, err)
		}
	}

	blobPath := path.Join(strings.ReplaceAll(destinationPath, "\\", "/"), fileName)

	_, err := p.client.UploadBuffer(ctx, p.container, blobPath, data, &azblob.UploadBufferOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("upload(blob): put %s: %w: %v", blobPath, ingesterr.ErrUpload, err)
	}

	uri := fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.client.URL(), "/"), p.container, blobPath)
	return Result{Success: true, Path: uri, BytesWritten: len(data)}, nil
}

func isContainerAlreadyExists(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ErrorCode == string(container.ErrorCodeContainerAlreadyExists)
	}
	return false
}
