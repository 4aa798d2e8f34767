// Package storage archives documents in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/augur/pkg/lifecycle"
)

// System stores and retrieves blobs in a single container.
type System interface {
	// Start registers a startup hook that creates the container if needed.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams reader to key with the given content type, replacing any existing blob.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download opens the blob at key. The caller closes Body.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (*Blob, error)
}

// Blob is an open blob stream and its properties.
type Blob struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates a storage system from cfg. The connection string is parsed
// here; no request is made until Start runs its hook.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage"),
	}, nil
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system", "container", a.container)

	lc.OnStartup(func() {
		_, err := a.client.CreateContainer(lc.Context(), a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("storage container initialization failed", "error", err)
			lc.Fail("storage", err)
			return
		}

		a.logger.Info("storage container ready", "container", a.container)
	})

	return nil
}

func (a *azure) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	if _, err := a.client.UploadStream(ctx, a.container, key, reader, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	a.logger.Info("blob uploaded", "key", key)
	return nil
}

func (a *azure) Download(ctx context.Context, key string) (*Blob, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}

	b := &Blob{Body: resp.Body, ContentType: "application/octet-stream"}
	if resp.ContentType != nil && *resp.ContentType != "" {
		b.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		b.ContentLength = *resp.ContentLength
	}
	return b, nil
}

// ValidateKey rejects empty keys and keys with parent directory segments.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
