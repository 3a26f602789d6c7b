// Package storage keeps uploaded plant images in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/floracare/pkg/lifecycle"
)

// System stores and streams image blobs in a single container.
type System interface {
	// Start ensures the container exists once the lifecycle begins.
	Start(lc *lifecycle.Coordinator) error
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	// Download streams the blob at key. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// clientOptions bounds retries on the request path.
var clientOptions = &azblob.ClientOptions{
	ClientOptions: azcore.ClientOptions{
		Retry: policy.RetryOptions{
			MaxRetries:    3,
			RetryDelay:    200 * time.Millisecond,
			MaxRetryDelay: 2 * time.Second,
		},
	},
}

type container struct {
	client *azblob.Client
	name   string
	logger *slog.Logger
}

// New builds a blob client from cfg without contacting the service.
// ConnectionString wins; otherwise ServiceURL is used with the default
// Azure credential chain.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	var (
		client *azblob.Client
		err    error
	)

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, clientOptions)
	case cfg.ServiceURL != "":
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("default azure credential: %w", credErr)
		}
		client, err = azblob.NewClient(cfg.ServiceURL, cred, clientOptions)
	default:
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &container{
		client: client,
		name:   cfg.ContainerName,
		logger: logger.With("system", "storage"),
	}, nil
}

// Key joins segments beneath prefix into a blob key. Segments holding
// ".." are rejected.
func Key(prefix string, segments ...string) (string, error) {
	parts := append([]string{prefix}, segments...)
	for _, p := range parts {
		if strings.Contains(p, "..") {
			return "", ErrInvalidKey
		}
	}

	key := strings.TrimPrefix(path.Join(parts...), "/")
	return key, checkKey(key)
}

func (c *container) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("storage", func(ctx context.Context) error {
		_, err := c.client.CreateContainer(ctx, c.name, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("create container %s: %w", c.name, err)
		}
		c.logger.Info("storage container ready", "container", c.name)
		return nil
	})
	return nil
}

func (c *container) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	_, err := c.client.UploadStream(ctx, c.name, key, r, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	c.logger.DebugContext(ctx, "blob uploaded", "key", key, "content_type", contentType)
	return nil
}

func (c *container) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	resp, err := c.client.DownloadStream(ctx, c.name, key, nil)
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return resp.Body, nil
}

func checkKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case strings.Contains(key, ".."):
		return ErrInvalidKey
	}
	return nil
}
