package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	apperrors "go-face-palette/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobScheme addresses a blob as azblob://<container>/<blob path>
const BlobScheme = "azblob"

const blobHostSuffix = ".blob.core.windows.net"

type BlobStorage interface {
	GetBlob(ctx context.Context, blobURL string) ([]byte, error)
}

// blobDownloader is the subset of *azblob.Client used here
type blobDownloader interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

type azureStorage struct {
	client   blobDownloader
	maxBytes int64
}

func NewAzureStorage(accountName string, accountKey string, maxBytes int64) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, blobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return newAzureStorage(client, maxBytes), nil
}

func newAzureStorage(client blobDownloader, maxBytes int64) *azureStorage {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &azureStorage{client: client, maxBytes: maxBytes}
}

// GetBlob downloads a blob given as azblob://container/blob or as an
// https://<account>.blob.core.windows.net/container/blob URL
func (s *azureStorage) GetBlob(ctx context.Context, blobURL string) ([]byte, error) {
	containerName, blobName, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("Blob not found", err)
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}

	body := downloadResponse.Body
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("blob exceeds %d bytes", s.maxBytes)
	}
	return data, nil
}

func parseBlobURL(blobURL string) (string, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	var containerName, blobName string
	switch {
	case parsedURL.Scheme == BlobScheme:
		containerName = parsedURL.Host
		blobName = strings.TrimPrefix(parsedURL.Path, "/")
	case IsAzureBlobHost(parsedURL.Host):
		path := strings.TrimPrefix(parsedURL.Path, "/")
		containerName, blobName, _ = strings.Cut(path, "/")
	default:
		return "", "", fmt.Errorf("not a blob URL: %s", blobURL)
	}

	if containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("blob URL needs a container and a blob name: %s", blobURL)
	}
	return containerName, blobName, nil
}

// IsAzureBlobHost reports whether host is an Azure Blob Storage endpoint
func IsAzureBlobHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), blobHostSuffix)
}
