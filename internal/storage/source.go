package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go-face-palette/internal/analyzer"
	apperrors "go-face-palette/internal/errors"
	"go-face-palette/internal/logger"
	"go-face-palette/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrBlobStorageDisabled is returned for blob URLs when no account is configured
var ErrBlobStorageDisabled = errors.New("blob storage is not configured")

// ImageSource turns request images into pipeline inputs
type ImageSource interface {
	Resolve(ctx context.Context, images []models.ImageData) []analyzer.ImageInput
}

// Resolver picks the inline payload, the HTTP fetcher or blob storage per image
type Resolver struct {
	fetcher ImageFetcher
	blobs   BlobStorage
}

// NewResolver creates a resolver; blobs may be nil
func NewResolver(fetcher ImageFetcher, blobs BlobStorage) *Resolver {
	return &Resolver{fetcher: fetcher, blobs: blobs}
}

// Resolve keeps input order. A source failure is carried in ImageInput.Err
// so only that image is affected.
func (r *Resolver) Resolve(ctx context.Context, images []models.ImageData) []analyzer.ImageInput {
	inputs := make([]analyzer.ImageInput, len(images))
	for i, img := range images {
		inputs[i] = r.resolveOne(ctx, img)
		if inputs[i].Err != nil {
			logger.WithFields(logrus.Fields{
				"step":  img.Step,
				"error": inputs[i].Err.Error(),
			}).Warn("Image source could not be resolved")
		}
	}
	return inputs
}

func (r *Resolver) resolveOne(ctx context.Context, img models.ImageData) analyzer.ImageInput {
	if img.Data != "" {
		return analyzer.ImageInput{Payload: img.Data}
	}
	if img.URL == "" {
		return analyzer.ImageInput{Err: errors.New("image has neither data nor url")}
	}

	u, err := url.Parse(img.URL)
	if err != nil {
		return analyzer.ImageInput{Err: fmt.Errorf("invalid image url: %w", err)}
	}

	var data []byte
	switch {
	case u.Scheme == BlobScheme || (IsAzureBlobHost(u.Host) && r.blobs != nil):
		if r.blobs == nil {
			return analyzer.ImageInput{Err: ErrBlobStorageDisabled}
		}
		if data, err = r.blobs.GetBlob(ctx, img.URL); err != nil {
			return analyzer.ImageInput{Err: asNetworkError("Failed to download blob", err)}
		}
	case strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https"):
		if data, err = r.fetcher.FetchImage(ctx, img.URL); err != nil {
			return analyzer.ImageInput{Err: asNetworkError("Failed to fetch image", err)}
		}
	default:
		return analyzer.ImageInput{Err: fmt.Errorf("unsupported url scheme %q", u.Scheme)}
	}
	return analyzer.ImageInput{Data: data}
}

// asNetworkError keeps an AppError already classified by the backend
func asNetworkError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewNetworkError(message, err)
}
