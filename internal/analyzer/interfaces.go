package analyzer

import (
	"context"
	"errors"

	"go-face-palette/pkg/models"
)

var (
	// ErrNoFace is returned by a LandmarkDetector when the image holds no face
	ErrNoFace = errors.New("no face detected")

	// ErrEmptyBatch is returned when the pipeline is called without images
	ErrEmptyBatch = errors.New("at least one image is required")

	// ErrTooManyImages is returned when a batch exceeds the configured size
	ErrTooManyImages = errors.New("too many images in batch")

	// ErrDegenerateInput is returned by a Clusterer that cannot fit its input
	ErrDegenerateInput = errors.New("degenerate clustering input")
)

// LandmarkDetector locates a single face and returns its landmark set.
// Implementations must be safe for concurrent use or be wrapped in a pool.
type LandmarkDetector interface {
	Detect(ctx context.Context, buf *PixelBuffer) (models.LandmarkSet, error)
	Close() error
}

// Clusterer groups 3-channel points into k clusters
type Clusterer interface {
	Fit(points [][3]float64, k int) (centroids [][3]float64, labels []int, err error)
}

// RegionMaskBuilder maps a region definition onto the pixels of one image
type RegionMaskBuilder interface {
	Build(buf *PixelBuffer, landmarks models.LandmarkSet, region RegionDefinition) RegionPixelSet
}

// ColorExtractor reduces a region's pixels to one representative color
type ColorExtractor interface {
	Extract(pixels RegionPixelSet) models.Color
}

// ImageAnalyzer extracts the four region colors from one decoded image
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, buf *PixelBuffer) models.SingleImageResult
}

// ImageDecoder turns encoded payloads into pixel buffers
type ImageDecoder interface {
	Decode(payload string) (*PixelBuffer, error)
	DecodeBytes(data []byte) (*PixelBuffer, error)
}
