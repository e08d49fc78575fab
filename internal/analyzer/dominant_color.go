package analyzer

import (
	"fmt"
	"math"

	"go-face-palette/internal/logger"
	"go-face-palette/pkg/models"

	"github.com/sirupsen/logrus"
)

// dominantColorExtractor returns the centroid of the largest color cluster
type dominantColorExtractor struct {
	clusterer     Clusterer
	clusters      int
	minBrightness int
	maxBrightness int
	minPixels     int
}

// NewDominantColorExtractor creates a k-means based color extractor
func NewDominantColorExtractor(clusterer Clusterer, opts AnalysisOptions) ColorExtractor {
	opts = opts.normalized()
	return &dominantColorExtractor{
		clusterer:     clusterer,
		clusters:      opts.Clusters,
		minBrightness: opts.MinBrightness,
		maxBrightness: opts.MaxBrightness,
		minPixels:     opts.MinFilteredPixels,
	}
}

// Extract never fails: an empty region or a clustering failure yields black
func (e *dominantColorExtractor) Extract(pixels RegionPixelSet) (result models.Color) {
	if len(pixels) == 0 {
		return models.Black
	}

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic":  fmt.Sprint(r),
				"pixels": len(pixels),
			}).Warn("Dominant color extraction panicked")
			result = models.Black
		}
	}()

	points := e.filterBrightness(pixels)
	k := min(e.clusters, len(points))

	centroids, labels, err := e.clusterer.Fit(points, k)
	if err != nil {
		logger.WithError(err).WithField("pixels", len(points)).Warn("Clustering failed")
		return models.Black
	}

	counts := make([]int, len(centroids))
	for _, l := range labels {
		counts[l]++
	}
	largest := 0
	for i, c := range counts {
		if c > counts[largest] {
			largest = i
		}
	}

	c := centroids[largest]
	return models.Color{R: truncChannel(c[0]), G: truncChannel(c[1]), B: truncChannel(c[2])}
}

// filterBrightness drops shadows and highlights by channel sum. When fewer
// than minPixels survive, the unfiltered set is used instead.
func (e *dominantColorExtractor) filterBrightness(pixels RegionPixelSet) [][3]float64 {
	kept := make([][3]float64, 0, len(pixels))
	for _, p := range pixels {
		sum := int(p[0]) + int(p[1]) + int(p[2])
		if sum > e.minBrightness && sum < e.maxBrightness {
			kept = append(kept, toPoint(p))
		}
	}
	if len(kept) >= e.minPixels {
		return kept
	}

	all := make([][3]float64, len(pixels))
	for i, p := range pixels {
		all[i] = toPoint(p)
	}
	return all
}

func toPoint(p [3]uint8) [3]float64 {
	return [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
}

// truncChannel drops the fractional part and clamps to [0,255]
func truncChannel(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
