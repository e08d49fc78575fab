package analyzer

import (
	"go-face-palette/internal/strategy"
	"go-face-palette/pkg/models"
)

const noFacesMessage = "No faces detected in any of the provided images"

// Aggregator merges per-image results of one batch into a palette
type Aggregator struct {
	consensus strategy.ConsensusStrategy
	fallbacks models.Palette
}

// NewAggregator creates an aggregator using the given consensus strategy
func NewAggregator(consensus strategy.ConsensusStrategy, fallbacks models.Palette) *Aggregator {
	return &Aggregator{consensus: consensus, fallbacks: fallbacks}
}

// Aggregate keeps the results with a detected face and picks one color per
// feature from them in list order. A feature with no values anywhere gets
// its fallback color.
func (a *Aggregator) Aggregate(results []models.SingleImageResult, totalImages int) models.AnalysisOutcome {
	detected := make([]models.SingleImageResult, 0, len(results))
	for _, r := range results {
		if r.FaceDetected {
			detected = append(detected, r)
		}
	}

	if len(detected) == 0 {
		return models.AnalysisOutcome{
			Success:        false,
			ImagesAnalyzed: 0,
			TotalImages:    totalImages,
			Error:          noFacesMessage,
		}
	}

	var palette models.Palette
	for _, f := range models.Features {
		candidates := make([]string, 0, len(detected))
		for _, r := range detected {
			if c := r.Color(f); c != "" {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			palette.Set(f, a.fallbacks.Get(f))
			continue
		}
		palette.Set(f, a.consensus.Select(candidates))
	}

	return models.AnalysisOutcome{
		Success:        true,
		Palette:        &palette,
		ImagesAnalyzed: len(detected),
		TotalImages:    totalImages,
	}
}
