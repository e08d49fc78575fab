package analyzer

import "go-face-palette/pkg/models"

// AnalysisOptions provides configuration for region color extraction and consensus
type AnalysisOptions struct {
	// Clustering
	Clusters      int
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64

	// Brightness filter on the per-pixel channel sum (0-765).
	// Pixels with sum <= MinBrightness or >= MaxBrightness are dropped.
	MinBrightness     int
	MaxBrightness     int
	MinFilteredPixels int

	// Consensus strategy name: "first" or "nearest"
	Consensus string

	// Per-feature colors used when no analyzed image produced a value
	Fallbacks models.Palette

	MaxImages int
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Clusters:          3,
		Seed:              42,
		Restarts:          10,
		MaxIterations:     300,
		Tolerance:         1e-4,
		MinBrightness:     50,
		MaxBrightness:     650,
		MinFilteredPixels: 10,
		Consensus:         "first",
		Fallbacks: models.Palette{
			SkinTone:  "#F5DEB3",
			EyeColor:  "#8B4513",
			LipColor:  "#FFB6C1",
			HairColor: "#4E2A04",
		},
		MaxImages: 3,
	}
}

// WithClusters sets the requested cluster count
func (opts AnalysisOptions) WithClusters(k int) AnalysisOptions {
	opts.Clusters = k
	return opts
}

// WithBrightnessThresholds sets the shadow/highlight filter window
func (opts AnalysisOptions) WithBrightnessThresholds(min, max int) AnalysisOptions {
	opts.MinBrightness = min
	opts.MaxBrightness = max
	return opts
}

// WithConsensus selects the consensus strategy by name
func (opts AnalysisOptions) WithConsensus(name string) AnalysisOptions {
	opts.Consensus = name
	return opts
}

// WithFallbacks replaces the per-feature fallback colors
func (opts AnalysisOptions) WithFallbacks(p models.Palette) AnalysisOptions {
	opts.Fallbacks = p
	return opts
}

// WithSeed sets the clustering seed
func (opts AnalysisOptions) WithSeed(seed int64) AnalysisOptions {
	opts.Seed = seed
	return opts
}

// normalized fills zero values with defaults
func (opts AnalysisOptions) normalized() AnalysisOptions {
	def := DefaultOptions()
	if opts.Clusters <= 0 {
		opts.Clusters = def.Clusters
	}
	if opts.Restarts <= 0 {
		opts.Restarts = def.Restarts
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.MinBrightness == 0 && opts.MaxBrightness == 0 {
		opts.MinBrightness, opts.MaxBrightness = def.MinBrightness, def.MaxBrightness
	}
	if opts.MinFilteredPixels <= 0 {
		opts.MinFilteredPixels = def.MinFilteredPixels
	}
	for _, f := range models.Features {
		if opts.Fallbacks.Get(f) == "" {
			opts.Fallbacks.Set(f, def.Fallbacks.Get(f))
		}
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = def.MaxImages
	}
	return opts
}
