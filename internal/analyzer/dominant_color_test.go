package analyzer

import (
	"errors"
	"math/rand"
	"regexp"
	"testing"

	"go-face-palette/pkg/models"
)

var hexPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

type failingClusterer struct {
	err   error
	panic bool
}

func (c failingClusterer) Fit(points [][3]float64, k int) ([][3]float64, []int, error) {
	if c.panic {
		panic("singular matrix")
	}
	return nil, nil, c.err
}

func newTestExtractor() ColorExtractor {
	opts := DefaultOptions()
	return NewDominantColorExtractor(NewKMeans(opts), opts)
}

func TestExtract_Policies(t *testing.T) {
	var mixed RegionPixelSet
	mixed = append(mixed, uniformPixels(70, [3]uint8{200, 0, 0})...)
	mixed = append(mixed, uniformPixels(30, [3]uint8{0, 200, 0})...)

	var highlights RegionPixelSet
	highlights = append(highlights, uniformPixels(50, [3]uint8{255, 255, 255})...)
	highlights = append(highlights, uniformPixels(20, [3]uint8{100, 100, 100})...)

	var shadows RegionPixelSet
	shadows = append(shadows, uniformPixels(50, [3]uint8{5, 5, 5})...)
	shadows = append(shadows, uniformPixels(15, [3]uint8{90, 60, 30})...)

	tests := []struct {
		name   string
		pixels RegionPixelSet
		want   string
	}{
		{"empty set", nil, "#000000"},
		{"uniform color", uniformPixels(100, [3]uint8{200, 150, 100}), "#c89664"},
		{"single pixel", uniformPixels(1, [3]uint8{1, 2, 3}), "#010203"},
		{"largest cluster wins", mixed, "#c80000"},
		{"highlights filtered", highlights, "#646464"},
		{"shadows filtered", shadows, "#5a3c1e"},
		{"all dark keeps unfiltered set", uniformPixels(30, [3]uint8{10, 10, 10}), "#0a0a0a"},
		{"too few survivors keeps unfiltered set", append(uniformPixels(5, [3]uint8{100, 100, 100}), uniformPixels(40, [3]uint8{0, 0, 0})...), "#000000"},
		{"boundary sums are filtered", append(uniformPixels(12, [3]uint8{60, 60, 60}), uniformPixels(40, [3]uint8{20, 20, 10})...), "#3c3c3c"},
	}

	extractor := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractor.Extract(tt.pixels).Hex(); got != tt.want {
				t.Errorf("Extract() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtract_AlwaysHex(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	extractor := newTestExtractor()

	for n := 1; n <= 40; n += 3 {
		pixels := make(RegionPixelSet, n)
		for i := range pixels {
			pixels[i] = [3]uint8{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
		}
		if got := extractor.Extract(pixels).Hex(); !hexPattern.MatchString(got) {
			t.Errorf("Extract() with %d pixels = %q, not a hex color", n, got)
		}
	}
}

func TestExtract_ClusteringFailureFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		clusterer Clusterer
	}{
		{"error", failingClusterer{err: errors.New("no convergence")}},
		{"panic", failingClusterer{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewDominantColorExtractor(tt.clusterer, DefaultOptions())
			if got := extractor.Extract(uniformPixels(20, [3]uint8{100, 100, 100})); got != models.Black {
				t.Errorf("Expected black fallback, got %s", got.Hex())
			}
		})
	}
}

func TestTruncChannel(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0, 0},
		{127.99, 127},
		{254.999, 254},
		{300, 255},
	}
	for _, tt := range tests {
		if got := truncChannel(tt.in); got != tt.want {
			t.Errorf("truncChannel(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
