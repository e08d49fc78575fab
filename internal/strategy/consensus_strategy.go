package strategy

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ConsensusStrategy picks one color out of the per-image candidates for a feature.
// Candidates arrive in capture order and are never empty.
type ConsensusStrategy interface {
	Select(candidates []string) string
	GetStrategyName() string
}

const (
	FirstMatch   = "first"
	NearestColor = "nearest"
)

// FirstMatchStrategy returns the first candidate in capture order. It does not
// count frequencies: extracted colors practically never repeat byte-for-byte
// across photos, so the first image wins.
type FirstMatchStrategy struct{}

// NewFirstMatchStrategy creates the default consensus strategy
func NewFirstMatchStrategy() ConsensusStrategy {
	return &FirstMatchStrategy{}
}

func (s *FirstMatchStrategy) Select(candidates []string) string {
	return candidates[0]
}

func (s *FirstMatchStrategy) GetStrategyName() string {
	return FirstMatch
}

// NearestColorStrategy returns the medoid candidate: the one whose summed
// CIE Lab distance to all other candidates is smallest. Ties go to the
// earliest candidate. Unparseable candidates are only eligible when no
// candidate parses.
type NearestColorStrategy struct{}

// NewNearestColorStrategy creates the perceptual-distance consensus strategy
func NewNearestColorStrategy() ConsensusStrategy {
	return &NearestColorStrategy{}
}

func (s *NearestColorStrategy) Select(candidates []string) string {
	colors := make([]colorful.Color, 0, len(candidates))
	valid := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parsed, err := colorful.Hex(c)
		if err != nil {
			continue
		}
		colors = append(colors, parsed)
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return candidates[0]
	}

	best := 0
	bestSum := -1.0
	for i, ci := range colors {
		var sum float64
		for j, cj := range colors {
			if i != j {
				sum += ci.DistanceLab(cj)
			}
		}
		if bestSum < 0 || sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return valid[best]
}

func (s *NearestColorStrategy) GetStrategyName() string {
	return NearestColor
}

// New returns the strategy registered under name
func New(name string) (ConsensusStrategy, error) {
	switch name {
	case "", FirstMatch:
		return NewFirstMatchStrategy(), nil
	case NearestColor:
		return NewNearestColorStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown consensus strategy: %s", name)
	}
}
