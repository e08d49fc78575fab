package landmark

import (
	"context"
	"encoding/json"
	"fmt"

	"go-face-palette/internal/analyzer"
	"go-face-palette/pkg/models"
)

// StaticDetector returns the same landmarks for every image. With no
// landmarks it reports no face.
type StaticDetector struct {
	Landmarks models.LandmarkSet
	Err       error
}

// Detect implements analyzer.LandmarkDetector
func (d *StaticDetector) Detect(ctx context.Context, buf *analyzer.PixelBuffer) (models.LandmarkSet, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.Landmarks) == 0 {
		return nil, analyzer.ErrNoFace
	}
	out := make(models.LandmarkSet, len(d.Landmarks))
	copy(out, d.Landmarks)
	return out, nil
}

// Close implements analyzer.LandmarkDetector
func (d *StaticDetector) Close() error {
	return nil
}

// ParseStaticDetector reads landmarks in the sidecar response format, so a
// saved /detect response can be replayed without the sidecar
func ParseStaticDetector(data []byte) (*StaticDetector, error) {
	var decoded detectResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("malformed landmark file: %w", err)
	}
	if len(decoded.Faces) == 0 {
		return &StaticDetector{}, nil
	}

	set, err := toLandmarkSet(decoded.Faces[0].Landmarks)
	if err != nil {
		return nil, fmt.Errorf("malformed landmark file: %w", err)
	}
	return &StaticDetector{Landmarks: set}, nil
}
