package analyzer

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"

	"go-face-palette/pkg/models"
)

// stubMasks returns a fixed pixel set per region name
type stubMasks struct {
	regions map[RegionName]RegionPixelSet
	panics  bool
}

func (m stubMasks) Build(buf *PixelBuffer, landmarks models.LandmarkSet, region RegionDefinition) RegionPixelSet {
	if m.panics {
		panic("index out of range")
	}
	return m.regions[region.Name]
}

func faceRegions() map[RegionName]RegionPixelSet {
	return map[RegionName]RegionPixelSet{
		RegionSkin:     uniformPixels(50, [3]uint8{200, 150, 100}),
		RegionLeftEye:  uniformPixels(8, [3]uint8{50, 60, 70}),
		RegionRightEye: uniformPixels(8, [3]uint8{50, 60, 70}),
		RegionLip:      uniformPixels(30, [3]uint8{180, 80, 90}),
		RegionHair:     uniformPixels(40, [3]uint8{60, 40, 20}),
	}
}

func TestAnalyzeImage(t *testing.T) {
	buf := NewPixelBuffer(solidImage(10, 10, color.RGBA{A: 255}))

	oneEye := faceRegions()
	delete(oneEye, RegionRightEye)

	tests := []struct {
		name      string
		detector  LandmarkDetector
		masks     RegionMaskBuilder
		want      models.SingleImageResult
		wantError string
	}{
		{
			name:     "all regions",
			detector: newFakeDetector(face()),
			masks:    stubMasks{regions: faceRegions()},
			want: models.SingleImageResult{
				FaceDetected: true,
				SkinColor:    "#c89664",
				EyeColor:     "#323c46",
				LipColor:     "#b4505a",
				HairColor:    "#3c2814",
			},
		},
		{
			name:     "one eye missing empties the eye pool",
			detector: newFakeDetector(face()),
			masks:    stubMasks{regions: oneEye},
			want: models.SingleImageResult{
				FaceDetected: true,
				SkinColor:    "#c89664",
				EyeColor:     "#000000",
				LipColor:     "#b4505a",
				HairColor:    "#3c2814",
			},
		},
		{
			name:      "no face",
			detector:  newFakeDetector(noFace()),
			masks:     stubMasks{regions: faceRegions()},
			wantError: "No face detected in image",
		},
		{
			name:      "empty landmark set",
			detector:  newFakeDetector(detectResponse{}),
			masks:     stubMasks{regions: faceRegions()},
			wantError: "No face detected in image",
		},
		{
			name:      "detector failure",
			detector:  newFakeDetector(detectResponse{err: errors.New("sidecar unavailable")}),
			masks:     stubMasks{regions: faceRegions()},
			wantError: "Analysis failed: sidecar unavailable",
		},
		{
			name:      "region building panics",
			detector:  newFakeDetector(face()),
			masks:     stubMasks{panics: true},
			wantError: "Analysis failed: index out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewFaceAnalyzer(tt.detector, tt.masks, newTestExtractor())
			got := a.AnalyzeImage(context.Background(), buf)

			if tt.wantError != "" {
				if got.FaceDetected {
					t.Fatalf("Expected face_detected=false, got %+v", got)
				}
				if !strings.HasPrefix(got.Error, tt.wantError) {
					t.Errorf("Expected error %q, got %q", tt.wantError, got.Error)
				}
				if got.SkinColor != "" || got.EyeColor != "" {
					t.Errorf("Expected no colors on failure, got %+v", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("AnalyzeImage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeImage_NoFaceShortCircuits(t *testing.T) {
	masks := &countingMasks{}
	a := NewFaceAnalyzer(newFakeDetector(noFace()), masks, newTestExtractor())
	a.AnalyzeImage(context.Background(), NewPixelBuffer(solidImage(4, 4, color.RGBA{A: 255})))

	if masks.calls != 0 {
		t.Errorf("Expected no region building without a face, got %d calls", masks.calls)
	}
}

type countingMasks struct {
	calls int
}

func (m *countingMasks) Build(buf *PixelBuffer, landmarks models.LandmarkSet, region RegionDefinition) RegionPixelSet {
	m.calls++
	return nil
}
