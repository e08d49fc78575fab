package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync/atomic"
	"testing"

	"go-face-palette/pkg/models"
)

// solidImage creates an image filled with one color
func solidImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeBase64PNG(t *testing.T, img image.Image) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(encodePNG(t, img))
}

// circleLandmarks spreads a full face mesh over a circle inside the image so
// that every built-in region polygon covers some pixels
func circleLandmarks() models.LandmarkSet {
	set := make(models.LandmarkSet, MeshLandmarkCount)
	for i := range set {
		angle := 2 * math.Pi * float64(i*37%MeshLandmarkCount) / MeshLandmarkCount
		set[i] = models.Landmark{
			X: 0.5 + 0.4*math.Cos(angle),
			Y: 0.5 + 0.4*math.Sin(angle),
		}
	}
	return set
}

// fakeDetector returns canned landmarks per call, in call order
type fakeDetector struct {
	responses []detectResponse
	calls     atomic.Int32
}

type detectResponse struct {
	landmarks models.LandmarkSet
	err       error
}

func newFakeDetector(responses ...detectResponse) *fakeDetector {
	return &fakeDetector{responses: responses}
}

func (d *fakeDetector) Detect(ctx context.Context, buf *PixelBuffer) (models.LandmarkSet, error) {
	n := int(d.calls.Add(1)) - 1
	if len(d.responses) == 0 {
		return nil, ErrNoFace
	}
	r := d.responses[min(n, len(d.responses)-1)]
	return r.landmarks, r.err
}

func (d *fakeDetector) Close() error { return nil }

func face() detectResponse   { return detectResponse{landmarks: circleLandmarks()} }
func noFace() detectResponse { return detectResponse{err: ErrNoFace} }

func uniformPixels(n int, c [3]uint8) RegionPixelSet {
	set := make(RegionPixelSet, n)
	for i := range set {
		set[i] = c
	}
	return set
}
