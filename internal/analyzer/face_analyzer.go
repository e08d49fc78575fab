package analyzer

import (
	"context"
	"errors"
	"fmt"

	"go-face-palette/internal/logger"
	"go-face-palette/pkg/models"
)

const noFaceMessage = "No face detected in image"

// faceAnalyzer implements ImageAnalyzer on top of a landmark detector
type faceAnalyzer struct {
	detector  LandmarkDetector
	masks     RegionMaskBuilder
	extractor ColorExtractor

	skin     RegionDefinition
	leftEye  RegionDefinition
	rightEye RegionDefinition
	lip      RegionDefinition
	hair     RegionDefinition
}

// NewFaceAnalyzer creates a single-image analyzer
func NewFaceAnalyzer(detector LandmarkDetector, masks RegionMaskBuilder, extractor ColorExtractor) ImageAnalyzer {
	return &faceAnalyzer{
		detector:  detector,
		masks:     masks,
		extractor: extractor,
		skin:      mustRegion(RegionSkin),
		leftEye:   mustRegion(RegionLeftEye),
		rightEye:  mustRegion(RegionRightEye),
		lip:       mustRegion(RegionLip),
		hair:      mustRegion(RegionHair),
	}
}

// AnalyzeImage detects the face once and extracts skin, eye, lip and hair
// colors. It never panics: failures become face_detected=false results.
func (a *faceAnalyzer) AnalyzeImage(ctx context.Context, buf *PixelBuffer) (result models.SingleImageResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", fmt.Sprint(r)).Error("Single image analysis panicked")
			result = models.SingleImageResult{
				FaceDetected: false,
				Error:        fmt.Sprintf("Analysis failed: %v", r),
			}
		}
	}()

	landmarks, err := a.detector.Detect(ctx, buf)
	if errors.Is(err, ErrNoFace) || (err == nil && len(landmarks) == 0) {
		return models.SingleImageResult{FaceDetected: false, Error: noFaceMessage}
	}
	if err != nil {
		logger.WithError(err).Warn("Landmark detection failed")
		return models.SingleImageResult{
			FaceDetected: false,
			Error:        fmt.Sprintf("Analysis failed: %v", err),
		}
	}

	skin := a.masks.Build(buf, landmarks, a.skin)
	lip := a.masks.Build(buf, landmarks, a.lip)
	hair := a.masks.Build(buf, landmarks, a.hair)

	return models.SingleImageResult{
		FaceDetected: true,
		SkinColor:    a.extractor.Extract(skin).Hex(),
		EyeColor:     a.extractor.Extract(a.eyePixels(buf, landmarks)).Hex(),
		LipColor:     a.extractor.Extract(lip).Hex(),
		HairColor:    a.extractor.Extract(hair).Hex(),
	}
}

// eyePixels pools both eyes into one set. If either eye region is empty the
// pool is empty, so a half-visible pair falls back to black rather than
// reporting one eye as the eye color.
func (a *faceAnalyzer) eyePixels(buf *PixelBuffer, landmarks models.LandmarkSet) RegionPixelSet {
	left := a.masks.Build(buf, landmarks, a.leftEye)
	right := a.masks.Build(buf, landmarks, a.rightEye)
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	pool := make(RegionPixelSet, 0, len(left)+len(right))
	pool = append(pool, left...)
	return append(pool, right...)
}
