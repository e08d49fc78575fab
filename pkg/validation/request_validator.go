package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	apperrors "go-face-palette/internal/errors"
	"go-face-palette/pkg/models"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	MaxImagesPerRequest = 3
	MaxStep             = 2
	MaxSessionIDLength  = 128
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateHexColor accepts only the #rrggbb form, in either case
func ValidateHexColor(s string) error {
	if !hexColorPattern.MatchString(s) {
		return apperrors.NewValidationError(fmt.Sprintf("Invalid hex color %q", s), nil)
	}
	if _, err := colorful.Hex(s); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("Invalid hex color %q", s), err)
	}
	return nil
}

// RequestValidator checks face analysis requests before any image work starts
type RequestValidator struct {
	urls *URLValidator
}

func NewRequestValidator(urls *URLValidator) *RequestValidator {
	if urls == nil {
		urls = NewURLValidator()
	}
	return &RequestValidator{urls: urls}
}

// ValidateFaceAnalysisRequest returns the first problem found as a validation AppError
func (v *RequestValidator) ValidateFaceAnalysisRequest(req *models.FaceAnalysisRequest) error {
	if req == nil {
		return apperrors.NewValidationError("Request body is required", nil)
	}
	if len(req.Images) == 0 {
		return apperrors.NewValidationError("At least one image is required", nil)
	}
	if len(req.Images) > MaxImagesPerRequest {
		return apperrors.NewValidationError(
			fmt.Sprintf("At most %d images are allowed", MaxImagesPerRequest), nil)
	}
	if len(req.SessionID) > MaxSessionIDLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("session_id must be at most %d characters", MaxSessionIDLength), nil)
	}

	seen := make(map[int]bool, len(req.Images))
	for i, img := range req.Images {
		if img.Step < 0 || img.Step > MaxStep {
			return invalidImage(i, fmt.Sprintf("step must be between 0 and %d", MaxStep))
		}
		if seen[img.Step] {
			return invalidImage(i, fmt.Sprintf("duplicate step %d", img.Step))
		}
		seen[img.Step] = true

		if strings.TrimSpace(img.Timestamp) == "" {
			return invalidImage(i, "timestamp is required")
		}

		hasData := strings.TrimSpace(img.Data) != ""
		hasURL := strings.TrimSpace(img.URL) != ""
		switch {
		case hasData && hasURL:
			return invalidImage(i, "provide either data or url, not both")
		case !hasData && !hasURL:
			return invalidImage(i, "data or url is required")
		case hasURL:
			if err := v.urls.ValidateImageURL(img.URL); err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) {
					return appErr.WithDetails(fmt.Sprintf("images[%d]", i))
				}
				return err
			}
		}
	}
	return nil
}

// invalidImage reports a problem with one entry of the images list
func invalidImage(index int, problem string) error {
	return apperrors.NewValidationError("Invalid image entry", nil).
		WithDetails(fmt.Sprintf("images[%d]: %s", index, problem))
}
