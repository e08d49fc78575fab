package models

import "time"

// ImageData is one captured image of a face analysis request.
// Exactly one of Data (base64, optionally a data URI) or URL must be set.
type ImageData struct {
	Step      int    `json:"step" binding:"min=0,max=2"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
	Timestamp string `json:"timestamp" binding:"required"`
}

// FaceAnalysisRequest carries the 1-3 step-tagged images of a capture session
type FaceAnalysisRequest struct {
	Images    []ImageData `json:"images" binding:"required,min=1,max=3,dive"`
	SessionID string      `json:"session_id,omitempty"`
}

// FaceAnalysisResponse is returned for every analysis request, successful or not
type FaceAnalysisResponse struct {
	Success    bool              `json:"success"`
	AnalysisID string            `json:"analysis_id"`
	Colors     *Palette          `json:"colors,omitempty"`
	Metadata   *AnalysisMetadata `json:"metadata,omitempty"`
	Error      string            `json:"error,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
