package models

import "time"

// Landmark is a normalized facial landmark coordinate in [0,1]x[0,1]
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkSet is the ordered landmark list produced by a detector for one face,
// indexed by canonical face-mesh vertex number
type LandmarkSet []Landmark

// SingleImageResult is the per-image outcome of region color extraction
type SingleImageResult struct {
	FaceDetected bool   `json:"face_detected"`
	SkinColor    string `json:"skin_color,omitempty"`
	EyeColor     string `json:"eye_color,omitempty"`
	LipColor     string `json:"lip_color,omitempty"`
	HairColor    string `json:"hair_color,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Color returns the extracted color for a feature, or "" when absent
func (r SingleImageResult) Color(f Feature) string {
	switch f {
	case FeatureSkin:
		return r.SkinColor
	case FeatureEye:
		return r.EyeColor
	case FeatureLip:
		return r.LipColor
	case FeatureHair:
		return r.HairColor
	}
	return ""
}

// AnalysisOutcome is the terminal result of the pipeline for one batch
type AnalysisOutcome struct {
	Success        bool     `json:"success"`
	Palette        *Palette `json:"palette,omitempty"`
	ImagesAnalyzed int      `json:"images_analyzed"`
	TotalImages    int      `json:"total_images"`
	Error          string   `json:"error,omitempty"`
}

// AnalysisMetadata describes how a palette was produced
type AnalysisMetadata struct {
	TotalImages      int     `json:"total_images"`
	ImagesAnalyzed   int     `json:"images_analyzed"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	Algorithm        string  `json:"algorithm"`
	ConfidenceScore  float64 `json:"confidence_score"`
}

// AnalysisRecord is the persisted form of one analysis request.
// Colors is nil for analyses that found no face.
type AnalysisRecord struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id,omitempty"`
	Colors    *Palette         `json:"colors,omitempty"`
	Metadata  AnalysisMetadata `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
	IPAddress string           `json:"ip_address,omitempty"`
	UserAgent string           `json:"user_agent,omitempty"`
}

// AnalysisStats summarizes stored analyses
type AnalysisStats struct {
	TotalAnalyses       int      `json:"total_analyses"`
	SuccessfulAnalyses  int      `json:"successful_analyses"`
	FailedAnalyses      int      `json:"failed_analyses"`
	SuccessRate         float64  `json:"success_rate"`
	MostCommonSkinTones []string `json:"most_common_skin_tones"`
	MostCommonEyeColors []string `json:"most_common_eye_colors"`
}

// AnalysisHistory lists recent analyses of one capture session
type AnalysisHistory struct {
	SessionID string           `json:"session_id"`
	Analyses  []AnalysisRecord `json:"analyses"`
	Count     int              `json:"count"`
}
