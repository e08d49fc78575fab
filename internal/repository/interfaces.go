package repository

import (
	"context"

	"go-face-palette/pkg/models"
)

// AnalysisRepository defines the interface for analysis record operations
type AnalysisRepository interface {
	// Save stores one analysis record
	Save(ctx context.Context, record *models.AnalysisRecord) error

	// CountAnalyses returns the number of stored analyses and how many produced a palette
	CountAnalyses(ctx context.Context) (total int, successful int, err error)

	// RecentPalettes returns the palettes of the latest successful analyses, newest first
	RecentPalettes(ctx context.Context, limit int) ([]models.Palette, error)

	// History returns the latest analyses of a session, newest first
	History(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error)

	Close() error
}

func validateRecord(record *models.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidRecord
	}
	return nil
}
