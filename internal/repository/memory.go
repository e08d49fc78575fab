package repository

import (
	"context"
	"sort"
	"sync"

	"go-face-palette/pkg/models"
)

// MemoryRepository keeps records in process memory. It is used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []models.AnalysisRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(ctx context.Context, record *models.AnalysisRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	stored := *record
	if record.Colors != nil {
		colors := *record.Colors
		stored.Colors = &colors
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, stored)
	return nil
}

func (r *MemoryRepository) CountAnalyses(ctx context.Context) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	successful := 0
	for _, rec := range r.records {
		if rec.Colors != nil {
			successful++
		}
	}
	return len(r.records), successful, nil
}

func (r *MemoryRepository) RecentPalettes(ctx context.Context, limit int) ([]models.Palette, error) {
	var palettes []models.Palette
	for _, rec := range r.newestFirst() {
		if len(palettes) >= limit {
			break
		}
		if rec.Colors != nil {
			palettes = append(palettes, *rec.Colors)
		}
	}
	return palettes, nil
}

func (r *MemoryRepository) History(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error) {
	var history []models.AnalysisRecord
	for _, rec := range r.newestFirst() {
		if len(history) >= limit {
			break
		}
		if rec.SessionID == sessionID {
			history = append(history, rec)
		}
	}
	return history, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

// newestFirst returns a snapshot ordered by CreatedAt descending; records
// with equal timestamps keep reverse insertion order
func (r *MemoryRepository) newestFirst() []models.AnalysisRecord {
	r.mu.RLock()
	snapshot := make([]models.AnalysisRecord, len(r.records))
	for i, rec := range r.records {
		snapshot[len(r.records)-1-i] = rec
	}
	r.mu.RUnlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})
	return snapshot
}
