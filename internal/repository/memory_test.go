package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-face-palette/pkg/models"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	records := []models.AnalysisRecord{
		{ID: "1", SessionID: "s1", Colors: &models.Palette{SkinTone: "#010101"}, CreatedAt: base},
		{ID: "2", SessionID: "s2", CreatedAt: base.Add(time.Minute)},
		{ID: "3", SessionID: "s1", Colors: &models.Palette{SkinTone: "#030303"}, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "4", SessionID: "s1", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range records {
		if err := repo.Save(ctx, &records[i]); err != nil {
			t.Fatalf("Save(%s) error = %v", records[i].ID, err)
		}
	}

	// Stored copies are independent of the caller's palette
	records[0].Colors.SkinTone = "#ffffff"

	total, successful, err := repo.CountAnalyses(ctx)
	if err != nil || total != 4 || successful != 2 {
		t.Errorf("CountAnalyses() = (%d, %d, %v), want (4, 2, nil)", total, successful, err)
	}

	palettes, _ := repo.RecentPalettes(ctx, 10)
	if len(palettes) != 2 || palettes[0].SkinTone != "#030303" || palettes[1].SkinTone != "#010101" {
		t.Errorf("RecentPalettes() = %+v", palettes)
	}
	if limited, _ := repo.RecentPalettes(ctx, 1); len(limited) != 1 {
		t.Errorf("Expected limit 1 to return one palette, got %d", len(limited))
	}

	history, _ := repo.History(ctx, "s1", 2)
	if len(history) != 2 || history[0].ID != "4" || history[1].ID != "3" {
		t.Errorf("History() = %+v", history)
	}
	if none, _ := repo.History(ctx, "unknown", 10); len(none) != 0 {
		t.Errorf("Expected no history for unknown session, got %d", len(none))
	}

	if err := repo.Save(ctx, nil); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Expected ErrInvalidRecord, got %v", err)
	}
}
