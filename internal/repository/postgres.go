package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-face-palette/pkg/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS face_analyses (
	id                 TEXT PRIMARY KEY,
	session_id         TEXT,
	success            BOOLEAN NOT NULL,
	skin_tone          TEXT,
	eye_color          TEXT,
	lip_color          TEXT,
	hair_color         TEXT,
	total_images       INTEGER NOT NULL,
	images_analyzed    INTEGER NOT NULL,
	processing_time_ms BIGINT NOT NULL,
	algorithm          TEXT NOT NULL,
	confidence_score   DOUBLE PRECISION NOT NULL,
	ip_address         TEXT,
	user_agent         TEXT,
	created_at         TIMESTAMPTZ NOT NULL
)`

	createSessionIndexQuery = `CREATE INDEX IF NOT EXISTS face_analyses_session_idx ON face_analyses (session_id, created_at DESC)`

	insertAnalysisQuery = `INSERT INTO face_analyses
	(id, session_id, success, skin_tone, eye_color, lip_color, hair_color,
	total_images, images_analyzed, processing_time_ms, algorithm, confidence_score,
	ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	countAnalysesQuery = `SELECT
	COUNT(*) AS total,
	COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS successful
FROM face_analyses`

	recentPalettesQuery = `SELECT skin_tone, eye_color, lip_color, hair_color
FROM face_analyses
WHERE success
ORDER BY created_at DESC
LIMIT $1`

	historyQuery = `SELECT
	id, session_id, success, skin_tone, eye_color, lip_color, hair_color,
	total_images, images_analyzed, processing_time_ms, algorithm, confidence_score,
	ip_address, user_agent, created_at
FROM face_analyses
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2`
)

// PostgresRepository stores analysis records in PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// analysisRow mirrors one face_analyses row
type analysisRow struct {
	ID               string         `db:"id"`
	SessionID        sql.NullString `db:"session_id"`
	Success          bool           `db:"success"`
	SkinTone         sql.NullString `db:"skin_tone"`
	EyeColor         sql.NullString `db:"eye_color"`
	LipColor         sql.NullString `db:"lip_color"`
	HairColor        sql.NullString `db:"hair_color"`
	TotalImages      int            `db:"total_images"`
	ImagesAnalyzed   int            `db:"images_analyzed"`
	ProcessingTimeMs int64          `db:"processing_time_ms"`
	Algorithm        string         `db:"algorithm"`
	ConfidenceScore  float64        `db:"confidence_score"`
	IPAddress        sql.NullString `db:"ip_address"`
	UserAgent        sql.NullString `db:"user_agent"`
	CreatedAt        time.Time      `db:"created_at"`
}

type paletteRow struct {
	SkinTone  sql.NullString `db:"skin_tone"`
	EyeColor  sql.NullString `db:"eye_color"`
	LipColor  sql.NullString `db:"lip_color"`
	HairColor sql.NullString `db:"hair_color"`
}

// Connect opens a PostgreSQL connection pool
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// NewPostgresRepository wraps an open database
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the table and index when missing
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, q := range []string{createTableQuery, createSessionIndexQuery} {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, record *models.AnalysisRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	var palette models.Palette
	if record.Colors != nil {
		palette = *record.Colors
	}

	_, err := r.db.ExecContext(ctx, insertAnalysisQuery,
		record.ID,
		nullable(record.SessionID),
		record.Colors != nil,
		nullable(palette.SkinTone),
		nullable(palette.EyeColor),
		nullable(palette.LipColor),
		nullable(palette.HairColor),
		record.Metadata.TotalImages,
		record.Metadata.ImagesAnalyzed,
		record.Metadata.ProcessingTimeMs,
		record.Metadata.Algorithm,
		record.Metadata.ConfidenceScore,
		nullable(record.IPAddress),
		nullable(record.UserAgent),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return nil
}

func (r *PostgresRepository) CountAnalyses(ctx context.Context) (int, int, error) {
	var counts struct {
		Total      int `db:"total"`
		Successful int `db:"successful"`
	}
	if err := r.db.GetContext(ctx, &counts, countAnalysesQuery); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return counts.Total, counts.Successful, nil
}

func (r *PostgresRepository) RecentPalettes(ctx context.Context, limit int) ([]models.Palette, error) {
	var rows []paletteRow
	if err := r.db.SelectContext(ctx, &rows, recentPalettesQuery, limit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	palettes := make([]models.Palette, len(rows))
	for i, row := range rows {
		palettes[i] = models.Palette{
			SkinTone:  row.SkinTone.String,
			EyeColor:  row.EyeColor.String,
			LipColor:  row.LipColor.String,
			HairColor: row.HairColor.String,
		}
	}
	return palettes, nil
}

func (r *PostgresRepository) History(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error) {
	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, historyQuery, sessionID, limit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	records := make([]models.AnalysisRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (row analysisRow) toRecord() models.AnalysisRecord {
	record := models.AnalysisRecord{
		ID:        row.ID,
		SessionID: row.SessionID.String,
		Metadata: models.AnalysisMetadata{
			TotalImages:      row.TotalImages,
			ImagesAnalyzed:   row.ImagesAnalyzed,
			ProcessingTimeMs: row.ProcessingTimeMs,
			Algorithm:        row.Algorithm,
			ConfidenceScore:  row.ConfidenceScore,
		},
		CreatedAt: row.CreatedAt,
		IPAddress: row.IPAddress.String,
		UserAgent: row.UserAgent.String,
	}
	if row.Success {
		record.Colors = &models.Palette{
			SkinTone:  row.SkinTone.String,
			EyeColor:  row.EyeColor.String,
			LipColor:  row.LipColor.String,
			HairColor: row.HairColor.String,
		}
	}
	return record
}

// nullable stores empty strings as NULL
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
