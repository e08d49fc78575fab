package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-face-palette/internal/analyzer"
	apperrors "go-face-palette/internal/errors"
	"go-face-palette/internal/logger"
	"go-face-palette/internal/repository"
	"go-face-palette/internal/storage"
	"go-face-palette/pkg/models"
	"go-face-palette/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// Algorithm names the extraction method recorded with every analysis
	Algorithm = "MediaPipe + K-means clustering"

	statsSampleSize = 100
	statsTopColors  = 5
	historyLimit    = 10
)

// ClientInfo identifies the caller of an analysis request
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// FaceAnalysisService defines the palette analysis use cases
type FaceAnalysisService interface {
	AnalyzeFace(ctx context.Context, req *models.FaceAnalysisRequest, client ClientInfo) (*models.FaceAnalysisResponse, error)
	Stats(ctx context.Context) (*models.AnalysisStats, error)
	History(ctx context.Context, sessionID string) (*models.AnalysisHistory, error)
}

// PaletteAnalyzer runs one batch of resolved images. *analyzer.Pipeline
// satisfies it.
type PaletteAnalyzer interface {
	AnalyzeInputs(ctx context.Context, inputs []analyzer.ImageInput) (models.AnalysisOutcome, error)
}

// Config carries the service tunables
type Config struct {
	AnalysisTimeout time.Duration
}

type faceAnalysisService struct {
	validator *validation.RequestValidator
	source    storage.ImageSource
	pipeline  PaletteAnalyzer
	pool      *analyzer.WorkerPool
	repo      repository.AnalysisRepository
	cfg       Config
}

// NewFaceAnalysisService creates the service. pool may be nil, in which case
// batches run on the calling goroutine.
func NewFaceAnalysisService(
	validator *validation.RequestValidator,
	source storage.ImageSource,
	pipeline PaletteAnalyzer,
	pool *analyzer.WorkerPool,
	repo repository.AnalysisRepository,
	cfg Config,
) FaceAnalysisService {
	if validator == nil {
		validator = validation.NewRequestValidator(nil)
	}
	return &faceAnalysisService{
		validator: validator,
		source:    source,
		pipeline:  pipeline,
		pool:      pool,
		repo:      repo,
		cfg:       cfg,
	}
}

// AnalyzeFace validates the request, runs the pipeline and stores the record.
// A batch without any face is a normal response with Success false.
func (s *faceAnalysisService) AnalyzeFace(ctx context.Context, req *models.FaceAnalysisRequest, client ClientInfo) (*models.FaceAnalysisResponse, error) {
	start := time.Now()
	if err := s.validator.ValidateFaceAnalysisRequest(req); err != nil {
		return nil, err
	}

	if s.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
		defer cancel()
	}

	log := logger.WithFields(logrus.Fields{
		"session_id": req.SessionID,
		"images":     len(req.Images),
	})
	log.Info("Starting face analysis")

	inputs := s.source.Resolve(ctx, req.Images)
	outcome, err := s.run(ctx, inputs)
	if err != nil {
		log.WithError(err).Error("Face analysis aborted")
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			return nil, apperrors.NewProcessingError("Face analysis failed", err)
		}
		return nil, err
	}

	metadata := models.AnalysisMetadata{
		TotalImages:      len(req.Images),
		ImagesAnalyzed:   outcome.ImagesAnalyzed,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Algorithm:        Algorithm,
		ConfidenceScore:  analyzer.ConfidenceScore(outcome.ImagesAnalyzed, len(req.Images)),
	}
	resp := &models.FaceAnalysisResponse{
		Success:    outcome.Success,
		AnalysisID: uuid.NewString(),
		Colors:     outcome.Palette,
		Metadata:   &metadata,
		Error:      outcome.Error,
		Timestamp:  time.Now().UTC(),
	}

	s.persist(ctx, resp, req.SessionID, client)

	if outcome.Success {
		log.WithField("processing_time_ms", metadata.ProcessingTimeMs).Info("Face analysis completed")
	} else {
		log.WithField("error", outcome.Error).Warn("Face analysis found no face")
	}
	return resp, nil
}

// run executes the batch on the worker pool and waits for it under ctx
func (s *faceAnalysisService) run(ctx context.Context, inputs []analyzer.ImageInput) (models.AnalysisOutcome, error) {
	if s.pool == nil {
		outcome, err := s.pipeline.AnalyzeInputs(ctx, inputs)
		if ctx.Err() != nil {
			return models.AnalysisOutcome{}, apperrors.NewTimeoutError("Analysis timed out", ctx.Err())
		}
		return outcome, err
	}

	type result struct {
		outcome models.AnalysisOutcome
		err     error
	}
	done := make(chan result, 1)

	err := s.pool.SubmitContext(ctx, func() {
		outcome, err := s.pipeline.AnalyzeInputs(ctx, inputs)
		done <- result{outcome, err}
	})
	if err != nil {
		if ctx.Err() != nil {
			return models.AnalysisOutcome{}, apperrors.NewTimeoutError("Analysis timed out waiting for a worker", err)
		}
		return models.AnalysisOutcome{}, apperrors.NewInternalError("Analysis could not be scheduled", err)
	}

	select {
	case r := <-done:
		if ctx.Err() != nil {
			return models.AnalysisOutcome{}, apperrors.NewTimeoutError("Analysis timed out", ctx.Err())
		}
		return r.outcome, r.err
	case <-ctx.Done():
		return models.AnalysisOutcome{}, apperrors.NewTimeoutError("Analysis timed out", ctx.Err())
	}
}

// persist stores the analysis; storage problems never fail the request
func (s *faceAnalysisService) persist(ctx context.Context, resp *models.FaceAnalysisResponse, sessionID string, client ClientInfo) {
	if s.repo == nil {
		return
	}

	record := &models.AnalysisRecord{
		ID:        resp.AnalysisID,
		SessionID: sessionID,
		Colors:    resp.Colors,
		Metadata:  *resp.Metadata,
		CreatedAt: resp.Timestamp,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	// the analysis deadline may already be spent
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.Save(saveCtx, record); err != nil {
		logger.WithFields(logrus.Fields{
			"analysis_id": record.ID,
			"error":       err.Error(),
		}).Error("Error storing analysis record")
		return
	}
	logger.WithField("analysis_id", record.ID).Debug("Analysis record stored")
}

func (s *faceAnalysisService) Stats(ctx context.Context) (*models.AnalysisStats, error) {
	total, successful, err := s.repo.CountAnalyses(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to get analysis statistics", err)
	}
	palettes, err := s.repo.RecentPalettes(ctx, statsSampleSize)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to get analysis statistics", err)
	}

	skin := make([]string, 0, len(palettes))
	eyes := make([]string, 0, len(palettes))
	for _, p := range palettes {
		skin = append(skin, p.SkinTone)
		eyes = append(eyes, p.EyeColor)
	}

	stats := &models.AnalysisStats{
		TotalAnalyses:       total,
		SuccessfulAnalyses:  successful,
		FailedAnalyses:      total - successful,
		MostCommonSkinTones: mostCommon(skin, statsTopColors),
		MostCommonEyeColors: mostCommon(eyes, statsTopColors),
	}
	if total > 0 {
		stats.SuccessRate = float64(successful) / float64(total) * 100
	}
	return stats, nil
}

func (s *faceAnalysisService) History(ctx context.Context, sessionID string) (*models.AnalysisHistory, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required", nil)
	}
	records, err := s.repo.History(ctx, sessionID, historyLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to get analysis history", err)
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}
	return &models.AnalysisHistory{
		SessionID: sessionID,
		Analyses:  records,
		Count:     len(records),
	}, nil
}

// mostCommon returns up to n distinct non-empty values by descending count;
// equal counts keep first-seen order
func mostCommon(values []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		return []string{}
	}
	return order
}
