package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-face-palette/internal/analyzer"
	"go-face-palette/internal/config"
	"go-face-palette/internal/factory"
	"go-face-palette/internal/logger"
	"go-face-palette/internal/observer"
	"go-face-palette/internal/repository"
	"go-face-palette/internal/service"
	"go-face-palette/internal/transport"
	"go-face-palette/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	detector            analyzer.LandmarkDetector
	pipeline            *analyzer.Pipeline
	workerPool          *analyzer.WorkerPool
	repository          repository.AnalysisRepository
	metrics             *observer.MetricsObserver
	faceAnalysisService service.FaceAnalysisService
	handler             http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewContainerWithFactory(ctx, cfg, factory.NewComponentFactory(cfg), factory.HTTPDetector)
}

// NewContainerWithFactory builds the dependency graph from the given factories
func NewContainerWithFactory(ctx context.Context, cfg *config.Config, f *factory.ComponentFactory, detectorType factory.DetectorType) (*Container, error) {
	detector, err := f.DetectorFactory.CreateDetector(detectorType)
	if err != nil {
		return nil, fmt.Errorf("failed to create landmark detector: %w", err)
	}

	storageType := factory.StorageTypeFor(cfg)
	repo, err := f.RepositoryFactory.CreateRepository(ctx, storageType)
	if err != nil {
		detector.Close()
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	source, err := f.SourceFactory.CreateSource()
	if err != nil {
		detector.Close()
		repo.Close()
		return nil, fmt.Errorf("failed to create image source: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(metrics)
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))

	opts := analyzer.DefaultOptions().
		WithClusters(cfg.Clusters).
		WithBrightnessThresholds(cfg.MinBrightness, cfg.MaxBrightness).
		WithConsensus(cfg.ConsensusStrategy).
		WithFallbacks(cfg.Fallbacks)

	pipeline, err := analyzer.NewPipeline(detector, opts)
	if err != nil {
		detector.Close()
		repo.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	pipeline.WithPublisher(publisher)

	workerPool := analyzer.NewWorkerPool(cfg.MaxConcurrentAnalyses)
	workerPool.Start()

	svc := service.NewFaceAnalysisService(
		validation.NewRequestValidator(validation.NewURLValidator()),
		source,
		pipeline,
		workerPool,
		repo,
		service.Config{AnalysisTimeout: cfg.AnalysisTimeout},
	)

	logger.WithFields(logrus.Fields{
		"detector":  detectorType,
		"storage":   storageType,
		"workers":   workerPool.Workers(),
		"consensus": cfg.ConsensusStrategy,
	}).Info("Dependencies initialized")

	return &Container{
		config:              cfg,
		detector:            detector,
		pipeline:            pipeline,
		workerPool:          workerPool,
		repository:          repo,
		metrics:             metrics,
		faceAnalysisService: svc,
		handler:             transport.NewHandler(svc, metrics, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the face analysis service
func (c *Container) Service() service.FaceAnalysisService {
	return c.faceAnalysisService
}

// Close releases workers, detectors and the database
func (c *Container) Close() error {
	c.workerPool.Close()
	return errors.Join(c.detector.Close(), c.repository.Close())
}
