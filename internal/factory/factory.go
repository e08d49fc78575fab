package factory

import (
	"context"
	"fmt"

	"go-face-palette/internal/analyzer"
	"go-face-palette/internal/config"
	"go-face-palette/internal/landmark"
	"go-face-palette/internal/logger"
	"go-face-palette/internal/repository"
	"go-face-palette/internal/storage"

	"github.com/sirupsen/logrus"
)

// DetectorType represents different landmark detector backends
type DetectorType string

const (
	// HTTPDetector for the face-mesh sidecar
	HTTPDetector DetectorType = "http"
	// StaticDetector for replaying a saved landmark file
	StaticDetector DetectorType = "static"
)

// StorageType represents different persistence backends
type StorageType string

const (
	// PostgresStorage for the face_analyses table
	PostgresStorage StorageType = "postgres"
	// MemoryStorage for process-local records
	MemoryStorage StorageType = "memory"
)

// DetectorFactory creates landmark detectors
type DetectorFactory interface {
	CreateDetector(detectorType DetectorType) (analyzer.LandmarkDetector, error)
}

// RepositoryFactory creates analysis repositories
type RepositoryFactory interface {
	CreateRepository(ctx context.Context, storageType StorageType) (repository.AnalysisRepository, error)
}

// SourceFactory creates the image source used to resolve request images
type SourceFactory interface {
	CreateSource() (storage.ImageSource, error)
}

// detectorFactory implements DetectorFactory
type detectorFactory struct {
	cfg *config.Config
	// landmarks is the sidecar JSON replayed by the static detector
	landmarks []byte
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config, landmarks []byte) DetectorFactory {
	return &detectorFactory{cfg: cfg, landmarks: landmarks}
}

// CreateDetector creates a detector based on the specified type. HTTP
// detectors are pooled, one client per concurrent analysis.
func (f *detectorFactory) CreateDetector(detectorType DetectorType) (analyzer.LandmarkDetector, error) {
	switch detectorType {
	case HTTPDetector:
		detectorCfg := landmark.HTTPDetectorConfig{
			BaseURL:                f.cfg.DetectorURL,
			Timeout:                f.cfg.RequestTimeout,
			MinDetectionConfidence: f.cfg.DetectorMinDetectionConfidence,
			MinTrackingConfidence:  f.cfg.DetectorMinTrackingConfidence,
		}
		pool, err := landmark.NewPool(f.cfg.DetectorPoolSize, func() (analyzer.LandmarkDetector, error) {
			d, err := landmark.NewHTTPDetector(detectorCfg)
			if err != nil {
				return nil, err
			}
			return d, nil
		})
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"detectors": pool.Size(),
			"url":       f.cfg.DetectorURL,
		}).Info("Landmark detector pool ready")
		return pool, nil
	case StaticDetector:
		if len(f.landmarks) == 0 {
			return &landmark.StaticDetector{}, nil
		}
		d, err := landmark.ParseStaticDetector(f.landmarks)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported detector type: %s", detectorType)
	}
}

// repositoryFactory implements RepositoryFactory
type repositoryFactory struct {
	cfg *config.Config
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config) RepositoryFactory {
	return &repositoryFactory{cfg: cfg}
}

// CreateRepository creates a repository based on the specified type
func (f *repositoryFactory) CreateRepository(ctx context.Context, storageType StorageType) (repository.AnalysisRepository, error) {
	switch storageType {
	case PostgresStorage:
		if f.cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres storage requires DATABASE_URL")
		}
		db, err := repository.Connect(f.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := repository.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil
	case MemoryStorage:
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// StorageTypeFor picks postgres when a database is configured
func StorageTypeFor(cfg *config.Config) StorageType {
	if cfg.DatabaseURL != "" {
		return PostgresStorage
	}
	return MemoryStorage
}

// sourceFactory implements SourceFactory
type sourceFactory struct {
	cfg *config.Config
}

// NewSourceFactory creates a new image source factory
func NewSourceFactory(cfg *config.Config) SourceFactory {
	return &sourceFactory{cfg: cfg}
}

// CreateSource wires the HTTP fetcher and, when an account is configured,
// Azure blob storage
func (f *sourceFactory) CreateSource() (storage.ImageSource, error) {
	fetcher := storage.NewHTTPImageFetcher(
		storage.WithTimeout(f.cfg.ImageFetchTimeout),
		storage.WithMaxBytes(f.cfg.MaxImageBytes),
	)

	var blobs storage.BlobStorage
	if f.cfg.AzureStorageAccount != "" {
		var err error
		blobs, err = storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxImageBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
		logger.WithField("account", f.cfg.AzureStorageAccount).Info("Azure blob image source enabled")
	} else {
		logger.WithField("scheme", storage.BlobScheme).Debug("Blob image source disabled")
	}

	return storage.NewResolver(fetcher, blobs), nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	DetectorFactory   DetectorFactory
	RepositoryFactory RepositoryFactory
	SourceFactory     SourceFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		DetectorFactory:   NewDetectorFactory(cfg, nil),
		RepositoryFactory: NewRepositoryFactory(cfg),
		SourceFactory:     NewSourceFactory(cfg),
	}
}
