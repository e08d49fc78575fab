package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-face-palette/pkg/models"
	"go-face-palette/pkg/validation"
)

type Config struct {
	Host               string
	Port               string
	LogLevel           string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxImageBytes      int64

	// Landmark detector sidecar
	DetectorURL                    string
	DetectorPoolSize               int
	DetectorMinDetectionConfidence float64
	DetectorMinTrackingConfidence  float64

	// Color extraction tunables
	Clusters          int
	MinBrightness     int
	MaxBrightness     int
	ConsensusStrategy string
	Fallbacks         models.Palette

	MaxConcurrentAnalyses int

	DatabaseURL string

	AzureStorageAccount string
	AzureStorageKey     string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads an optional .env file and then the process environment
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 30*1024*1024), // three base64 photos
		MaxImageBytes:      parseIntOrDefault("MAX_IMAGE_BYTES", 10*1024*1024),

		DetectorURL:                    getEnvOrDefault("DETECTOR_URL", "http://localhost:8501"),
		DetectorPoolSize:               int(parseIntOrDefault("DETECTOR_POOL_SIZE", 4)),
		DetectorMinDetectionConfidence: parseFloatOrDefault("DETECTOR_MIN_DETECTION_CONFIDENCE", 0.5),
		DetectorMinTrackingConfidence:  parseFloatOrDefault("DETECTOR_MIN_TRACKING_CONFIDENCE", 0.5),

		Clusters:          int(parseIntOrDefault("PALETTE_CLUSTERS", 3)),
		MinBrightness:     int(parseIntOrDefault("PALETTE_MIN_BRIGHTNESS", 50)),
		MaxBrightness:     int(parseIntOrDefault("PALETTE_MAX_BRIGHTNESS", 650)),
		ConsensusStrategy: strings.ToLower(getEnvOrDefault("PALETTE_CONSENSUS", "first")),
		Fallbacks: models.Palette{
			SkinTone:  getEnvOrDefault("PALETTE_FALLBACK_SKIN", "#F5DEB3"),
			EyeColor:  getEnvOrDefault("PALETTE_FALLBACK_EYE", "#8B4513"),
			LipColor:  getEnvOrDefault("PALETTE_FALLBACK_LIP", "#FFB6C1"),
			HairColor: getEnvOrDefault("PALETTE_FALLBACK_HAIR", "#4E2A04"),
		},

		MaxConcurrentAnalyses: int(parseIntOrDefault("MAX_CONCURRENT_ANALYSES", 0)),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and formats of every setting
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", c.MaxImageBytes)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.DetectorPoolSize <= 0 {
		return fmt.Errorf("DETECTOR_POOL_SIZE must be > 0 (got %d)", c.DetectorPoolSize)
	}
	if !inUnitRange(c.DetectorMinDetectionConfidence) || !inUnitRange(c.DetectorMinTrackingConfidence) {
		return fmt.Errorf("detector confidences must be within [0,1] (got detection=%g, tracking=%g)",
			c.DetectorMinDetectionConfidence, c.DetectorMinTrackingConfidence)
	}
	if c.Clusters < 1 {
		return fmt.Errorf("PALETTE_CLUSTERS must be >= 1 (got %d)", c.Clusters)
	}
	if c.MinBrightness < 0 || c.MaxBrightness > 765 || c.MinBrightness >= c.MaxBrightness {
		return fmt.Errorf("invalid brightness window [%d, %d]: want 0 <= min < max <= 765",
			c.MinBrightness, c.MaxBrightness)
	}
	switch c.ConsensusStrategy {
	case "first", "nearest":
	default:
		return fmt.Errorf("PALETTE_CONSENSUS must be first or nearest (got %q)", c.ConsensusStrategy)
	}
	for _, f := range models.Features {
		if err := validation.ValidateHexColor(c.Fallbacks.Get(f)); err != nil {
			return fmt.Errorf("fallback color for %s: %w", f, err)
		}
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
