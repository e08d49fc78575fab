package landmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-face-palette/internal/analyzer"
	"go-face-palette/internal/logger"
	"go-face-palette/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	defaultAttempts     = 3
	defaultRetryDelay   = time.Second
	maxResponseBodySize = 1 << 20
)

// HTTPDetectorConfig configures the face mesh sidecar client
type HTTPDetectorConfig struct {
	BaseURL                string
	Timeout                time.Duration
	MinDetectionConfidence float64
	MinTrackingConfidence  float64
	MaxAttempts            int
	RetryDelay             time.Duration
}

// HTTPDetector calls a face mesh sidecar that runs the landmark model in
// single-face mode. It is safe for concurrent use.
type HTTPDetector struct {
	client     *http.Client
	endpoint   string
	attempts   int
	retryDelay time.Duration
}

type detectResponse struct {
	Faces []struct {
		Landmarks [][]float64 `json:"landmarks"`
		Score     float64     `json:"score"`
	} `json:"faces"`
}

// NewHTTPDetector creates a sidecar client posting to <BaseURL>/detect
func NewHTTPDetector(cfg HTTPDetectorConfig) (*HTTPDetector, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid detector URL %q", cfg.BaseURL)
	}

	query := url.Values{}
	query.Set("max_num_faces", "1")
	query.Set("refine_landmarks", "true")
	query.Set("min_detection_confidence", strconv.FormatFloat(cfg.MinDetectionConfidence, 'f', -1, 64))
	query.Set("min_tracking_confidence", strconv.FormatFloat(cfg.MinTrackingConfidence, 'f', -1, 64))
	base.Path += "/detect"
	base.RawQuery = query.Encode()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return &HTTPDetector{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
			Timeout: timeout,
		},
		endpoint:   base.String(),
		attempts:   attempts,
		retryDelay: delay,
	}, nil
}

// Detect sends the image as PNG and returns the first face's landmarks
func (d *HTTPDetector) Detect(ctx context.Context, buf *analyzer.PixelBuffer) (models.LandmarkSet, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, buf.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode image for detector: %w", err)
	}
	payload := body.Bytes()

	var lastErr error
	for attempt := 0; attempt < d.attempts; attempt++ {
		if attempt > 0 {
			logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"error":   lastErr.Error(),
			}).Warn("Retrying landmark detection")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * d.retryDelay):
			}
		}

		landmarks, retry, err := d.detectOnce(ctx, payload)
		if err == nil || !retry {
			return landmarks, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("landmark detection failed after %d attempts: %w", d.attempts, lastErr)
}

// detectOnce performs one request and reports whether a failure is transient
func (d *HTTPDetector) detectOnce(ctx context.Context, payload []byte) (models.LandmarkSet, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("invalid detector request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read detector response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var decoded detectResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, false, fmt.Errorf("malformed detector response: %w", err)
	}
	if len(decoded.Faces) == 0 || len(decoded.Faces[0].Landmarks) == 0 {
		return nil, false, analyzer.ErrNoFace
	}

	set, err := toLandmarkSet(decoded.Faces[0].Landmarks)
	if err != nil {
		return nil, false, fmt.Errorf("malformed detector response: %w", err)
	}
	return set, false, nil
}

// Close releases idle connections
func (d *HTTPDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func toLandmarkSet(points [][]float64) (models.LandmarkSet, error) {
	set := make(models.LandmarkSet, len(points))
	for i, p := range points {
		if len(p) < 2 || !finite(p[0]) || !finite(p[1]) {
			return nil, fmt.Errorf("landmark %d is not a finite (x, y) pair", i)
		}
		set[i] = models.Landmark{X: p[0], Y: p[1]}
	}
	return set, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
