package landmark

import (
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-face-palette/internal/analyzer"
)

const twoPointFace = `{"faces":[{"landmarks":[[0.25,0.5,0.01],[0.75,0.5,0.02]],"score":0.97}]}`

func testBuffer() *analyzer.PixelBuffer {
	return analyzer.NewPixelBuffer(image.NewRGBA(image.Rect(0, 0, 4, 3)))
}

func newTestDetector(t *testing.T, url string) *HTTPDetector {
	t.Helper()
	d, err := NewHTTPDetector(HTTPDetectorConfig{
		BaseURL:                url,
		Timeout:                2 * time.Second,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		RetryDelay:             time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewHTTPDetector() error = %v", err)
	}
	return d
}

func TestHTTPDetector_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/detect" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("max_num_faces") != "1" || q.Get("refine_landmarks") != "true" {
			t.Errorf("Expected single-face refined mode, got %s", r.URL.RawQuery)
		}
		if q.Get("min_detection_confidence") != "0.5" || q.Get("min_tracking_confidence") != "0.5" {
			t.Errorf("Expected 0.5 confidences, got %s", r.URL.RawQuery)
		}
		if ct := r.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected image/png body, got %s", ct)
		}
		img, err := png.Decode(r.Body)
		if err != nil {
			t.Errorf("Body is not a png: %v", err)
		} else if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
			t.Errorf("Expected 4x3 image, got %v", b)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoPointFace))
	}))
	defer server.Close()

	landmarks, err := newTestDetector(t, server.URL+"/").Detect(context.Background(), testBuffer())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(landmarks) != 2 {
		t.Fatalf("Expected 2 landmarks, got %d", len(landmarks))
	}
	if landmarks[1].X != 0.75 || landmarks[1].Y != 0.5 {
		t.Errorf("Unexpected landmark %+v", landmarks[1])
	}
}

func TestHTTPDetector_RetryLogic(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int
		body          string
		expectCalls   int
		expectErr     error
		errorContains string
	}{
		{
			name:        "success on first attempt",
			responses:   []int{200},
			body:        twoPointFace,
			expectCalls: 1,
		},
		{
			name:        "success after 5xx",
			responses:   []int{503, 200},
			body:        twoPointFace,
			expectCalls: 2,
		},
		{
			name:          "4xx is not retried",
			responses:     []int{400},
			expectCalls:   1,
			errorContains: "client error: status code 400",
		},
		{
			name:          "all attempts fail",
			responses:     []int{500, 502, 503},
			expectCalls:   3,
			errorContains: "server error: status code 503",
		},
		{
			name:        "no faces",
			responses:   []int{200},
			body:        `{"faces":[]}`,
			expectCalls: 1,
			expectErr:   analyzer.ErrNoFace,
		},
		{
			name:          "malformed landmarks",
			responses:     []int{200},
			body:          `{"faces":[{"landmarks":[[0.1]]}]}`,
			expectCalls:   1,
			errorContains: "malformed detector response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(calls.Add(1)) - 1
				status := tt.responses[min(n, len(tt.responses)-1)]
				w.WriteHeader(status)
				if status == http.StatusOK {
					w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			_, err := newTestDetector(t, server.URL).Detect(context.Background(), testBuffer())

			if int(calls.Load()) != tt.expectCalls {
				t.Errorf("Expected %d requests, got %d", tt.expectCalls, calls.Load())
			}
			switch {
			case tt.expectErr != nil:
				if !errors.Is(err, tt.expectErr) {
					t.Errorf("Expected %v, got %v", tt.expectErr, err)
				}
			case tt.errorContains != "":
				if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %v", tt.errorContains, err)
				}
			default:
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
			}
		})
	}
}

func TestHTTPDetector_NetworkErrorRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Write([]byte(twoPointFace))
	}))
	defer server.Close()

	if _, err := newTestDetector(t, server.URL).Detect(context.Background(), testBuffer()); err != nil {
		t.Errorf("Expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", calls.Load())
	}
}

func TestNewHTTPDetector_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8501", "://bad"} {
		if _, err := NewHTTPDetector(HTTPDetectorConfig{BaseURL: u}); err == nil {
			t.Errorf("Expected error for %q", u)
		}
	}
}
