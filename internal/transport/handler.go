package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-face-palette/internal/config"
	apperrors "go-face-palette/internal/errors"
	"go-face-palette/internal/logger"
	"go-face-palette/internal/observer"
	"go-face-palette/internal/service"
	"go-face-palette/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// MetricsSource exposes observer counters on the metrics endpoint
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

var _ MetricsSource = (*observer.MetricsObserver)(nil)

func NewHandler(svc service.FaceAnalysisService, metrics MetricsSource, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	api := r.Group("/api/analysis")
	api.POST("/analyze-face", analyzeFace(svc, cfg))
	api.GET("/stats", analysisStats(svc, cfg))
	api.GET("/history/:session_id", analysisHistory(svc, cfg))
	api.GET("/metrics", analysisMetrics(metrics))

	return r
}

func analyzeFace(svc service.FaceAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing face analysis request")

		var req models.FaceAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
				return
			}
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.AnalyzeFace(ctx, &req, service.ClientInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		if err != nil {
			respondError(c, determineStatusCode(err), "face analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"analysis_id":        resp.AnalysisID,
			"success":            resp.Success,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Face analysis request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func analysisStats(svc service.FaceAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		stats, err := svc.Stats(ctx)
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to get analysis statistics", err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func analysisHistory(svc service.FaceAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		history, err := svc.History(ctx, c.Param("session_id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to get analysis history", err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

func analysisMetrics(metrics MetricsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			return http.StatusTooManyRequests
		}
	}
	return apperrors.GetStatusCode(err)
}

// errorMessage prefers the client-facing AppError message over the full chain
func errorMessage(message string, err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" {
			return message + ": " + appErr.Message + " (" + appErr.Details + ")"
		}
		return message + ": " + appErr.Message
	}
	return message + ": " + err.Error()
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: errorMessage(message, err),
	})
}
