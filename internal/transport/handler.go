package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-page-translator/internal/config"
	apperrors "go-page-translator/internal/errors"
	"go-page-translator/internal/logger"
	"go-page-translator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BatchProcessor translates a batch of page images. Results carry a nil
// payload for images that need no replacement; failed images are omitted.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, images []models.ImageDescriptor) []models.ProcessedResult
}

func NewHandler(processor BatchProcessor, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/process_images", processImages(processor, cfg))

	return r
}

func processImages(p BatchProcessor, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		// Log request start
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing image translation request")

		var req models.ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if len(req.Images) == 0 {
			err := apperrors.NewValidationError("Request contains no images", nil)
			respondError(c, apperrors.GetStatusCode(err), "empty image batch", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"image_count": len(req.Images),
		}).Debug("Translating image batch")

		results := p.ProcessBatch(ctx, req.Images)

		if err := ctx.Err(); err != nil {
			timeoutErr := apperrors.NewTimeoutError("Image translation timeout", err)
			logger.WithError(timeoutErr).WithFields(logrus.Fields{
				"image_count": len(req.Images),
				"ip":          c.ClientIP(),
			}).Error("Image translation timed out")
			respondError(c, timeoutErr.StatusCode, "image translation timed out", timeoutErr)
			return
		}

		translated := 0
		for _, r := range results {
			if r.TranslatedData != nil {
				translated++
			}
		}

		// Log successful completion
		duration := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"image_count":        len(req.Images),
			"result_count":       len(results),
			"translated_count":   translated,
			"processing_time_ms": duration.Milliseconds(),
		}).Info("Image translation completed successfully")

		c.JSON(http.StatusOK, results)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
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
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
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
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
