package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	RelayTimeout       time.Duration
	MaxRequestBodySize int64

	// ProcessEndpoint is where the relay posts collected page images.
	ProcessEndpoint string

	// DimensionThreshold is the minimum rendered width AND height an image
	// element must exceed to be collected.
	DimensionThreshold int

	// OCRConfidenceFloor filters out low-confidence words before translation.
	OCRConfidenceFloor float64

	// TranslatorURL points at a LibreTranslate-compatible backend. Empty
	// disables translation; processed images then keep their original text.
	TranslatorURL  string
	TargetLanguage string

	// Azure blob storage credentials, only needed when pages reference
	// blob-hosted images.
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "5000"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		RelayTimeout:       parseDurationOrDefault("RELAY_TIMEOUT", 120*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 50*1024*1024), // 50MB of page images
		ProcessEndpoint:    getEnvOrDefault("PROCESS_ENDPOINT", "http://localhost:5000/process_images"),
		DimensionThreshold: int(parseIntOrDefault("DIMENSION_THRESHOLD", 50)),
		OCRConfidenceFloor: parseFloatOrDefault("OCR_CONFIDENCE_FLOOR", 60),
		TranslatorURL:      os.Getenv("TRANSLATOR_URL"),
		TargetLanguage:     getEnvOrDefault("TARGET_LANGUAGE", "en"),
		AzureAccountName:   os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:    os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.RelayTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, relay=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.RelayTimeout)
	}
	if cfg.DimensionThreshold < 0 {
		return nil, fmt.Errorf("DIMENSION_THRESHOLD must be >= 0 (got %d)", cfg.DimensionThreshold)
	}
	if cfg.OCRConfidenceFloor < 0 || cfg.OCRConfidenceFloor > 100 {
		return nil, fmt.Errorf("OCR_CONFIDENCE_FLOOR must be within [0,100] (got %g)", cfg.OCRConfidenceFloor)
	}
	return cfg, nil
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
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
