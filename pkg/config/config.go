package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Session SessionConfig
	Upload  UploadConfig
	Poller  PollerConfig
	Mock    MockConfig
	JWT     JWTConfig
	Logger  LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	// File holds the persisted bearer token between CLI invocations.
	File string
}

type UploadConfig struct {
	MaxFileSize      int64
	AllowedImageExts []string
	ProgressStep     int
	ProgressCeiling  int
	ProgressInterval time.Duration
	SettleDelay      time.Duration
	PreviewMaxPx     int
}

type PollerConfig struct {
	Interval      time.Duration
	MaxConcurrent int
}

type MockConfig struct {
	Port string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	timeout, _ := strconv.Atoi(getEnv("FINOCR_HTTP_TIMEOUT_SECONDS", "30"))
	pollInterval, _ := strconv.Atoi(getEnv("FINOCR_POLL_INTERVAL_SECONDS", "5"))
	pollConcurrency, _ := strconv.Atoi(getEnv("FINOCR_POLL_CONCURRENCY", "8"))
	maxSizeMB, _ := strconv.Atoi(getEnv("FINOCR_MAX_FILE_SIZE_MB", "10"))
	previewPx, _ := strconv.Atoi(getEnv("FINOCR_PREVIEW_MAX_PX", "256"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "30"))

	return &Config{
		API: APIConfig{
			BaseURL: getEnv("FINOCR_API_URL", "http://localhost:8000"),
			Timeout: time.Duration(timeout) * time.Second,
		},
		Session: SessionConfig{
			File: getEnv("FINOCR_SESSION_FILE", defaultSessionFile()),
		},
		Upload: DefaultUploadConfig(int64(maxSizeMB)<<20, previewPx),
		Poller: PollerConfig{
			Interval:      time.Duration(pollInterval) * time.Second,
			MaxConcurrent: pollConcurrency,
		},
		Mock: MockConfig{
			Port: getEnv("MOCK_SERVER_PORT", "8000"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "finocr-mock-secret-change-me"),
			Expiration: time.Duration(jwtExp) * time.Minute,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// DefaultUploadConfig returns the upload limits and progress cadence used by
// the dashboard: 10 points every 300ms, capped at 90 until the call resolves.
func DefaultUploadConfig(maxFileSize int64, previewPx int) UploadConfig {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	if previewPx <= 0 {
		previewPx = 256
	}
	return UploadConfig{
		MaxFileSize:      maxFileSize,
		AllowedImageExts: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff"},
		ProgressStep:     10,
		ProgressCeiling:  90,
		ProgressInterval: 300 * time.Millisecond,
		SettleDelay:      500 * time.Millisecond,
		PreviewMaxPx:     previewPx,
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".finocr-session.yaml"
	}
	return filepath.Join(dir, "finocr", "session.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
