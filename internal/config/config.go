package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	UploadDir   string
	PublicURL   string
	MaxUploadMB int64
	FFmpegPath  string
	FFprobePath string
	// fetch ffmpeg from ffbinaries when it is not installed
	FFmpegDownload bool
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	port, err := getIntEnv("SUBVIEW_PORT", 5000)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getIntEnv("SUBVIEW_MAX_UPLOAD_MB", 512)
	if err != nil {
		return nil, err
	}
	download, err := getBoolEnv("SUBVIEW_FFMPEG_DOWNLOAD", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        port,
		UploadDir:   getEnv("SUBVIEW_UPLOAD_DIR", "uploads"),
		PublicURL:   getEnv("SUBVIEW_PUBLIC_URL", ""),
		MaxUploadMB: int64(maxUpload),
		FFmpegPath:  getEnv("SUBVIEW_FFMPEG_PATH", ""),
		FFprobePath: getEnv("SUBVIEW_FFPROBE_PATH", ""),

		FFmpegDownload: download,
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.MaxUploadMB)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
