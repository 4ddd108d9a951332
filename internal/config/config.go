package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Bot Settings
	BotToken       string
	BotName        string
	Version        string
	AutoLeaveEmpty bool

	// Storage
	SoundsDir      string
	SoundFilesJSON string
	TempDir        string
	WatchCatalog   bool

	// Ingestion limits
	MaxUploadBytes   int64
	MaxVideoDuration time.Duration
	FFmpegPath       string
	FFprobePath      string

	// Web upload form
	WebEnabled          bool
	WebAddr             string
	WebUploadsPerMinute int

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		botToken = os.Getenv("DISCORD_BOT_TOKEN")
	}
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	if len(botToken) < 50 {
		return nil, fmt.Errorf("invalid BOT_TOKEN format (too short)")
	}

	cfg := LoadStorage()
	cfg.BotToken = botToken
	cfg.BotName = getEnvOrDefault("BOT_NAME", "Soundboard Bot")
	cfg.Version = getEnvOrDefault("VERSION", "1.0.0")
	cfg.AutoLeaveEmpty = getEnvBool("AUTO_LEAVE_EMPTY", true)

	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", 8<<20))
	cfg.MaxVideoDuration = time.Duration(getEnvInt("MAX_VIDEO_SECONDS", 15)) * time.Second
	cfg.FFmpegPath = getEnvOrDefault("FFMPEG_PATH", "ffmpeg")
	cfg.FFprobePath = getEnvOrDefault("FFPROBE_PATH", "ffprobe")

	cfg.WebEnabled = getEnvBool("WEB_ENABLED", true)
	cfg.WebAddr = getEnvOrDefault("WEB_ADDR", ":5000")
	cfg.WebUploadsPerMinute = getEnvInt("WEB_UPLOADS_PER_MINUTE", 10)

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", "text")
	cfg.LogFile = getEnvOrDefault("LOG_FILE", "")

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStorage reads only the storage settings. It does not require a bot
// token, so offline tooling such as catalog migration can use it.
func LoadStorage() *Config {
	_ = godotenv.Load()

	soundsDir := getEnvOrDefault("SOUNDS_DIR", "uploads")
	return &Config{
		SoundsDir:      soundsDir,
		SoundFilesJSON: getEnvOrDefault("SOUND_FILES_JSON", "sound_files.json"),
		TempDir:        getEnvOrDefault("TEMP_DIR", filepath.Join(soundsDir, ".tmp")),
		WatchCatalog:   getEnvBool("WATCH_CATALOG", true),
	}
}

// EnsureDirs creates the sound and temp directories.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.SoundsDir, 0755); err != nil {
		return fmt.Errorf("failed to create sounds directory: %w", err)
	}
	if err := os.MkdirAll(c.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	return nil
}

// GetSafeToken returns a masked version of the token for logging
func (c *Config) GetSafeToken() string {
	if len(c.BotToken) < 15 {
		return "***"
	}
	return c.BotToken[:10] + "..." + c.BotToken[len(c.BotToken)-4:]
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "NO":
			return false
		}
	}
	return defaultValue
}
