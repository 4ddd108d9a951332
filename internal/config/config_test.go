package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToken = strings.Repeat("x", 60)

func TestLoadRequiresToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := Load()
	assert.ErrorContains(t, err, "BOT_TOKEN")
}

func TestLoadRejectsShortToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "too short")
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("BOT_TOKEN", testToken)
	for _, key := range []string{"SOUNDS_DIR", "SOUND_FILES_JSON", "TEMP_DIR", "MAX_UPLOAD_BYTES", "MAX_VIDEO_SECONDS", "WEB_ADDR", "AUTO_LEAVE_EMPTY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "uploads", cfg.SoundsDir)
	assert.Equal(t, "sound_files.json", cfg.SoundFilesJSON)
	assert.Equal(t, filepath.Join("uploads", ".tmp"), cfg.TempDir)
	assert.Equal(t, int64(8<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 15*time.Second, cfg.MaxVideoDuration)
	assert.Equal(t, ":5000", cfg.WebAddr)
	assert.True(t, cfg.AutoLeaveEmpty)

	info, err := os.Stat(filepath.Join(dir, "uploads", ".tmp"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DISCORD_BOT_TOKEN", testToken)
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("SOUNDS_DIR", "clips")
	t.Setenv("TEMP_DIR", "")
	t.Setenv("MAX_VIDEO_SECONDS", "30")
	t.Setenv("WEB_ENABLED", "false")
	t.Setenv("AUTO_LEAVE_EMPTY", "no")
	t.Setenv("WEB_UPLOADS_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testToken, cfg.BotToken)
	assert.Equal(t, "clips", cfg.SoundsDir)
	assert.Equal(t, filepath.Join("clips", ".tmp"), cfg.TempDir)
	assert.Equal(t, 30*time.Second, cfg.MaxVideoDuration)
	assert.False(t, cfg.WebEnabled)
	assert.False(t, cfg.AutoLeaveEmpty)
	assert.Equal(t, 10, cfg.WebUploadsPerMinute)
}

func TestLoadStorageWithoutToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("SOUND_FILES_JSON", "data/catalog.json")

	cfg := LoadStorage()
	assert.Equal(t, "data/catalog.json", cfg.SoundFilesJSON)
	assert.Empty(t, cfg.BotToken)
}

func TestGetSafeToken(t *testing.T) {
	cfg := &Config{BotToken: "abcdefghijKLMNOPQRSTUVWXYZ1234"}
	assert.Equal(t, "abcdefghij...1234", cfg.GetSafeToken())

	cfg.BotToken = "short"
	assert.Equal(t, "***", cfg.GetSafeToken())
}
