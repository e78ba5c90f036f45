package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/canvas"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, cfg.PresenceTimeout)
	assert.Equal(t, canvas.DefaultLayout(), cfg.Layout())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
heartbeat_interval: 5s
overlap_threshold: 0.5
base_url: https://retro.example
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 0.5, cfg.OverlapThreshold)
	assert.Equal(t, "https://retro.example", cfg.BaseURL)
	assert.Equal(t, 280.0, cfg.CardWidth)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Defaults().BoardSize, cfg.BoardSize)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeFile(t, "card_widht: 300\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card_widht")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("RETRO_CARD_WIDTH", "300")
	t.Setenv("RETRO_PRESENCE_TIMEOUT", "1m")
	t.Setenv("RETRO_BASE_URL", "https://env.example")

	cfg, err := Load(writeFile(t, "card_width: 200\n"))
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.CardWidth, "env beats file")
	assert.Equal(t, time.Minute, cfg.PresenceTimeout)
	assert.Equal(t, "https://env.example", cfg.BaseURL)
}

func TestApplyEnv_Malformed(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "RETRO_HEARTBEAT_INTERVAL" {
			return "soon", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "RETRO_HEARTBEAT_INTERVAL")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.OverlapThreshold = 1.5
	cfg.CardHeight = 0
	cfg.HeartbeatInterval = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap_threshold")
	assert.Contains(t, err.Error(), "card_height")
	assert.Contains(t, err.Error(), "heartbeat_interval")

	cfg = Defaults()
	cfg.OverlapThreshold = 1
	assert.NoError(t, cfg.Validate())
}
