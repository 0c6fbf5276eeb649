package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 60, cfg.Server.FrameRate)
	assert.True(t, cfg.Stops.Embedded)
	assert.Equal(t, 2.0, cfg.Bounds.Padding)
	assert.Equal(t, 1.0, cfg.Tour.Speed)
	assert.True(t, cfg.Tour.AutoAdvance)
	assert.Equal(t, 3, cfg.Movement.SpeedLevel)
	assert.Equal(t, 900*time.Millisecond, cfg.Movement.WallHitInterval)
	assert.Equal(t, "pt-PT", cfg.Speech.Language)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "museum.yaml", `
server:
  addr: ":9000"
  spawn: [1, 0, 4]
stops:
  file: stops.yaml
  watch: true
bounds:
  padding: 3
  tweaks:
    north: 0.5
  fallback:
    min_x: -5
    max_x: 5
    min_z: -5
    max_z: 5
tour:
  speed: 1.25
  reduced_motion: true
  ambient: true
movement:
  wall_hit_interval: 1.5s
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.FrameRate, "unset keys keep defaults")
	assert.Equal(t, [3]float64{1, 0, 4}, cfg.Server.Spawn)
	assert.Equal(t, "stops.yaml", cfg.Stops.File)
	assert.True(t, cfg.Stops.Watch)
	assert.Equal(t, 3.0, cfg.Bounds.Padding)
	assert.Equal(t, 0.5, cfg.Bounds.Tweaks.North)
	assert.Equal(t, 5.0, cfg.Bounds.Fallback.MaxX)
	assert.Equal(t, 1.25, cfg.Tour.Speed)
	assert.True(t, cfg.Tour.ReducedMotion)
	assert.True(t, cfg.Tour.AutoAdvance)
	assert.True(t, cfg.Tour.Ambient)
	assert.Equal(t, 1500*time.Millisecond, cfg.Movement.WallHitInterval)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MUSEUM_STOPS_URL", "https://example.org/stops.json")
	t.Setenv("MUSEUM_MOVEMENT_SPEED_LEVEL", "5")

	p := writeFile(t, "museum.json", `{"stops": {"url": "http://ignored"}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/stops.json", cfg.Stops.URL)
	assert.Equal(t, 5, cfg.Movement.SpeedLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"speed too fast", "tour:\n  speed: 3\n"},
		{"speed level", "movement:\n  speed_level: 9\n"},
		{"negative padding", "bounds:\n  padding: -1\n"},
		{"sheet without auth", "stops:\n  sheet:\n    id: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "museum.yaml", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("MUSEUM_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, DefaultAddr, Addr())
	assert.Equal(t, DefaultLogLevel, LogLevel())

	t.Setenv("MUSEUM_ADDR", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, ":7000", Addr())
	assert.Equal(t, "debug", LogLevel())
}
