package movement

import (
	"log/slog"
	"time"
)

// Speed level range exposed to visitors.
const (
	MinSpeedLevel = 1
	MaxSpeedLevel = 6
)

// Config holds movement engine settings.
type Config struct {
	// SpeedLevel is the visitor-facing speed in [MinSpeedLevel, MaxSpeedLevel].
	SpeedLevel int

	// UnitsPerLevel converts a speed level to world units per second.
	UnitsPerLevel float64

	// WallHitInterval is the minimum time between two wall-hit notices.
	WallHitInterval time.Duration

	// Epsilon is how far the clamp must move a coordinate to count as a wall hit.
	Epsilon float64

	// SnapDegrees is the rig yaw change of one snap turn.
	SnapDegrees float64

	// Logger defaults to log.L().
	Logger *slog.Logger
}

// DefaultConfig returns the settings the museum ships with.
func DefaultConfig() Config {
	return Config{
		SpeedLevel:      3,
		UnitsPerLevel:   0.05,
		WallHitInterval: 900 * time.Millisecond,
		Epsilon:         1e-4,
		SnapDegrees:     30,
	}
}

// Option configures an Engine.
type Option func(*Config)

// WithSpeedLevel sets the initial speed level.
func WithSpeedLevel(level int) Option {
	return func(c *Config) {
		c.SpeedLevel = level
	}
}

// WithUnitsPerLevel sets the level to units-per-second factor.
func WithUnitsPerLevel(u float64) Option {
	return func(c *Config) {
		if u > 0 {
			c.UnitsPerLevel = u
		}
	}
}

// WithWallHitInterval sets the wall-hit rate limit.
func WithWallHitInterval(d time.Duration) Option {
	return func(c *Config) {
		c.WallHitInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
