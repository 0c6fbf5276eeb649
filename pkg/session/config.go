package session

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/clock"
	"github.com/teslashibe/go-museum/pkg/metrics"
	"github.com/teslashibe/go-museum/pkg/movement"
	"github.com/teslashibe/go-museum/pkg/tour"
)

// Config holds session settings.
type Config struct {
	// FrameRate is the movement sampling rate in Hz.
	FrameRate int

	// MaxFrameStep caps dt after a stall so the rig never leaps.
	MaxFrameStep time.Duration

	// Bounds is the rectangle used until a stop list produces one.
	Bounds  bounds.Bounds
	Padding float64
	Tweaks  bounds.Tweaks

	Tour     tour.Options
	Movement []movement.Option

	// Clock overrides the loop clock. Tests pass a clock.Manual.
	Clock clock.Clock

	// QueueSize bounds the number of posted closures waiting for the loop.
	QueueSize int

	View    View
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// DefaultConfig returns the session defaults.
func DefaultConfig() Config {
	return Config{
		FrameRate:    60,
		MaxFrameStep: 100 * time.Millisecond,
		Bounds:       bounds.Fallback(),
		Padding:      bounds.DefaultPadding,
		Tour:         tour.Options{Speed: 1, AutoAdvance: true},
		QueueSize:    256,
	}
}

// Option configures a Session.
type Option func(*Config)

// WithFrameRate sets the frame rate in Hz.
func WithFrameRate(hz int) Option {
	return func(c *Config) {
		if hz > 0 {
			c.FrameRate = hz
		}
	}
}

// WithBounds sets the initial bounds, padding around stops and edge tweaks.
func WithBounds(b bounds.Bounds, padding float64, t bounds.Tweaks) Option {
	return func(c *Config) {
		c.Bounds = b
		c.Padding = padding
		c.Tweaks = t
	}
}

// WithTourOptions sets the initial tour options.
func WithTourOptions(o tour.Options) Option {
	return func(c *Config) { c.Tour = o }
}

// WithMovement passes options through to the movement engine.
func WithMovement(opts ...movement.Option) Option {
	return func(c *Config) { c.Movement = append(c.Movement, opts...) }
}

// WithClock replaces the loop clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Config) { c.Clock = clk }
}

// WithView sets the presentation sink for session-level changes.
func WithView(v View) Option {
	return func(c *Config) { c.View = v }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
