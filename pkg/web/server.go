// Package web is the museum's front door: it bridges each visitor's browser to
// a navigation session over a websocket and serves monitors, REST and metrics.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/hub"
	"github.com/teslashibe/go-museum/pkg/metrics"
	"github.com/teslashibe/go-museum/pkg/session"
	"github.com/teslashibe/go-museum/pkg/tour"
)

// Config holds server settings.
type Config struct {
	Addr         string
	StaticDir    string
	AllowOrigins string

	// MonitorInterval is how often session snapshots go to monitors.
	MonitorInterval time.Duration

	// Spawn is used when a browser does not report its scene pose first.
	Spawn geom.Vec3

	// PoseRate is how often, in Hz, a changed rig pose is pushed to the browser.
	PoseRate int

	// SendBuffer bounds the per-visitor outbound queue.
	SendBuffer int

	// SpeechURL enables the speech gateway for every visitor when set.
	SpeechURL string
	Language  string

	Source   tour.StopDataSource
	Enricher tour.MetadataEnricher

	Bounds  bounds.Bounds
	Padding float64
	Tweaks  bounds.Tweaks

	// Session options applied to every visitor session.
	Session []session.Option

	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		StaticDir:       "./web",
		AllowOrigins:    "*",
		MonitorInterval: 500 * time.Millisecond,
		PoseRate:        30,
		SendBuffer:      256,
		Language:        "pt-PT",
		Source:          tour.EmbeddedSource{},
		Bounds:          bounds.Fallback(),
		Padding:         bounds.DefaultPadding,
	}
}

// Option configures a Server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithStaticDir sets the directory served at /. Empty disables it.
func WithStaticDir(dir string) Option {
	return func(c *Config) { c.StaticDir = dir }
}

// WithAllowOrigins sets the CORS allowed origins.
func WithAllowOrigins(origins string) Option {
	return func(c *Config) { c.AllowOrigins = origins }
}

// WithMonitorInterval sets the snapshot broadcast period.
func WithMonitorInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MonitorInterval = d
		}
	}
}

// WithSpawn sets the fallback spawn position.
func WithSpawn(p geom.Vec3) Option {
	return func(c *Config) { c.Spawn = p }
}

// WithPoseRate sets the pose push rate in Hz.
func WithPoseRate(hz int) Option {
	return func(c *Config) {
		if hz > 0 {
			c.PoseRate = hz
		}
	}
}

// WithStops sets where visitor sessions load their stops from.
func WithStops(src tour.StopDataSource, enricher tour.MetadataEnricher) Option {
	return func(c *Config) {
		c.Source = src
		c.Enricher = enricher
	}
}

// WithBounds sets the fallback rectangle, padding around stops and edge tweaks.
func WithBounds(b bounds.Bounds, padding float64, t bounds.Tweaks) Option {
	return func(c *Config) {
		c.Bounds = b
		c.Padding = padding
		c.Tweaks = t
	}
}

// WithSpeech enables the speech gateway.
func WithSpeech(url, language string) Option {
	return func(c *Config) {
		c.SpeechURL = url
		if language != "" {
			c.Language = language
		}
	}
}

// WithSessionOptions appends options for every visitor session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(c *Config) { c.Session = append(c.Session, opts...) }
}

// WithRegistry sets the prometheus registry metrics are registered on and
// /metrics serves.
func WithRegistry(r *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Server is the museum web server
type Server struct {
	cfg    Config
	app    *fiber.App
	logger *slog.Logger

	metrics  *metrics.Metrics
	registry *prometheus.Registry

	// Monitor hub for session snapshots
	monitor *hub.Hub

	mu       sync.RWMutex
	visitors map[string]*visitor

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new museum server
func NewServer(opts ...Option) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Source == nil {
		cfg.Source = tour.EmbeddedSource{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		logger:   log.For(cfg.Logger, "web"),
		metrics:  metrics.New(cfg.Registry),
		registry: cfg.Registry,
		visitors: make(map[string]*visitor),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.monitor = hub.New("monitor", s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "go-museum",
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))

	// API routes
	api := app.Group("/api")
	api.Get("/stops", s.handleStops)
	api.Get("/bounds", s.handleBounds)
	api.Get("/sessions", s.handleSessions)
	api.Get("/sessions/:id", s.handleSession)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/visitor", websocket.New(func(c *websocket.Conn) {
		s.serveVisitor(c)
	}))
	app.Get("/ws/monitor", websocket.New(func(c *websocket.Conn) {
		hub.NewClient(s.monitor, c, c.Query("session")).Run()
	}))

	// Static files
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then closes every visitor session.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("museum server listening", "addr", ln.Addr().String())

	go s.monitor.Run(s.ctx)
	go s.monitorLoop(s.ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()

	select {
	case <-ctx.Done():
		s.cancel()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return nil
	case err := <-errc:
		s.cancel()
		return err
	}
}

// Shutdown closes every visitor session and stops the server
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}

// monitorLoop pushes the latest snapshot of every session to monitors.
func (s *Server) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.monitor.ClientCount() == 0 {
				continue
			}
			for _, snap := range s.Snapshots() {
				if err := s.monitor.BroadcastJSON(snap.ID, snap); err != nil {
					s.logger.Warn("encode snapshot", "error", err)
				}
			}
		}
	}
}

// Snapshots returns the latest snapshot of every live session, oldest id first.
func (s *Server) Snapshots() []session.Snapshot {
	s.mu.RLock()
	out := make([]session.Snapshot, 0, len(s.visitors))
	for _, v := range s.visitors {
		out = append(out, v.session.Latest())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SessionCount returns the number of connected visitors.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visitors)
}

// ReloadStops installs stops in every live session, as after a stop file edit.
// A non-nil err is reported to each session as a failed load.
func (s *Server) ReloadStops(stops []tour.Stop, err error) {
	s.mu.RLock()
	sessions := make([]*session.Session, 0, len(s.visitors))
	for _, v := range s.visitors {
		sessions = append(sessions, v.session)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess := sess
		own := append([]tour.Stop(nil), stops...)
		sess.Post(func() { sess.ApplyStops(own, err, "reload") })
	}
	s.logger.Info("stops reloaded", "count", len(stops), "sessions", len(sessions), "error", err)
}

func (s *Server) addVisitor(v *visitor) {
	s.mu.Lock()
	s.visitors[v.session.ID()] = v
	s.mu.Unlock()
}

func (s *Server) removeVisitor(id string) {
	s.mu.Lock()
	delete(s.visitors, id)
	s.mu.Unlock()
}

func (s *Server) lookup(id string) (*visitor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visitors[id]
	return v, ok
}

// loadStops loads and enriches the configured stop list.
func (s *Server) loadStops(ctx context.Context) ([]tour.Stop, error) {
	stops, err := s.cfg.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, &tour.SourceError{Source: s.cfg.Source.Name(), Err: tour.ErrDataUnavailable}
	}
	if s.cfg.Enricher != nil {
		tour.Enrich(stops, s.cfg.Enricher)
	}
	return stops, nil
}

var errNoSession = errors.New("web: no such session")
