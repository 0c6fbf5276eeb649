package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-museum/internal/log"
)

// ErrNotConnected is returned by Send while the gateway has no live connection.
var ErrNotConnected = errors.New("speech: not connected")

// Message types on the gateway socket.
const (
	TypeHello      = "hello"
	TypeSpeak      = "speak"
	TypeCancel     = "cancel"
	TypeTranscript = "transcript"
	TypeError      = "error"
)

// Message is the JSON frame exchanged with the speech service.
type Message struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Lang  string `json:"lang,omitempty"`
	Final bool   `json:"final,omitempty"`
	Error string `json:"error,omitempty"`
}

// Config configures a Gateway.
type Config struct {
	URL                string
	Language           string
	HandshakeTimeout   time.Duration
	WriteTimeout       time.Duration
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	Logger             *slog.Logger
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		Language:           "pt-PT",
		HandshakeTimeout:   10 * time.Second,
		WriteTimeout:       5 * time.Second,
		ReconnectBaseDelay: time.Second,
		ReconnectMaxDelay:  30 * time.Second,
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithURL sets the websocket URL of the speech service.
func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithLanguage sets the BCP 47 language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithReconnectDelay sets the reconnect backoff bounds.
func WithReconnectDelay(base, max time.Duration) Option {
	return func(c *Config) {
		c.ReconnectBaseDelay = base
		c.ReconnectMaxDelay = max
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Gateway is a client for an external speech service. It streams final
// transcripts to the transcript handler and sends text to be spoken. A Gateway
// satisfies the tour speaker port; speaking while disconnected is a no-op.
type Gateway struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	conn         *websocket.Conn
	onTranscript func(text string)
}

// New creates a gateway. Call Run to connect.
func New(opts ...Option) *Gateway {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = time.Second
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectBaseDelay {
		cfg.ReconnectMaxDelay = cfg.ReconnectBaseDelay
	}
	return &Gateway{
		cfg:    cfg,
		logger: log.For(cfg.Logger, "speech.gateway"),
	}
}

// OnTranscript registers the handler for final transcripts. It runs on the
// gateway's read goroutine.
func (g *Gateway) OnTranscript(fn func(text string)) {
	g.mu.Lock()
	g.onTranscript = fn
	g.mu.Unlock()
}

// Connected reports whether a connection is live.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn != nil
}

// Run connects and keeps the connection alive, reconnecting with exponential
// backoff, until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	if g.cfg.URL == "" {
		return fmt.Errorf("speech: no gateway url configured")
	}
	delay := g.cfg.ReconnectBaseDelay
	for {
		connected, err := g.serve(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			delay = g.cfg.ReconnectBaseDelay
		}
		g.logger.Warn("speech gateway unavailable", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > g.cfg.ReconnectMaxDelay {
			delay = g.cfg.ReconnectMaxDelay
		}
	}
}

// serve runs one connection until it fails. connected reports whether the dial
// succeeded.
func (g *Gateway) serve(ctx context.Context) (connected bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: g.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, g.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("speech: dial (status %d): %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("speech: dial: %w", err)
	}

	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.conn = nil
		g.mu.Unlock()
		conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	g.logger.Info("speech gateway connected", "url", g.cfg.URL)
	if err := g.Send(Message{Type: TypeHello, Lang: g.cfg.Language}); err != nil {
		return true, fmt.Errorf("speech: hello: %w", err)
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return true, fmt.Errorf("speech: read: %w", err)
		}
		g.handle(msg)
	}
}

func (g *Gateway) handle(msg Message) {
	switch msg.Type {
	case TypeTranscript:
		text := strings.TrimSpace(msg.Text)
		if !msg.Final || text == "" {
			return
		}
		g.mu.Lock()
		fn := g.onTranscript
		g.mu.Unlock()
		g.logger.Debug("transcript", "text", text)
		if fn != nil {
			fn(text)
		}
	case TypeError:
		g.logger.Warn("speech service error", "error", msg.Error)
	default:
		g.logger.Debug("ignoring speech message", "type", msg.Type)
	}
}

// Send writes one message. It returns ErrNotConnected when offline.
func (g *Gateway) Send(msg Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return ErrNotConnected
	}
	if g.cfg.WriteTimeout > 0 {
		_ = g.conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
	}
	return g.conn.WriteJSON(msg)
}

// Speak asks the service to read text aloud. Failures are logged and dropped.
func (g *Gateway) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := g.Send(Message{Type: TypeSpeak, Text: text, Lang: g.cfg.Language}); err != nil {
		g.logger.Debug("speak dropped", "error", err)
	}
}

// Silence cancels any utterance in progress.
func (g *Gateway) Silence() {
	if err := g.Send(Message{Type: TypeCancel}); err != nil {
		g.logger.Debug("cancel dropped", "error", err)
	}
}
