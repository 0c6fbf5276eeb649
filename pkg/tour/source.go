package tour

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-museum/internal/httpc"
	"github.com/teslashibe/go-museum/internal/log"
)

// StopDataSource produces the ordered stop list.
type StopDataSource interface {
	// Name identifies the source in logs and errors.
	Name() string
	Load(ctx context.Context) ([]Stop, error)
}

// Format is a stop file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions are JSON.
func FormatFromPath(p string) Format {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses a stop list and assigns indices.
func Decode(data []byte, format Format) ([]Stop, error) {
	var stops []Stop
	if err := decodeInto(data, format, &stops); err != nil {
		return nil, err
	}
	return Indexed(stops), nil
}

func decodeInto(data []byte, format Format, v any) error {
	if format == FormatYAML {
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// HTTPSource fetches the stop list from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Name implements StopDataSource.
func (s *HTTPSource) Name() string { return "http" }

// Load implements StopDataSource.
func (s *HTTPSource) Load(ctx context.Context) ([]Stop, error) {
	header := http.Header{}
	header.Set("Cache-Control", "no-store")
	header.Set("Accept", "application/json, application/yaml")

	body, contentType, err := httpc.Fetch(ctx, s.Client, s.URL, header)
	if err != nil {
		return nil, wrapSource(s.Name(), err)
	}

	format := FormatFromPath(s.URL)
	if strings.Contains(contentType, "yaml") {
		format = FormatYAML
	}
	stops, err := Decode(body, format)
	if err != nil {
		return nil, wrapSource(s.Name(), err)
	}
	return stops, nil
}

//go:embed data/tour_stops.json
var embeddedStops []byte

// EmbeddedSource serves the tour compiled into the binary.
type EmbeddedSource struct{}

// Name implements StopDataSource.
func (EmbeddedSource) Name() string { return "embedded" }

// Load implements StopDataSource.
func (EmbeddedSource) Load(context.Context) ([]Stop, error) {
	stops, err := Decode(embeddedStops, FormatJSON)
	if err != nil {
		return nil, wrapSource("embedded", err)
	}
	return stops, nil
}

// StaticSource serves a fixed list. Handy for tests and the CLI.
type StaticSource []Stop

// Name implements StopDataSource.
func (StaticSource) Name() string { return "static" }

// Load implements StopDataSource.
func (s StaticSource) Load(context.Context) ([]Stop, error) {
	return Indexed(s), nil
}

// FallbackSource tries Primary and falls back to Fallback when it fails or
// returns nothing.
type FallbackSource struct {
	Primary  StopDataSource
	Fallback StopDataSource
	Logger   *slog.Logger
}

// Name implements StopDataSource.
func (s *FallbackSource) Name() string {
	return s.Primary.Name() + "+" + s.Fallback.Name()
}

// Load implements StopDataSource.
func (s *FallbackSource) Load(ctx context.Context) ([]Stop, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.L()
	}
	stops, err := s.Primary.Load(ctx)
	if err == nil && len(stops) > 0 {
		return stops, nil
	}
	if err != nil {
		logger.Warn("stop source failed, using fallback", "source", s.Primary.Name(), "fallback", s.Fallback.Name(), "error", err)
	} else {
		logger.Warn("stop source empty, using fallback", "source", s.Primary.Name(), "fallback", s.Fallback.Name())
	}
	if ctx.Err() != nil {
		return nil, wrapSource(s.Name(), ctx.Err())
	}
	return s.Fallback.Load(ctx)
}
