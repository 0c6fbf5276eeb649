package main

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-museum/internal/config"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/movement"
	"github.com/teslashibe/go-museum/pkg/session"
	"github.com/teslashibe/go-museum/pkg/tour"
)

// buildSource chains the configured stop sources, first to last: url, sheet,
// file, embedded. Each falls back to the next when it fails or is empty.
func buildSource(c *config.Config, logger *slog.Logger) tour.StopDataSource {
	var chain []tour.StopDataSource
	if c.Stops.URL != "" {
		chain = append(chain, &tour.HTTPSource{URL: c.Stops.URL})
	}
	if c.Stops.Sheet.ID != "" {
		chain = append(chain, &tour.SheetsSource{
			SpreadsheetID:   c.Stops.Sheet.ID,
			Range:           c.Stops.Sheet.Range,
			CredentialsFile: c.Stops.Sheet.Credentials,
			APIKey:          c.Stops.Sheet.APIKey,
		})
	}
	if c.Stops.File != "" {
		chain = append(chain, &tour.FileSource{Path: c.Stops.File})
	}
	if c.Stops.Embedded || len(chain) == 0 {
		chain = append(chain, tour.EmbeddedSource{})
	}

	src := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		src = &tour.FallbackSource{Primary: chain[i], Fallback: src, Logger: logger}
	}
	return src
}

// loadEnricher reads the painting metadata file, if any.
func loadEnricher(c *config.Config) (tour.MetadataEnricher, error) {
	if c.Stops.Metadata == "" {
		return nil, nil
	}
	m, err := tour.LoadMetadata(c.Stops.Metadata)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	return m, nil
}

// fallbackBounds is the rectangle used until stops load: measured from the
// museum model when one is configured, else the configured constant.
func fallbackBounds(c *config.Config, logger *slog.Logger) bounds.Bounds {
	if c.Bounds.Model == "" {
		return c.Bounds.Fallback
	}
	b, err := bounds.FromGLTF(c.Bounds.Model, c.Bounds.FloorY)
	if err != nil {
		logger.Warn("model bounds unavailable, using configured fallback", "model", c.Bounds.Model, "error", err)
		return c.Bounds.Fallback
	}
	return b
}

// sessionOptions maps the configuration onto every visitor session.
func sessionOptions(c *config.Config) []session.Option {
	return []session.Option{
		session.WithFrameRate(c.Server.FrameRate),
		session.WithTourOptions(c.Tour),
		session.WithMovement(
			movement.WithSpeedLevel(c.Movement.SpeedLevel),
			movement.WithUnitsPerLevel(c.Movement.UnitsPerLevel),
			movement.WithWallHitInterval(c.Movement.WallHitInterval),
		),
	}
}
