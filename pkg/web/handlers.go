package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/session"
	"github.com/teslashibe/go-museum/pkg/tour"
)

// StopsResponse is the body of GET /api/stops
type StopsResponse struct {
	Source string      `json:"source"`
	Count  int         `json:"count"`
	Stops  []tour.Stop `json:"stops"`
}

// BoundsResponse is the body of GET /api/bounds
type BoundsResponse struct {
	// Origin is "stops" when computed from stop positions, else "fallback".
	Origin string         `json:"origin"`
	Bounds bounds.Bounds  `json:"bounds"`
	Walls  [4]bounds.Wall `json:"walls"`
}

// handleHealth reports liveness and the number of visitors
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": s.SessionCount(),
		"monitors": s.monitor.ClientCount(),
	})
}

// handleStops returns the enriched stop list
func (s *Server) handleStops(c *fiber.Ctx) error {
	stops, err := s.loadStops(c.UserContext())
	if err != nil {
		s.metrics.LoadFailed(s.cfg.Source.Name())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":  err.Error(),
			"notice": tour.NoticeDataUnavailable,
		})
	}
	return c.JSON(StopsResponse{
		Source: s.cfg.Source.Name(),
		Count:  len(stops),
		Stops:  stops,
	})
}

// handleBounds returns the walkable rectangle visitors get and its walls
func (s *Server) handleBounds(c *fiber.Ctx) error {
	resp := BoundsResponse{Origin: "fallback", Bounds: s.cfg.Bounds}
	if stops, err := s.loadStops(c.UserContext()); err == nil {
		if b, ok := bounds.ComputeFromStops(stops, s.cfg.Padding, s.cfg.Bounds.FloorY); ok {
			resp.Origin = "stops"
			resp.Bounds = b
		}
	}
	resp.Bounds = session.ApplyTweaks(resp.Bounds, s.cfg.Tweaks)
	resp.Walls = bounds.Walls(resp.Bounds, bounds.DefaultWallThickness, bounds.DefaultWallHeight)
	return c.JSON(resp)
}

// handleSessions lists the latest snapshot of every visitor session
func (s *Server) handleSessions(c *fiber.Ctx) error {
	return c.JSON(s.Snapshots())
}

// handleSession returns one session snapshot
func (s *Server) handleSession(c *fiber.Ctx) error {
	v, ok := s.lookup(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": errNoSession.Error(),
		})
	}
	return c.JSON(v.session.Latest())
}
