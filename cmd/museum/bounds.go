package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/session"
	"github.com/teslashibe/go-museum/pkg/tour"
)

var boundsCmd = &cobra.Command{
	Use:   "bounds [stop-file]",
	Short: "Print the walkable rectangle visitors will get",
	Long: `bounds computes the walkable rectangle from a stop file (or the configured
stop sources) with the configured padding and edge tweaks, and prints it with
its four wall markers. Without stop positions the model or configured
fallback is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBounds,
}

func init() {
	boundsCmd.Flags().Bool("json", false, "print JSON")
}

// boundsReport is what the bounds command prints.
type boundsReport struct {
	Origin string         `json:"origin"`
	Bounds bounds.Bounds  `json:"bounds"`
	Walls  [4]bounds.Wall `json:"walls"`
}

func runBounds(cmd *cobra.Command, args []string) error {
	logger := log.L()
	var src tour.StopDataSource = buildSource(cfg, logger)
	if len(args) == 1 {
		src = &tour.FileSource{Path: args[0]}
	}

	report := boundsReport{Origin: "fallback", Bounds: fallbackBounds(cfg, logger)}
	stops, err := src.Load(cmd.Context())
	if err != nil {
		logger.Warn("stops unavailable", "source", src.Name(), "error", err)
	} else if b, ok := bounds.ComputeFromStops(stops, cfg.Bounds.Padding, cfg.Bounds.FloorY); ok {
		report.Origin = "stops"
		report.Bounds = b
	}
	report.Bounds = session.ApplyTweaks(report.Bounds, cfg.Bounds.Tweaks)
	report.Walls = bounds.Walls(report.Bounds, bounds.DefaultWallThickness, bounds.DefaultWallHeight)

	asJSON, _ := cmd.Flags().GetBool("json")
	return printBounds(cmd.OutOrStdout(), report, asJSON)
}

func printBounds(w io.Writer, r boundsReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(w, "origin: %s\n", r.Origin)
	fmt.Fprintf(w, "bounds: %s\n", r.Bounds)
	fmt.Fprintf(w, "size:   %.2f x %.2f\n", r.Bounds.Width(), r.Bounds.Depth())
	for _, wall := range r.Walls {
		fmt.Fprintf(w, "wall %-5s center=(%.2f, %.2f, %.2f)\n", wall.Name, wall.Center.X(), wall.Center.Y(), wall.Center.Z())
	}
	return nil
}
