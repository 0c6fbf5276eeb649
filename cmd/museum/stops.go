package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/tour"
)

var stopsCmd = &cobra.Command{
	Use:   "stops [stop-file]",
	Short: "Validate and list a stop list",
	Long: `stops loads a stop file (or the configured stop sources), applies the
painting metadata and lists every stop with its timings. Stops whose
position, target or rotation cannot be parsed are reported and make the
command fail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStops,
}

// errInvalidStops is returned when at least one stop failed validation.
var errInvalidStops = errors.New("stop list has invalid stops")

func runStops(cmd *cobra.Command, args []string) error {
	var src tour.StopDataSource = buildSource(cfg, log.L())
	if len(args) == 1 {
		src = &tour.FileSource{Path: args[0]}
	}

	stops, err := src.Load(cmd.Context())
	if err != nil {
		return err
	}
	enricher, err := loadEnricher(cfg)
	if err != nil {
		return err
	}
	matched := 0
	if enricher != nil {
		matched = tour.Enrich(stops, enricher)
	}

	out := cmd.OutOrStdout()
	bad := listStops(out, stops)
	fmt.Fprintf(out, "\n%d stops from %s, %d enriched, %d invalid\n", len(stops), src.Name(), matched, bad)
	if bad > 0 {
		return errInvalidStops
	}
	return nil
}

// listStops prints one row per stop and returns how many failed validation.
func listStops(w io.Writer, stops []tour.Stop) int {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCODE\tTITLE\tPOS\tMOVE\tLOOK\tWAIT\tPROBLEM")
	bad := 0
	for _, st := range stops {
		problem := validateStop(st)
		if problem != "" {
			bad++
		}
		pos := "-"
		if p, err := st.Location(); err == nil {
			pos = geom.FormatVec3(p)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			st.Index+1, tour.DeriveCode(st), st.Title, pos,
			st.MoveDuration(), st.LookDuration(), st.WaitDuration(), problem)
	}
	tw.Flush()
	return bad
}

// validateStop returns a short description of what is wrong with st, or "".
func validateStop(st tour.Stop) string {
	if _, err := st.Location(); err != nil {
		if !errors.Is(err, tour.ErrNoPosition) {
			return err.Error()
		}
	}
	if _, _, _, err := st.ExplicitRotation(); err != nil {
		return err.Error()
	}
	return ""
}
