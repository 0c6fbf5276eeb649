package tour

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads the stop list from a curator-maintained Google Sheet. The
// first row is a header naming the stop fields (title, desc, pos, target, rot,
// moveDur, lookDur, wait, audio, image, code); every following non-empty row is
// a stop.
type SheetsSource struct {
	SpreadsheetID string
	// Range is an A1 range such as "Stops!A1:K100".
	Range string
	// CredentialsFile is a service-account JSON key. When empty, APIKey is used.
	CredentialsFile string
	APIKey          string
}

// Name implements StopDataSource.
func (s *SheetsSource) Name() string { return "sheets" }

// Load implements StopDataSource.
func (s *SheetsSource) Load(ctx context.Context) ([]Stop, error) {
	srv, err := s.service(ctx)
	if err != nil {
		return nil, wrapSource(s.Name(), err)
	}
	resp, err := srv.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).Context(ctx).Do()
	if err != nil {
		return nil, wrapSource(s.Name(), fmt.Errorf("read %s %s: %w", s.SpreadsheetID, s.Range, err))
	}
	stops, err := StopsFromRows(resp.Values)
	if err != nil {
		return nil, wrapSource(s.Name(), err)
	}
	return stops, nil
}

func (s *SheetsSource) service(ctx context.Context) (*sheets.Service, error) {
	if s.CredentialsFile != "" {
		key, err := os.ReadFile(s.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		return sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	}
	if s.APIKey != "" {
		return sheets.NewService(ctx, option.WithAPIKey(s.APIKey))
	}
	return nil, errors.New("no credentials file or API key configured")
}

// StopsFromRows converts sheet rows (header first) into stops.
func StopsFromRows(rows [][]interface{}) ([]Stop, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(fmt.Sprint(h)))
	}

	var stops []Stop
	for r, row := range rows[1:] {
		var st Stop
		empty := true
		for c, cell := range row {
			if c >= len(header) {
				break
			}
			v := strings.TrimSpace(fmt.Sprint(cell))
			if v == "" {
				continue
			}
			empty = false
			if err := setStopField(&st, header[c], v); err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
		}
		if !empty {
			stops = append(stops, st)
		}
	}
	return Indexed(stops), nil
}

func setStopField(st *Stop, field, v string) error {
	switch field {
	case "title":
		st.Title = v
	case "desc", "description":
		st.Description = v
	case "pos", "position":
		st.Position = v
	case "target":
		st.Target = v
	case "rot", "rotation":
		st.Rotation = v
	case "audio":
		st.AudioRef = v
	case "image":
		st.ImageRef = v
	case "code":
		st.Code = v
	case "movedur", "lookdur", "wait":
		ms, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		switch field {
		case "movedur":
			st.MoveDurMs = &ms
		case "lookdur":
			st.LookDurMs = &ms
		default:
			st.WaitMs = &ms
		}
	}
	return nil
}
