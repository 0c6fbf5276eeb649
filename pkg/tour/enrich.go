package tour

import (
	"fmt"
	"os"
	"strings"
)

// Metadata is the painting record patched into a stop.
type Metadata struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
}

// MetadataEnricher looks up painting metadata by stop code.
type MetadataEnricher interface {
	Lookup(code string) (Metadata, bool)
}

// MapEnricher is an in-memory enricher keyed by lower-case code.
type MapEnricher map[string]Metadata

// Lookup implements MetadataEnricher.
func (m MapEnricher) Lookup(code string) (Metadata, bool) {
	md, ok := m[strings.ToLower(strings.TrimSpace(code))]
	return md, ok
}

// LoadMetadata reads a JSON or YAML object of code -> metadata.
func LoadMetadata(path string) (MapEnricher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tour: read metadata: %w", err)
	}
	raw := map[string]Metadata{}
	if err := decodeInto(data, FormatFromPath(path), &raw); err != nil {
		return nil, fmt.Errorf("tour: metadata %s: %w", path, err)
	}
	m := make(MapEnricher, len(raw))
	for k, v := range raw {
		m[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return m, nil
}

// Enrich patches title, description and image of each stop in place from e.
// Empty metadata fields leave the stop untouched. It returns how many stops matched.
func Enrich(stops []Stop, e MetadataEnricher) int {
	if e == nil {
		return 0
	}
	n := 0
	for i := range stops {
		md, ok := e.Lookup(DeriveCode(stops[i]))
		if !ok {
			continue
		}
		n++
		if md.Title != "" {
			stops[i].Title = md.Title
		}
		if md.Description != "" {
			stops[i].Description = md.Description
		}
		if md.Image != "" {
			stops[i].ImageRef = md.Image
		}
	}
	return n
}
