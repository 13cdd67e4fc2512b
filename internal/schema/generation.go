// Package schema reconciles the two raw trending-video layouts onto one
// canonical column set.
package schema

import (
	"path/filepath"
	"strings"
	"time"
)

// Generation identifies which raw layout a video file uses.
type Generation int

const (
	NewGeneration Generation = iota
	OldGeneration
)

func (g Generation) String() string {
	switch g {
	case NewGeneration:
		return "new"
	case OldGeneration:
		return "old"
	default:
		return "unknown"
	}
}

// Markers checked against the lowercased base filename. New-generation
// markers win over the old-generation one, so "us_videos_new.csv" is new
// while "USvideos.csv" and "gb_videos_old.csv" are old.
var (
	newGenerationMarkers = []string{"_new", "trending_data"}
	oldGenerationMarker  = "videos"
)

// Detect infers the generation from a file path. Files matching no marker
// are treated as the new generation.
func Detect(path string) Generation {
	name := strings.ToLower(filepath.Base(path))
	for _, m := range newGenerationMarkers {
		if strings.Contains(name, m) {
			return NewGeneration
		}
	}
	if strings.Contains(name, oldGenerationMarker) {
		return OldGeneration
	}
	return NewGeneration
}

// SourceColumns is the raw column list this generation is expected to carry.
func (g Generation) SourceColumns() []string {
	if g == OldGeneration {
		return OldColumns
	}
	return Columns
}

// ParseTrendingDate decodes the trending-date cell for this generation,
// always returning a UTC instant.
func (g Generation) ParseTrendingDate(value string) (time.Time, error) {
	if g == OldGeneration {
		return time.ParseInLocation(TrendingKeyLayout, strings.TrimSpace(value), time.UTC)
	}
	return ParseTimestamp(value)
}
