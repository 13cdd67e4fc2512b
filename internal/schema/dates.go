package schema

import (
	"fmt"
	"strings"
	"time"
)

const (
	// PublishedKeyLayout renders published_at for key derivation.
	PublishedKeyLayout = "2006-01-02T15:04:05Z"
	// TrendingKeyLayout is the compact yy.dd.mm trending-date encoding.
	TrendingKeyLayout = "06.02.01"
)

// timestampLayouts are tried in order for cells without an explicit format.
// The compact trending layout comes last.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	TrendingKeyLayout,
}

// ParseTimestamp parses a timestamp cell in any of the known encodings.
// Values without an offset are taken as UTC. The result is UTC truncated
// to whole seconds, the precision timestamps are keyed and written at.
func ParseTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// PublishedKey formats a published instant for key derivation.
func PublishedKey(t time.Time) string {
	return t.UTC().Format(PublishedKeyLayout)
}

// TrendingKey formats a trending date for key derivation.
func TrendingKey(t time.Time) string {
	return t.UTC().Format(TrendingKeyLayout)
}
