package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical column names, in raw order.
const (
	ColVideoID          = "video_id"
	ColTitle            = "title"
	ColPublishedAt      = "publishedAt"
	ColChannelTitle     = "channelTitle"
	ColCategoryID       = "categoryId"
	ColTrendingDate     = "trending_date"
	ColTags             = "tags"
	ColViewCount        = "view_count"
	ColLikes            = "likes"
	ColDislikes         = "dislikes"
	ColCommentCount     = "comment_count"
	ColThumbnailLink    = "thumbnail_link"
	ColCommentsDisabled = "comments_disabled"
	ColRatingsDisabled  = "ratings_disabled"
	ColDescription      = "description"
)

// Columns is the unified column set every file is reconciled onto.
var Columns = []string{
	ColVideoID,
	ColTitle,
	ColPublishedAt,
	ColChannelTitle,
	ColCategoryID,
	ColTrendingDate,
	ColTags,
	ColViewCount,
	ColLikes,
	ColDislikes,
	ColCommentCount,
	ColThumbnailLink,
	ColCommentsDisabled,
	ColRatingsDisabled,
	ColDescription,
}

// OldColumns is the old-generation layout; it maps onto Columns by position.
var OldColumns = []string{
	"video_id",
	"title",
	"publish_time",
	"channel_title",
	"category_id",
	"trending_date",
	"tags",
	"views",
	"likes",
	"dislikes",
	"comment_count",
	"thumbnail_link",
	"comments_disabled",
	"ratings_disabled",
	"description",
}

// ErrMissingColumn reports a raw file lacking an expected column.
var ErrMissingColumn = errors.New("missing expected column")

// MissingColumnError names the file and raw column that could not be found.
type MissingColumnError struct {
	File   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.File, ErrMissingColumn, e.Column)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// Index maps canonical column names to positions in a raw record.
type Index map[string]int

// Get returns the cell for a canonical column.
func (ix Index) Get(record []string, col string) string {
	i, ok := ix[col]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// Reconcile renames a raw header onto the canonical columns. Every column
// of the generation's layout must be present; extra columns are ignored.
func (g Generation) Reconcile(file string, header []string) (Index, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
	}
	ix := make(Index, len(Columns))
	for i, src := range g.SourceColumns() {
		pos, ok := positions[src]
		if !ok {
			return nil, &MissingColumnError{File: file, Column: src}
		}
		ix[Columns[i]] = pos
	}
	return ix, nil
}
