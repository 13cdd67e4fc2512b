// Package model holds the unified video records and the rendered star-schema tables.
package model

import (
	"database/sql"
	"time"
)

// Video is one reconciled trending observation: a video seen trending in
// one country on one day. Key fields are derived during ingestion.
type Video struct {
	NaturalID        string
	Title            string
	PublishedAt      time.Time
	ChannelTitle     string
	RawCategoryID    string
	TrendingDate     time.Time
	Tags             sql.NullString
	ViewCount        sql.NullInt64
	Likes            sql.NullInt64
	Dislikes         sql.NullInt64
	CommentCount     sql.NullInt64
	ThumbnailLink    string
	CommentsDisabled sql.NullBool
	RatingsDisabled  sql.NullBool
	Description      sql.NullString
	CountryCode      string

	ChannelID  string
	VideoID    string
	CategoryID string
	ID         string
	CountryID  string
}

// Category is one entry of a per-country category catalog.
type Category struct {
	CategoryID  string
	RawID       string
	Name        string
	Assignable  sql.NullBool
	CountryCode string
}
