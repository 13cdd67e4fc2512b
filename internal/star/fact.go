package star

import (
	"database/sql"
	"time"

	"trending_etl/internal/model"
)

// TrendingFact is one trending event.
type TrendingFact struct {
	TrendingID   string
	VideoID      string
	CategoryID   string
	CountryID    string
	TrendingDate time.Time
	ViewCount    sql.NullInt64
	Likes        sql.NullInt64
	Dislikes     sql.NullInt64
	CommentCount sql.NullInt64
}

// BuildFact projects the unified videos onto the fact table, one row per
// trending_id, first occurrence wins.
func BuildFact(videos []model.Video) []TrendingFact {
	rows := make([]TrendingFact, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, TrendingFact{
			TrendingID:   v.ID,
			VideoID:      v.VideoID,
			CategoryID:   v.CategoryID,
			CountryID:    v.CountryID,
			TrendingDate: v.TrendingDate,
			ViewCount:    v.ViewCount,
			Likes:        v.Likes,
			Dislikes:     v.Dislikes,
			CommentCount: v.CommentCount,
		})
	}
	return firstBy(rows, func(f TrendingFact) string { return f.TrendingID })
}
