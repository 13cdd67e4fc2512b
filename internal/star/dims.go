package star

import (
	"database/sql"
	"time"

	"trending_etl/internal/model"
)

type VideoDim struct {
	VideoID          string
	Title            string
	CommentsDisabled sql.NullBool
	RatingsDisabled  sql.NullBool
	ThumbnailLink    string
	Description      sql.NullString
	PublishedAt      time.Time
	ChannelID        string
}

type ChannelDim struct {
	ChannelID    string
	ChannelTitle string
}

type CountryDim struct {
	CountryID   string
	CountryName string
	CountryCode string
}

// countryNames maps the known extract countries to display names.
var countryNames = map[string]string{
	"BR": "Brazil",
	"CA": "Canada",
	"DE": "Germany",
	"FR": "France",
	"GB": "Great Britain",
	"IN": "India",
	"JP": "Japan",
	"KR": "South Korea",
	"MX": "Mexico",
	"RU": "Russia",
	"US": "United States",
}

// CountryName resolves a code, passing unknown codes through unchanged.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}

// BuildVideoDim keeps the first-seen descriptive attributes per video_id.
func BuildVideoDim(videos []model.Video) []VideoDim {
	rows := make([]VideoDim, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, VideoDim{
			VideoID:          v.VideoID,
			Title:            v.Title,
			CommentsDisabled: v.CommentsDisabled,
			RatingsDisabled:  v.RatingsDisabled,
			ThumbnailLink:    v.ThumbnailLink,
			Description:      v.Description,
			PublishedAt:      v.PublishedAt,
			ChannelID:        v.ChannelID,
		})
	}
	return firstBy(rows, func(d VideoDim) string { return d.VideoID })
}

// BuildChannelDim deduplicates on channel_title. channel_id is a pure hash
// of the title, so this is also unique on channel_id.
func BuildChannelDim(videos []model.Video) []ChannelDim {
	rows := make([]ChannelDim, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, ChannelDim{ChannelID: v.ChannelID, ChannelTitle: v.ChannelTitle})
	}
	return firstBy(rows, func(d ChannelDim) string { return d.ChannelTitle })
}

func BuildCountryDim(videos []model.Video) []CountryDim {
	rows := make([]CountryDim, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, CountryDim{
			CountryID:   v.CountryID,
			CountryName: CountryName(v.CountryCode),
			CountryCode: v.CountryCode,
		})
	}
	return firstBy(rows, func(d CountryDim) string { return d.CountryID })
}

// BuildCategoryDim deduplicates already-ingested categories by category_id.
func BuildCategoryDim(categories []model.Category) []model.Category {
	return firstBy(categories, func(c model.Category) string { return c.CategoryID })
}
