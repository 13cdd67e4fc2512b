package star

import (
	"time"

	"trending_etl/internal/model"
)

// TimeDim holds the calendar parts of one instant. Weekday counts from
// Monday = 0; Week is the ISO week number.
type TimeDim struct {
	Timestamp time.Time
	Hour      int
	Minute    int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   int
}

func NewTimeDim(t time.Time) TimeDim {
	t = t.UTC().Truncate(time.Second)
	_, week := t.ISOWeek()
	return TimeDim{
		Timestamp: t,
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}

// BuildTimeDim covers the union of every published and trending instant,
// one row per rendered second.
func BuildTimeDim(videos []model.Video) []TimeDim {
	rows := make([]TimeDim, 0, 2*len(videos))
	for _, v := range videos {
		rows = append(rows, NewTimeDim(v.PublishedAt))
	}
	for _, v := range videos {
		rows = append(rows, NewTimeDim(v.TrendingDate))
	}
	return firstBy(rows, func(d TimeDim) int64 { return d.Timestamp.Unix() })
}
