// Package star decomposes the unified video table into the trending fact
// table and its dimension and bridge tables.
package star

import (
	"trending_etl/internal/model"
)

// Schema is the full star schema derived from one run's inputs.
type Schema struct {
	Facts      []TrendingFact
	Categories []model.Category
	Videos     []VideoDim
	Channels   []ChannelDim
	Times      []TimeDim
	Countries  []CountryDim
	Tags       []TagDim
	TagLinks   []TagBridge
}

// Build runs every extractor. Extractors are independent projections of
// the same inputs.
func Build(videos []model.Video, categories []model.Category) *Schema {
	tags, links := DecomposeTags(videos)
	return &Schema{
		Facts:      BuildFact(videos),
		Categories: BuildCategoryDim(categories),
		Videos:     BuildVideoDim(videos),
		Channels:   BuildChannelDim(videos),
		Times:      BuildTimeDim(videos),
		Countries:  BuildCountryDim(videos),
		Tags:       tags,
		TagLinks:   links,
	}
}

func str(name string) model.Column  { return model.Column{Name: name, Kind: model.KindString} }
func num(name string) model.Column  { return model.Column{Name: name, Kind: model.KindInt} }
func flag(name string) model.Column { return model.Column{Name: name, Kind: model.KindBool} }
func ts(name string) model.Column   { return model.Column{Name: name, Kind: model.KindTimestamp} }

func newTable(name string, cols ...model.Column) model.Table {
	return model.Table{Name: name, Columns: cols, Key: model.PrimaryKeys[name]}
}

// Tables renders the schema in model.TableOrder.
func (s *Schema) Tables() []model.Table {
	fact := newTable(model.FactTrendingVideo,
		str("trending_id"), str("video_id"), str("category_id"), str("country_id"), ts("trending_date"),
		num("view_count"), num("likes"), num("dislikes"), num("comment_count"))
	for _, f := range s.Facts {
		fact.Rows = append(fact.Rows, []model.Cell{
			model.Str(f.TrendingID), model.Str(f.VideoID), model.Str(f.CategoryID), model.Str(f.CountryID),
			model.Time(f.TrendingDate), model.NullableInt(f.ViewCount), model.NullableInt(f.Likes),
			model.NullableInt(f.Dislikes), model.NullableInt(f.CommentCount),
		})
	}

	category := newTable(model.DimCategory,
		str("category_id"), str("category_name"), flag("category_assignable"), str("country_code"))
	for _, c := range s.Categories {
		category.Rows = append(category.Rows, []model.Cell{
			model.Str(c.CategoryID), model.Str(c.Name), model.NullableBool(c.Assignable), model.Str(c.CountryCode),
		})
	}

	video := newTable(model.DimVideo,
		str("video_id"), str("video_title"), flag("comments_disabled"), flag("ratings_disabled"),
		str("thumbnail_link"), str("video_description"), ts("published_at"), str("channel_id"))
	for _, v := range s.Videos {
		video.Rows = append(video.Rows, []model.Cell{
			model.Str(v.VideoID), model.Str(v.Title), model.NullableBool(v.CommentsDisabled),
			model.NullableBool(v.RatingsDisabled), model.Str(v.ThumbnailLink), model.NullableStr(v.Description),
			model.Time(v.PublishedAt), model.Str(v.ChannelID),
		})
	}

	channel := newTable(model.DimChannel, str("channel_id"), str("channel_title"))
	for _, c := range s.Channels {
		channel.Rows = append(channel.Rows, []model.Cell{model.Str(c.ChannelID), model.Str(c.ChannelTitle)})
	}

	timeDim := newTable(model.DimTime,
		ts("timestamp"), num("hour"), num("minutes"), num("day"), num("week"), num("month"), num("year"), num("weekday"))
	for _, d := range s.Times {
		timeDim.Rows = append(timeDim.Rows, []model.Cell{
			model.Time(d.Timestamp), model.Int(d.Hour), model.Int(d.Minute), model.Int(d.Day),
			model.Int(d.Week), model.Int(d.Month), model.Int(d.Year), model.Int(d.Weekday),
		})
	}

	country := newTable(model.DimCountry, str("country_id"), str("country_name"), str("country_code"))
	for _, c := range s.Countries {
		country.Rows = append(country.Rows, []model.Cell{model.Str(c.CountryID), model.Str(c.CountryName), model.Str(c.CountryCode)})
	}

	tag := newTable(model.DimTag, str("tag_id"), str("tag_name"))
	for _, t := range s.Tags {
		tag.Rows = append(tag.Rows, []model.Cell{model.Str(t.TagID), model.Str(t.TagName)})
	}

	bridge := newTable(model.DimTagPerVideo, str("trending_id"), str("tag_id"))
	for _, l := range s.TagLinks {
		bridge.Rows = append(bridge.Rows, []model.Cell{model.Str(l.TrendingID), model.Str(l.TagID)})
	}

	return []model.Table{fact, category, video, channel, timeDim, country, tag, bridge}
}
