package star

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trending_etl/internal/keygen"
	"trending_etl/internal/model"
	"trending_etl/internal/quality"
)

func video(natural, channel, country, tags string, published, trending time.Time) model.Video {
	v := model.Video{
		NaturalID:     natural,
		Title:         natural + " title",
		ChannelTitle:  channel,
		CountryCode:   country,
		RawCategoryID: "24",
		PublishedAt:   published,
		TrendingDate:  trending,
		ViewCount:     sql.NullInt64{Int64: 10, Valid: true},
	}
	if tags != "" {
		v.Tags = sql.NullString{String: tags, Valid: true}
	}
	v.ChannelID = keygen.ChannelID(channel)
	v.VideoID = keygen.Join(natural, v.ChannelID, v.Title, tags, published.Format(time.RFC3339))
	v.CategoryID = keygen.CategoryID("24", country)
	v.CountryID = keygen.CountryID(country)
	v.ID = keygen.HashJoin(v.ChannelID, v.VideoID, country, trending.Format("06.02.01"))
	return v
}

var (
	pub1 = time.Date(2020, 8, 11, 19, 20, 14, 0, time.UTC)
	pub2 = time.Date(2020, 8, 10, 8, 0, 0, 0, time.UTC)
	day1 = time.Date(2020, 8, 12, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2020, 8, 13, 0, 0, 0, 0, time.UTC)
)

func sampleVideos() []model.Video {
	a1 := video("A", "Chan", "US", "a|b|a", pub1, day1)
	a2 := video("A", "Chan", "US", "a|b|a", pub1, day2)
	b1 := video("B", "Other", "GB", "", pub2, day1)
	c1 := video("C", "Chan", "ZZ", "b|c", pub2, day2)
	dupA1 := a1
	dupA1.ViewCount = sql.NullInt64{Int64: 99, Valid: true}
	return []model.Video{a1, a2, b1, c1, dupA1}
}

func TestBuildFact(t *testing.T) {
	videos := sampleVideos()
	facts := BuildFact(videos)
	require.Len(t, facts, 4)
	assert.Equal(t, videos[0].ID, facts[0].TrendingID)
	assert.Equal(t, int64(10), facts[0].ViewCount.Int64, "first occurrence wins")
	assert.Equal(t, videos[0].CategoryID, facts[0].CategoryID)
}

func TestBuildVideoDim(t *testing.T) {
	dims := BuildVideoDim(sampleVideos())
	require.Len(t, dims, 3)
	assert.Equal(t, "A title", dims[0].Title)
	assert.Equal(t, keygen.Hash("Chan"), dims[0].ChannelID)
}

func TestBuildChannelDim(t *testing.T) {
	dims := BuildChannelDim(sampleVideos())
	require.Len(t, dims, 2)

	ids := map[string]bool{}
	for _, d := range dims {
		assert.Equal(t, keygen.Hash(d.ChannelTitle), d.ChannelID)
		ids[d.ChannelID] = true
	}
	assert.Len(t, ids, 2, "unique on channel_title implies unique on channel_id")
}

func TestBuildCountryDim(t *testing.T) {
	dims := BuildCountryDim(sampleVideos())
	require.Len(t, dims, 3)

	byCode := map[string]CountryDim{}
	for _, d := range dims {
		byCode[d.CountryCode] = d
	}
	assert.Equal(t, "United States", byCode["US"].CountryName)
	assert.Equal(t, "Great Britain", byCode["GB"].CountryName)
	assert.Equal(t, "ZZ", byCode["ZZ"].CountryName)
	assert.Equal(t, keygen.Hash("ZZ"), byCode["ZZ"].CountryID)
}

func TestBuildTimeDim(t *testing.T) {
	videos := sampleVideos()
	dims := BuildTimeDim(videos)

	byTS := map[time.Time]TimeDim{}
	for _, d := range dims {
		_, dup := byTS[d.Timestamp]
		require.False(t, dup, "timestamp %s appears twice", d.Timestamp)
		byTS[d.Timestamp] = d
	}
	for _, v := range videos {
		assert.Contains(t, byTS, v.PublishedAt)
		assert.Contains(t, byTS, v.TrendingDate)
	}
	assert.Len(t, dims, 4)

	d := byTS[pub1]
	assert.Equal(t, 19, d.Hour)
	assert.Equal(t, 20, d.Minute)
	assert.Equal(t, 11, d.Day)
	assert.Equal(t, 33, d.Week)
	assert.Equal(t, 8, d.Month)
	assert.Equal(t, 2020, d.Year)
	assert.Equal(t, 1, d.Weekday, "2020-08-11 is a Tuesday")
}

func TestBuildTimeDimSubSecondInstantsShareOneRow(t *testing.T) {
	a := video("A", "Chan", "US", "", pub1, day1)
	b := video("B", "Chan", "US", "", pub1.Add(500*time.Millisecond), day1)

	tables := Build([]model.Video{a, b}, nil).Tables()
	dimTime := tables[4]
	require.Equal(t, model.DimTime, dimTime.Name)
	assert.Len(t, dimTime.Rows, 2, "one published second plus one trending day")

	res := quality.Check(dimTime)
	assert.NoError(t, res.KeyErr)
	assert.NoError(t, res.DuplicateErr)
	assert.Equal(t, pub1, NewTimeDim(pub1.Add(999*time.Millisecond)).Timestamp)
}

func TestNewTimeDimISOWeekAcrossYearBoundary(t *testing.T) {
	d := NewTimeDim(time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 53, d.Week)
	assert.Equal(t, 2021, d.Year)
	assert.Equal(t, 6, d.Weekday, "Sunday")
}

func TestDecomposeTags(t *testing.T) {
	videos := sampleVideos()
	tags, links := DecomposeTags(videos)

	names := []string{}
	for _, tg := range tags {
		names = append(names, tg.TagName)
		assert.Equal(t, keygen.Hash(tg.TagName), tg.TagID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	perEvent := map[string][]string{}
	for _, l := range links {
		perEvent[l.TrendingID] = append(perEvent[l.TrendingID], l.TagID)
	}
	assert.ElementsMatch(t, []string{keygen.Hash("a"), keygen.Hash("b")}, perEvent[videos[0].ID],
		`"a|b|a" yields exactly two bridge rows`)
	assert.Len(t, perEvent[videos[1].ID], 2)
	assert.NotContains(t, perEvent, videos[2].ID, "null tags contribute nothing")
	assert.Len(t, links, 6)
}

func TestDecomposeTagsSkipsEmptyTokens(t *testing.T) {
	v := video("A", "Chan", "US", "x||y|", pub1, day1)
	tags, links := DecomposeTags([]model.Video{v})
	assert.Len(t, tags, 2)
	assert.Len(t, links, 2)
}

func TestBuildCategoryDim(t *testing.T) {
	cats := []model.Category{
		{CategoryID: keygen.CategoryID("1", "US"), RawID: "1", Name: "Film", CountryCode: "US"},
		{CategoryID: keygen.CategoryID("1", "US"), RawID: "1", Name: "Film again", CountryCode: "US"},
		{CategoryID: keygen.CategoryID("1", "GB"), RawID: "1", Name: "Film", CountryCode: "GB"},
	}
	dims := BuildCategoryDim(cats)
	require.Len(t, dims, 2)
	assert.Equal(t, "Film", dims[0].Name)
}

func TestTablesSatisfyQualityContract(t *testing.T) {
	cats := []model.Category{
		{CategoryID: keygen.CategoryID("24", "US"), RawID: "24", Name: "Entertainment", CountryCode: "US",
			Assignable: sql.NullBool{Bool: true, Valid: true}},
	}
	tables := Build(sampleVideos(), cats).Tables()
	require.Len(t, tables, len(model.TableOrder))

	for i, tbl := range tables {
		assert.Equal(t, model.TableOrder[i], tbl.Name)
		res := quality.Check(tbl)
		assert.NoError(t, res.KeyErr, tbl.Name)
		assert.NoError(t, res.DuplicateErr, tbl.Name)
		for _, row := range tbl.Rows {
			assert.Len(t, row, len(tbl.Columns), tbl.Name)
		}
	}
}

func TestTablesRendering(t *testing.T) {
	v := video("A", "Chan", "US", "", pub1, day1)
	v.CommentsDisabled = sql.NullBool{Bool: true, Valid: true}
	tables := Build([]model.Video{v}, nil).Tables()

	dimVideo := tables[2]
	require.Equal(t, model.DimVideo, dimVideo.Name)
	require.Len(t, dimVideo.Rows, 1)
	row := dimVideo.Rows[0]
	assert.Equal(t, "True", row[dimVideo.ColumnIndex("comments_disabled")].String)
	assert.False(t, row[dimVideo.ColumnIndex("ratings_disabled")].Valid)
	assert.Equal(t, "2020-08-11T19:20:14Z", row[dimVideo.ColumnIndex("published_at")].String)

	fact := tables[0]
	assert.Equal(t, "10", fact.Rows[0][fact.ColumnIndex("view_count")].String)
	assert.False(t, fact.Rows[0][fact.ColumnIndex("likes")].Valid)
	assert.Empty(t, tables[1].Rows)
}
