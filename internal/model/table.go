package model

import (
	"database/sql"
	"strconv"
	"time"
)

// Output table names.
const (
	FactTrendingVideo = "fact_trending_video"
	DimCategory       = "dim_category"
	DimVideo          = "dim_video"
	DimChannel        = "dim_channel"
	DimTime           = "dim_time"
	DimCountry        = "dim_country"
	DimTag            = "dim_tag"
	DimTagPerVideo    = "dim_tag_per_video"
)

// TableOrder is the order tables are written and checked in.
var TableOrder = []string{
	FactTrendingVideo,
	DimCategory,
	DimVideo,
	DimChannel,
	DimTime,
	DimCountry,
	DimTag,
	DimTagPerVideo,
}

// PrimaryKeys declares the key columns of every output table.
var PrimaryKeys = map[string][]string{
	FactTrendingVideo: {"trending_id"},
	DimCategory:       {"category_id"},
	DimVideo:          {"video_id"},
	DimChannel:        {"channel_id"},
	DimTime:           {"timestamp"},
	DimCountry:        {"country_id"},
	DimTag:            {"tag_id"},
	DimTagPerVideo:    {"tag_id", "trending_id"},
}

// Kind is the logical type of a column, used by typed sinks.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTimestamp
)

type Column struct {
	Name string
	Kind Kind
}

// Cell is a nullable rendered value.
type Cell = sql.NullString

// Table is a flat, rendered output table.
type Table struct {
	Name    string
	Columns []Column
	Key     []string
	Rows    [][]Cell
}

func (t Table) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// ColumnIndex returns the position of a column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// TimestampLayout renders timestamp cells.
const TimestampLayout = time.RFC3339

func Str(s string) Cell { return Cell{String: s, Valid: true} }

func NullableStr(v sql.NullString) Cell { return v }

func Int(v int) Cell { return Str(strconv.Itoa(v)) }

func NullableInt(v sql.NullInt64) Cell {
	if !v.Valid {
		return Cell{}
	}
	return Str(strconv.FormatInt(v.Int64, 10))
}

func NullableBool(v sql.NullBool) Cell {
	if !v.Valid {
		return Cell{}
	}
	if v.Bool {
		return Str("True")
	}
	return Str("False")
}

func Time(t time.Time) Cell { return Str(t.UTC().Format(TimestampLayout)) }
