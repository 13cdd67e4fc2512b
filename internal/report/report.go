// Package report renders column profiles of the unified ingestion tables
// as markdown for exploratory analysis.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trending_etl/internal/model"
)

// Unified table names used for report files.
const (
	Videos     = "videos"
	Categories = "categories"
)

const maxValueWidth = 40

// ColumnProfile summarises one column.
type ColumnProfile struct {
	Name     string
	Nulls    int
	Distinct int
	Top      string
	TopCount int
}

// VideoTable renders the unified video table.
func VideoTable(videos []model.Video) model.Table {
	t := model.Table{
		Name: Videos,
		Columns: []model.Column{
			{Name: "video_id"}, {Name: "title"}, {Name: "published_at", Kind: model.KindTimestamp},
			{Name: "channel_title"}, {Name: "category_id"}, {Name: "trending_date", Kind: model.KindTimestamp},
			{Name: "tags"}, {Name: "view_count", Kind: model.KindInt}, {Name: "likes", Kind: model.KindInt},
			{Name: "dislikes", Kind: model.KindInt}, {Name: "comment_count", Kind: model.KindInt},
			{Name: "thumbnail_link"}, {Name: "comments_disabled", Kind: model.KindBool},
			{Name: "ratings_disabled", Kind: model.KindBool}, {Name: "description"}, {Name: "country_code"},
		},
	}
	for _, v := range videos {
		t.Rows = append(t.Rows, []model.Cell{
			model.Str(v.NaturalID), model.Str(v.Title), model.Time(v.PublishedAt),
			model.Str(v.ChannelTitle), model.Str(v.RawCategoryID), model.Time(v.TrendingDate),
			model.NullableStr(v.Tags), model.NullableInt(v.ViewCount), model.NullableInt(v.Likes),
			model.NullableInt(v.Dislikes), model.NullableInt(v.CommentCount),
			model.Str(v.ThumbnailLink), model.NullableBool(v.CommentsDisabled),
			model.NullableBool(v.RatingsDisabled), model.NullableStr(v.Description), model.Str(v.CountryCode),
		})
	}
	return t
}

// CategoryTable renders the unified category table.
func CategoryTable(categories []model.Category) model.Table {
	t := model.Table{
		Name: Categories,
		Columns: []model.Column{
			{Name: "category_id"}, {Name: "raw_id"}, {Name: "category_name"},
			{Name: "category_assignable", Kind: model.KindBool}, {Name: "country_code"},
		},
	}
	for _, c := range categories {
		t.Rows = append(t.Rows, []model.Cell{
			model.Str(c.CategoryID), model.Str(c.RawID), model.Str(c.Name),
			model.NullableBool(c.Assignable), model.Str(c.CountryCode),
		})
	}
	return t
}

// Profile computes per-column statistics. The top value is the most
// frequent non-null value, ties going to the lexically smallest.
func Profile(t model.Table) []ColumnProfile {
	out := make([]ColumnProfile, len(t.Columns))
	for i, col := range t.Columns {
		p := ColumnProfile{Name: col.Name}
		counts := map[string]int{}
		for _, row := range t.Rows {
			if !row[i].Valid {
				p.Nulls++
				continue
			}
			counts[row[i].String]++
		}
		p.Distinct = len(counts)
		for v, n := range counts {
			if n > p.TopCount || (n == p.TopCount && v < p.Top) {
				p.Top, p.TopCount = v, n
			}
		}
		out[i] = p
	}
	return out
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func cellText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if r := []rune(s); len(r) > maxValueWidth {
		s = string(r[:maxValueWidth]) + "..."
	}
	return s
}

// Markdown renders the profile of t.
func Markdown(t model.Table) string {
	lines := []string{
		fmt.Sprintf("# %s profile", t.Name),
		"",
		"## Dataset shape",
		fmt.Sprintf("- Rows: %d", len(t.Rows)),
		fmt.Sprintf("- Columns: %d", len(t.Columns)),
		"",
		"## Columns",
		"",
		"| column | nulls | null % | distinct | top value | top count |",
		"|---|---|---|---|---|---|",
	}
	profiles := Profile(t)
	for _, p := range profiles {
		lines = append(lines, fmt.Sprintf("| `%s` | %d | %.1f%% | %d | %s | %d |",
			p.Name, p.Nulls, pct(p.Nulls, len(t.Rows)), p.Distinct, cellText(p.Top), p.TopCount))
	}

	lines = append(lines, "", "## Missingness (columns with nulls, highest first)")
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Nulls > profiles[j].Nulls })
	missing := false
	for _, p := range profiles {
		if p.Nulls == 0 {
			break
		}
		missing = true
		lines = append(lines, fmt.Sprintf("- `%s`: %.1f%% null", p.Name, pct(p.Nulls, len(t.Rows))))
	}
	if !missing {
		lines = append(lines, "- none")
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteDir writes <table>.md for each table into dir.
func WriteDir(dir string, tables ...model.Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".md")
		if err := os.WriteFile(path, []byte(Markdown(t)), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
