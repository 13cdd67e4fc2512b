package star

import (
	"strings"

	"trending_etl/internal/keygen"
	"trending_etl/internal/model"
)

// TagDelimiter separates tags inside the raw tag string.
const TagDelimiter = "|"

type TagDim struct {
	TagID   string
	TagName string
}

// TagBridge links a trending event to one of its tags.
type TagBridge struct {
	TrendingID string
	TagID      string
}

// DecomposeTags explodes every tag string into the tag dictionary and the
// bridge table. Both outputs keep first-seen order and are unique on their
// keys. Null tag strings and empty tokens contribute nothing.
func DecomposeTags(videos []model.Video) ([]TagDim, []TagBridge) {
	dict := make(map[string]string)
	linked := make(map[TagBridge]struct{})
	var (
		tags   []TagDim
		bridge []TagBridge
	)
	for _, v := range videos {
		if !v.Tags.Valid {
			continue
		}
		for _, tag := range strings.Split(v.Tags.String, TagDelimiter) {
			if tag == "" {
				// empty tokens from "a||b" or a trailing delimiter are not tags
				continue
			}
			id, ok := dict[tag]
			if !ok {
				id = keygen.TagID(tag)
				dict[tag] = id
				tags = append(tags, TagDim{TagID: id, TagName: tag})
			}
			link := TagBridge{TrendingID: v.ID, TagID: id}
			if _, dup := linked[link]; dup {
				continue
			}
			linked[link] = struct{}{}
			bridge = append(bridge, link)
		}
	}
	return tags, bridge
}
