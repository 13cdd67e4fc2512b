package keygen

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Separator joins the component values of a composite key.
const Separator = "_"

// Hash returns the lowercase hex SHA-1 digest of value.
func Hash(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Join concatenates key components in the given order.
func Join(parts ...string) string {
	return strings.Join(parts, Separator)
}

// HashJoin hashes the joined components.
func HashJoin(parts ...string) string {
	return Hash(Join(parts...))
}

// CategoryID keys a category by its raw id and country code. Video and
// category ingestion both derive it here so the two sides agree.
func CategoryID(rawCategoryID, countryCode string) string {
	return HashJoin(rawCategoryID, countryCode)
}

// CountryID keys a country by its code alone.
func CountryID(countryCode string) string {
	return Hash(countryCode)
}

// ChannelID keys a channel by its title.
func ChannelID(channelTitle string) string {
	return Hash(channelTitle)
}

// TagID keys a tag by its literal text.
func TagID(tag string) string {
	return Hash(tag)
}
