package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rshade/multiverse/internal/catalog"
)

// SortKey selects the order of displayed characters.
type SortKey string

// Supported sort keys.
const (
	SortNone         SortKey = "none"
	SortAlphabetical SortKey = "alphabetical"
	SortGender       SortKey = "gender"
)

// ErrInvalidSortKey is returned by ParseSortKey for unknown keys.
var ErrInvalidSortKey = errors.New("sort must be one of none, alphabetical, gender")

// genderUnranked is the rank of any gender outside the known set.
const genderUnranked = 5

//nolint:gochecknoglobals // Constant lookup table
var genderRank = map[catalog.Gender]int{
	catalog.GenderMale:       1,
	catalog.GenderFemale:     2,
	catalog.GenderUnknown:    3,
	catalog.GenderGenderless: 4,
}

// SortKeys lists the sort keys in display order.
func SortKeys() []SortKey {
	return []SortKey{SortNone, SortAlphabetical, SortGender}
}

// ParseSortKey parses a sort key case-insensitively. Empty means SortNone.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if key == "" {
		return SortNone, nil
	}
	for _, k := range SortKeys() {
		if k == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidSortKey, s)
}

// Label returns the display form of the key.
func (k SortKey) Label() string {
	switch k {
	case SortAlphabetical:
		return "A-Z"
	case SortGender:
		return "Gender"
	default:
		return "None"
	}
}

// SortCharacters returns a new slice ordered by key. Alphabetical uses
// English collation; gender orders Male, Female, unknown, Genderless, then
// anything else. Both are stable. Any other key keeps the input order.
func SortCharacters(characters []catalog.Character, key SortKey) []catalog.Character {
	sorted := make([]catalog.Character, len(characters))
	copy(sorted, characters)

	switch key {
	case SortAlphabetical:
		// Collators keep scratch buffers and are not safe to share.
		col := collate.New(language.English)
		sort.SliceStable(sorted, func(i, j int) bool {
			return col.CompareString(sorted[i].Name, sorted[j].Name) < 0
		})
	case SortGender:
		sort.SliceStable(sorted, func(i, j int) bool {
			return GenderRank(sorted[i].Gender) < GenderRank(sorted[j].Gender)
		})
	case SortNone:
	}

	return sorted
}

// GenderRank returns the precedence of g under SortGender.
func GenderRank(g catalog.Gender) int {
	if rank, ok := genderRank[g]; ok {
		return rank
	}
	return genderUnranked
}
