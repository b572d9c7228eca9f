package pagination

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine"
)

// ErrInvalidSortField is returned for an unknown --sort value.
var ErrInvalidSortField = errors.New("invalid sort field")

// sortAliases maps accepted spellings onto sort keys.
//
//nolint:gochecknoglobals // Constant lookup table
var sortAliases = map[string]engine.SortKey{
	"":             engine.SortNone,
	"none":         engine.SortNone,
	"alphabetical": engine.SortAlphabetical,
	"name":         engine.SortAlphabetical,
	"a-z":          engine.SortAlphabetical,
	"gender":       engine.SortGender,
}

// Sorter defines the interface for sorting characters.
type Sorter interface {
	// Sort returns a new slice of characters in the order of field.
	Sort(characters []catalog.Character, field string) []catalog.Character
	// IsValidField checks if the given field name is valid for sorting.
	IsValidField(field string) bool
	// GetValidFields returns a list of valid field names for sorting.
	GetValidFields() []string
}

// CharacterSorter implements Sorter for catalog.Character.
type CharacterSorter struct{}

// NewCharacterSorter creates a CharacterSorter.
func NewCharacterSorter() *CharacterSorter {
	return &CharacterSorter{}
}

// IsValidField checks if the field is valid for sorting.
func (s *CharacterSorter) IsValidField(field string) bool {
	_, ok := sortAliases[normalizeSort(field)]
	return ok
}

// GetValidFields returns all valid sort fields, aliases included.
func (s *CharacterSorter) GetValidFields() []string {
	fields := make([]string, 0, len(sortAliases))
	for field := range sortAliases {
		if field != "" {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields) // Return in consistent order
	return fields
}

// Sort returns a new sorted slice; the original is not modified.
// An invalid field keeps the input order.
func (s *CharacterSorter) Sort(characters []catalog.Character, field string) []catalog.Character {
	key, ok := sortAliases[normalizeSort(field)]
	if !ok {
		key = engine.SortNone
	}
	return engine.SortCharacters(characters, key)
}

// ParseSort parses a --sort value into a sort key.
func ParseSort(expr string) (engine.SortKey, error) {
	key, ok := sortAliases[normalizeSort(expr)]
	if !ok {
		return "", fmt.Errorf("%w: %q (valid fields: %s): %w",
			ErrInvalidSortField, expr, strings.Join(NewCharacterSorter().GetValidFields(), ", "),
			engine.ErrInvalidSortKey)
	}
	return key, nil
}

func normalizeSort(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
