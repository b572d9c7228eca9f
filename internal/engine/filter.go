package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine/cache"
)

// AnyValue is the filter sentinel meaning "no constraint".
const AnyValue = catalog.AnyValue

// Filter validation errors.
var (
	ErrInvalidStatus = errors.New("status must be one of all, alive, dead, unknown")
	ErrInvalidGender = errors.New("gender must be one of all, female, male, genderless, unknown")
)

// StatusOptions lists the status filter values in display order.
func StatusOptions() []string {
	return []string{AnyValue, "alive", "dead", "unknown"}
}

// GenderOptions lists the gender filter values in display order.
func GenderOptions() []string {
	return []string{AnyValue, "female", "male", "genderless", "unknown"}
}

// FilterState is the full set of user-selected filters plus the sort key.
// Empty fields are treated like AnyValue.
type FilterState struct {
	Name     string  `json:"name,omitempty"`
	Status   string  `json:"status"`
	Gender   string  `json:"gender"`
	Origin   string  `json:"origin"`
	Location string  `json:"location"`
	Episode  string  `json:"episode"`
	SortBy   SortKey `json:"sort_by"`
}

// DefaultFilterState returns the unconstrained, unsorted state.
func DefaultFilterState() FilterState {
	return FilterState{
		Status:   AnyValue,
		Gender:   AnyValue,
		Origin:   AnyValue,
		Location: AnyValue,
		Episode:  AnyValue,
		SortBy:   SortNone,
	}
}

// Normalize replaces empty fields with their sentinels and trims the name.
func (f FilterState) Normalize() FilterState {
	f.Name = strings.TrimSpace(f.Name)
	for _, field := range []*string{&f.Status, &f.Gender, &f.Origin, &f.Location, &f.Episode} {
		if *field == "" {
			*field = AnyValue
		}
	}
	if f.SortBy == "" {
		f.SortBy = SortNone
	}
	return f
}

// FilterPatch is a partial filter edit. Nil fields are left unchanged.
type FilterPatch struct {
	Name     *string
	Status   *string
	Gender   *string
	Origin   *string
	Location *string
	Episode  *string
	SortBy   *SortKey
}

// Merge returns a copy of f with every non-nil patch field applied.
func (f FilterState) Merge(patch FilterPatch) FilterState {
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Status != nil {
		f.Status = *patch.Status
	}
	if patch.Gender != nil {
		f.Gender = *patch.Gender
	}
	if patch.Origin != nil {
		f.Origin = *patch.Origin
	}
	if patch.Location != nil {
		f.Location = *patch.Location
	}
	if patch.Episode != nil {
		f.Episode = *patch.Episode
	}
	if patch.SortBy != nil {
		f.SortBy = *patch.SortBy
	}
	return f.Normalize()
}

// Validate checks the enumerated fields.
func (f FilterState) Validate() error {
	f = f.Normalize()
	if !containsFold(StatusOptions(), f.Status) {
		return fmt.Errorf("%w: got %q", ErrInvalidStatus, f.Status)
	}
	if !containsFold(GenderOptions(), f.Gender) {
		return fmt.Errorf("%w: got %q", ErrInvalidGender, f.Gender)
	}
	if _, err := ParseSortKey(string(f.SortBy)); err != nil {
		return err
	}
	return nil
}

// Query returns the subset of filters the remote API applies itself.
func (f FilterState) Query() catalog.Query {
	return catalog.Query{Name: f.Name, Status: f.Status, Gender: f.Gender}
}

// HasClientFilters reports whether any filter needs client-side evaluation.
func (f FilterState) HasClientFilters() bool {
	return isConstraint(f.Origin) || isConstraint(f.Location) || isConstraint(f.Episode)
}

// CacheKey derives the cache key for fetching this state. Sort and
// client-side filters are excluded because they do not change the response.
func (f FilterState) CacheKey(operation string, page int) (string, error) {
	q := f.Normalize()
	return cache.NewKeyParamsBuilder(operation).
		WithFilter("name", q.Name).
		WithFilter("status", strings.ToLower(q.Status)).
		WithFilter("gender", strings.ToLower(q.Gender)).
		WithPage(page).
		Build()
}

// ApplyClientFilters returns the characters matching every client-side
// predicate: origin name equality, location name equality and episode
// membership. The input slice is not modified.
func ApplyClientFilters(characters []catalog.Character, f FilterState) []catalog.Character {
	filtered := make([]catalog.Character, 0, len(characters))
	for _, c := range characters {
		if matchesClientFilters(c, f) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func matchesClientFilters(c catalog.Character, f FilterState) bool {
	if isConstraint(f.Origin) && c.Origin.Name != f.Origin {
		return false
	}
	if isConstraint(f.Location) && c.Location.Name != f.Location {
		return false
	}
	if isConstraint(f.Episode) && !c.AppearsIn(f.Episode) {
		return false
	}
	return true
}

func isConstraint(v string) bool {
	return v != "" && v != AnyValue
}

func containsFold(options []string, v string) bool {
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return true
		}
	}
	return false
}
