package engine_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine"
)

func episodeLink(id int) string {
	return fmt.Sprintf("https://rickandmortyapi.com/api/episode/%d", id)
}

func character(id int, name string, gender catalog.Gender, origin, location string, episodes ...int) catalog.Character {
	c := catalog.Character{
		ID:       id,
		Name:     name,
		Status:   catalog.StatusAlive,
		Gender:   gender,
		Origin:   catalog.Ref{Name: origin},
		Location: catalog.Ref{Name: location},
	}
	for _, e := range episodes {
		c.Episode = append(c.Episode, episodeLink(e))
	}
	return c
}

func sampleCharacters() []catalog.Character {
	return []catalog.Character{
		character(1, "Rick Sanchez", catalog.GenderMale, "Earth (C-137)", "Citadel of Ricks", 1, 2, 3),
		character(2, "Morty Smith", catalog.GenderMale, "unknown", "Citadel of Ricks", 1, 2),
		character(3, "Summer Smith", catalog.GenderFemale, "Earth (Replacement Dimension)", "Earth (Replacement Dimension)", 6, 7),
		character(4, "Beth Smith", catalog.GenderFemale, "Earth (Replacement Dimension)", "Earth (Replacement Dimension)", 3, 7),
		character(5, "Abradolf Lincler", catalog.GenderMale, "Earth (Replacement Dimension)", "Testicle Monster Dimension", 10),
		character(6, "Mr. Meeseeks", catalog.GenderGenderless, "Mr. Meeseeks Box", "Mr. Meeseeks Box", 5),
		character(7, "Squanchy", catalog.GenderUnknown, "unknown", "unknown", 7),
	}
}

func ids(characters []catalog.Character) []int {
	out := make([]int, len(characters))
	for i, c := range characters {
		out[i] = c.ID
	}
	return out
}

func TestApplyClientFilters_AllIsIdentity(t *testing.T) {
	t.Parallel()
	input := sampleCharacters()

	for _, f := range []engine.FilterState{
		engine.DefaultFilterState(),
		{},
		{Name: "rick", Status: "alive", Gender: "male", Origin: "all", Location: "all", Episode: "all"},
	} {
		got := engine.ApplyClientFilters(input, f)
		if diff := cmp.Diff(input, got); diff != "" {
			t.Errorf("ApplyClientFilters(%+v) mismatch (-want +got):\n%s", f, diff)
		}
	}
}

func TestApplyClientFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		edit func(*engine.FilterState)
		want []int
	}{
		{
			name: "origin equality",
			edit: func(f *engine.FilterState) { f.Origin = "Earth (Replacement Dimension)" },
			want: []int{3, 4, 5},
		},
		{
			name: "location equality",
			edit: func(f *engine.FilterState) { f.Location = "Citadel of Ricks" },
			want: []int{1, 2},
		},
		{
			name: "episode membership",
			edit: func(f *engine.FilterState) { f.Episode = "7" },
			want: []int{3, 4, 7},
		},
		{
			name: "conjunction",
			edit: func(f *engine.FilterState) {
				f.Origin = "Earth (Replacement Dimension)"
				f.Episode = "3"
			},
			want: []int{4},
		},
		{
			name: "origin is case sensitive",
			edit: func(f *engine.FilterState) { f.Origin = "earth (c-137)" },
			want: []int{},
		},
		{
			name: "episode id is not a prefix match",
			edit: func(f *engine.FilterState) { f.Episode = "1" },
			want: []int{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := engine.DefaultFilterState()
			tt.edit(&f)

			input := sampleCharacters()
			got := engine.ApplyClientFilters(input, f)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, sampleCharacters(), input, "input must not be modified")
		})
	}
}

func TestApplyClientFilters_EpisodeTrailingSegment(t *testing.T) {
	t.Parallel()
	in3 := character(1, "A", catalog.GenderMale, "x", "y", 3)
	in7 := character(2, "B", catalog.GenderMale, "x", "y", 7)
	trailingSlash := catalog.Character{ID: 3, Episode: []string{episodeLink(3) + "/"}}

	f := engine.DefaultFilterState()
	f.Episode = "3"

	got := engine.ApplyClientFilters([]catalog.Character{in3, in7, trailingSlash}, f)
	assert.Equal(t, []int{1, 3}, ids(got))
}

func TestFilterState_Merge(t *testing.T) {
	t.Parallel()
	base := engine.DefaultFilterState()
	base.Name = "rick"

	status := "dead"
	sortKey := engine.SortGender
	empty := ""

	merged := base.Merge(engine.FilterPatch{Status: &status, SortBy: &sortKey, Origin: &empty})

	assert.Equal(t, "rick", merged.Name)
	assert.Equal(t, "dead", merged.Status)
	assert.Equal(t, engine.SortGender, merged.SortBy)
	assert.Equal(t, engine.AnyValue, merged.Origin, "empty normalises to the sentinel")
	assert.Equal(t, engine.AnyValue, base.Status, "receiver is untouched")
}

func TestFilterState_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   engine.FilterState
		wantErr error
	}{
		{name: "defaults", state: engine.DefaultFilterState()},
		{name: "zero value", state: engine.FilterState{}},
		{name: "mixed case", state: engine.FilterState{Status: "Alive", Gender: "Genderless", SortBy: "Alphabetical"}},
		{name: "bad status", state: engine.FilterState{Status: "zombie"}, wantErr: engine.ErrInvalidStatus},
		{name: "bad gender", state: engine.FilterState{Gender: "robot"}, wantErr: engine.ErrInvalidGender},
		{name: "bad sort", state: engine.FilterState{SortBy: "age"}, wantErr: engine.ErrInvalidSortKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.state.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFilterState_QueryAndClientFilters(t *testing.T) {
	t.Parallel()
	f := engine.DefaultFilterState()
	f.Name = "morty"
	f.Gender = "male"

	assert.Equal(t, catalog.Query{Name: "morty", Status: "all", Gender: "male"}, f.Query())
	assert.False(t, f.HasClientFilters())

	f.Episode = "3"
	assert.True(t, f.HasClientFilters())
}

func TestFilterState_CacheKey(t *testing.T) {
	t.Parallel()
	a := engine.DefaultFilterState()
	a.Name = "rick"

	b := a
	b.SortBy = engine.SortAlphabetical
	b.Origin = "Earth (C-137)"

	keyA, err := a.CacheKey("characters", 1)
	require.NoError(t, err)
	keyB, err := b.CacheKey("characters", 1)
	require.NoError(t, err)
	assert.Equal(t, keyA, keyB, "sort and client filters do not change the fetch")

	keyPage2, err := a.CacheKey("characters", 2)
	require.NoError(t, err)
	assert.NotEqual(t, keyA, keyPage2)

	c := a
	c.Status = "Dead"
	d := a
	d.Status = "dead"
	keyC, _ := c.CacheKey("characters", 1)
	keyD, _ := d.CacheKey("characters", 1)
	assert.Equal(t, keyC, keyD)
}
