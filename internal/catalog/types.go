package catalog

import (
	"path"
	"strings"
)

// Status is the life status of a character as reported by the API.
type Status string

// Character status values. The API reports unknown in lower case.
const (
	StatusAlive   Status = "Alive"
	StatusDead    Status = "Dead"
	StatusUnknown Status = "unknown"
)

// Label returns the display form of the status.
func (s Status) Label() string {
	if s == StatusUnknown || s == "" {
		return "Unknown"
	}
	return string(s)
}

// Glyph returns the single-character badge used for the status.
func (s Status) Glyph() string {
	switch s {
	case StatusAlive:
		return "●"
	case StatusDead:
		return "☠"
	default:
		return "?"
	}
}

// Gender is the gender of a character as reported by the API.
type Gender string

// Character gender values. The API reports unknown in lower case.
const (
	GenderFemale     Gender = "Female"
	GenderMale       Gender = "Male"
	GenderGenderless Gender = "Genderless"
	GenderUnknown    Gender = "unknown"
)

// Label returns the display form of the gender.
func (g Gender) Label() string {
	if g == GenderUnknown || g == "" {
		return "Unknown"
	}
	return string(g)
}

// Ref is a named link to another catalog resource (origin or location).
type Ref struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Character is one record of the catalog. Values are treated as immutable
// once decoded.
type Character struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	Species  string   `json:"species"`
	Type     string   `json:"type"`
	Gender   Gender   `json:"gender"`
	Origin   Ref      `json:"origin"`
	Location Ref      `json:"location"`
	Image    string   `json:"image"`
	Episode  []string `json:"episode"`
	URL      string   `json:"url"`
	Created  string   `json:"created"`
}

// AppearsIn reports whether any of the character's episode links ends in the
// given episode id.
func (c Character) AppearsIn(episodeID string) bool {
	for _, link := range c.Episode {
		if LastSegment(link) == episodeID {
			return true
		}
	}
	return false
}

// Info is the pagination envelope shared by every listing endpoint.
type Info struct {
	Count int    `json:"count"`
	Pages int    `json:"pages"`
	Next  string `json:"next"`
	Prev  string `json:"prev"`
}

// HasNext reports whether the server advertised another page.
func (i Info) HasNext() bool {
	return i.Next != ""
}

// Page is one decoded page of a listing endpoint.
type Page[T any] struct {
	Info    Info `json:"info"`
	Results []T  `json:"results"`
}

// CharacterPage is one page of the character listing.
type CharacterPage = Page[Character]

// Location is an entry of the location listing. Origins and current
// locations of characters both refer to locations.
type Location struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Dimension string `json:"dimension"`
	URL       string `json:"url"`
}

// Episode is an entry of the episode listing.
type Episode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	AirDate string `json:"air_date"`
	Code    string `json:"episode"`
	URL     string `json:"url"`
}

// LastSegment returns the trailing path segment of a resource link, e.g.
// "https://rickandmortyapi.com/api/episode/3" -> "3".
func LastSegment(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}
