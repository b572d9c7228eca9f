package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/cli/pagination"
	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/tui"
)

const (
	tabPadding    = 2
	colWidthName  = 32
	colWidthPlace = 28
)

// characterListing is the JSON document written by characters --output json.
type characterListing struct {
	Characters []catalog.Character       `json:"characters"`
	Pagination pagination.PaginationMeta `json:"pagination"`
	Filters    engine.FilterState        `json:"filters"`
	Partial    *partialInfo              `json:"partial_results,omitempty"`
}

// partialInfo describes an incomplete crawl in JSON output.
type partialInfo struct {
	PagesFetched int    `json:"pages_fetched"`
	PagesTotal   int    `json:"pages_total"`
	Reason       string `json:"reason,omitempty"`
}

// renderCharacters writes view in the given output format.
func renderCharacters(w io.Writer, format string, view engine.View, filters engine.FilterState) error {
	switch format {
	case config.FormatJSON:
		return renderCharactersJSON(w, view, filters)
	case config.FormatNDJSON:
		return renderNDJSON(w, view.Characters)
	default:
		return renderCharactersTable(w, view)
	}
}

// renderCharactersTable writes the characters as an aligned table followed by
// the result count and page summary.
func renderCharactersTable(w io.Writer, view engine.View) error {
	if len(view.Characters) == 0 {
		fmt.Fprintln(w, "No Characters Found")
		fmt.Fprintln(w, "Try a different name or relax the filters.")
		return nil
	}

	fmt.Fprintln(w, tui.FoundLine(view.TotalCount))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSPECIES\tGENDER\tORIGIN\tLOCATION\tEPISODES")
	fmt.Fprintln(tw, "--\t----\t------\t-------\t------\t------\t--------\t--------")
	for _, c := range view.Characters {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			c.ID,
			truncateCell(c.Name, colWidthName),
			c.Status.Glyph()+" "+c.Status.Label(),
			c.Species,
			c.Gender.Label(),
			truncateCell(c.Origin.Name, colWidthPlace),
			truncateCell(c.Location.Name, colWidthPlace),
			len(c.Episode),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}

	if view.TotalPages > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, tui.FooterLine(view.Page, view.TotalPages, view.TotalCount))
	}
	return nil
}

func renderCharactersJSON(w io.Writer, view engine.View, filters engine.FilterState) error {
	characters := view.Characters
	if characters == nil {
		characters = []catalog.Character{}
	}

	doc := characterListing{
		Characters: characters,
		Pagination: pagination.NewPaginationMeta(view),
		Filters:    filters,
	}
	if view.Partial {
		doc.Partial = &partialInfo{
			PagesFetched: view.PagesFetched,
			PagesTotal:   view.PagesTotal,
		}
		if view.FetchErr != nil {
			doc.Partial.Reason = view.FetchErr.Error()
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// renderNDJSON writes each item as a separate JSON line.
func renderNDJSON[T any](w io.Writer, items []T) error {
	for _, item := range items {
		data, marshalErr := json.Marshal(item)
		if marshalErr != nil {
			return fmt.Errorf("marshaling item: %w", marshalErr)
		}
		if _, writeErr := fmt.Fprintf(w, "%s\n", data); writeErr != nil {
			return fmt.Errorf("writing NDJSON line: %w", writeErr)
		}
	}
	return nil
}

// renderJSONList writes items as an indented JSON array.
func renderJSONList[T any](w io.Writer, items []T) error {
	if items == nil {
		items = []T{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(items); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// renderLocations writes the location names used by the origin and location
// filters.
func renderLocations(w io.Writer, format string, names []string) error {
	switch format {
	case config.FormatJSON:
		return renderJSONList(w, names)
	case config.FormatNDJSON:
		return renderNDJSON(w, names)
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "#\tLOCATION")
	fmt.Fprintln(tw, "-\t--------")
	for i, name := range names {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, name)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}
	fmt.Fprintf(w, "\n%s %s\n", tui.FormatCount(len(names)), tui.Plural(len(names), "location"))
	return nil
}

// renderEpisodes writes the episode list used by the episode filter.
func renderEpisodes(w io.Writer, format string, episodes []catalog.Episode) error {
	switch format {
	case config.FormatJSON:
		return renderJSONList(w, episodes)
	case config.FormatNDJSON:
		return renderNDJSON(w, episodes)
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tAIR DATE")
	fmt.Fprintln(tw, "--\t----\t----\t--------")
	for _, e := range episodes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Code, e.Name, e.AirDate)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}
	fmt.Fprintf(w, "\n%s %s\n", tui.FormatCount(len(episodes)), tui.Plural(len(episodes), "episode"))
	return nil
}

// truncateCell shortens s to maxLen runes, ending in "...".
func truncateCell(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
