package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/tui/detail"
)

// Column widths for the character list.
const (
	colName     = 28
	colStatus   = 10
	colSpecies  = 14
	colGender   = 11
	colLocation = 28
)

const (
	emptyTitle = "No Characters Found"
	emptyHint  = "Try adjusting your search filters to find more characters from the multiverse!"
)

// View renders the current screen.
func (m *BrowseModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return lipgloss.JoinVertical(lipgloss.Left, renderTitle(), RenderLoading(m.loading))
	case ViewStateDetail:
		if m.selected == nil {
			return m.renderListView()
		}
		return detail.RenderCard(*m.selected, m.width)
	case ViewStateList, ViewStateError:
		return m.renderListView()
	default:
		return ""
	}
}

func (m *BrowseModel) renderListView() string {
	sections := []string{
		renderTitle(),
		RenderFilterBar(m.controller.Filters(), m.lookups.Episodes),
	}
	if m.showFilter {
		sections = append(sections, m.textInput.View())
	}

	switch {
	case m.controller.Loading():
		sections = append(sections, RenderLoading(m.loading))
	case len(m.view.Characters) == 0:
		sections = append(sections, renderEmptyState())
	default:
		sections = append(sections, SubtitleStyle.Render(FoundLine(m.view.TotalCount)))
		if m.view.Partial {
			sections = append(sections, RenderPartialBadge(m.view))
		}
		sections = append(sections, renderListHeader(), m.list.View())
	}

	if pager := RenderPager(m.controller.Page(), m.controller.TotalPages()); pager != "" {
		sections = append(sections, "", pager)
	}
	if m.hasView && m.view.TotalPages > 0 {
		sections = append(sections, InfoStyle.Render(FooterLine(m.controller.Page(), m.view.TotalPages, m.view.TotalCount)))
	}
	if m.toast != "" {
		sections = append(sections, ToastStyle.Render(CriticalStyle.Render(m.toast)))
	}
	sections = append(sections, renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderTitle() string {
	return TitleStyle.Render("RICK & MORTY") + "  " + SubtitleStyle.Render("CHARACTER EXPLORER")
}

// RenderFilterBar renders the committed filters on one line. Episode IDs are
// shown with their episode code when known.
func RenderFilterBar(f engine.FilterState, episodes []catalog.Episode) string {
	name := f.Name
	if name == "" {
		name = "-"
	}
	parts := []string{
		filterField("Name", name),
		filterField("Status", f.Status),
		filterField("Gender", f.Gender),
		filterField("Origin", truncate(f.Origin, colLocation)),
		filterField("Location", truncate(f.Location, colLocation)),
		filterField("Episode", episodeLabel(f.Episode, episodes)),
		filterField("Sort", f.SortBy.Label()),
	}
	return strings.Join(parts, "  ")
}

func filterField(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

func episodeLabel(id string, episodes []catalog.Episode) string {
	for _, ep := range episodes {
		if strconv.Itoa(ep.ID) == id {
			return ep.Code + " " + truncate(ep.Name, colName)
		}
	}
	return id
}

// RenderPartialBadge explains that a crawl stopped early.
func RenderPartialBadge(v engine.View) string {
	text := "Partial results"
	if v.PagesTotal > 0 {
		text = fmt.Sprintf("Partial results: %d of %d pages loaded", v.PagesFetched, v.PagesTotal)
	}
	return WarningStyle.Render("⚠ " + text)
}

// RenderPager renders numbered page buttons with ellipses, the current page
// highlighted. It renders nothing for a single page.
func RenderPager(current, total int) string {
	pages := engine.VisiblePages(current, total)
	if pages == nil {
		return ""
	}

	parts := make([]string, 0, len(pages)+2)
	parts = append(parts, pagerArrow("‹", current > 1))
	for _, p := range pages {
		switch {
		case p == engine.Ellipsis:
			parts = append(parts, InfoStyle.Render("…"))
		case p == current:
			parts = append(parts, ActivePageStyle.Render(strconv.Itoa(p)))
		default:
			parts = append(parts, PageStyle.Render(strconv.Itoa(p)))
		}
	}
	parts = append(parts, pagerArrow("›", current < total))
	return strings.Join(parts, " ")
}

func pagerArrow(arrow string, enabled bool) string {
	if enabled {
		return ValueStyle.Render(arrow)
	}
	return HelpStyle.Render(arrow)
}

func renderEmptyState() string {
	return BoxStyle.Render(HeaderStyle.Render(emptyTitle) + "\n" + InfoStyle.Render(emptyHint))
}

func renderListHeader() string {
	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s",
		colName, "Name",
		colStatus, "Status",
		colSpecies, "Species",
		colGender, "Gender",
		colLocation, "Last known location",
	)
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true).
		Render(header)
}

// renderCharacterRow formats a single character for the list. The status
// cell is coloured unless the row is selected.
func renderCharacterRow(c catalog.Character, selected bool) string {
	status := fmt.Sprintf("%-*s", colStatus, c.Status.Glyph()+" "+c.Status.Label())
	if !selected {
		status = lipgloss.NewStyle().Foreground(StatusColor(string(c.Status))).Render(status)
	}
	row := fmt.Sprintf("%-*s  %s  %-*s  %-*s  %-*s",
		colName, truncate(c.Name, colName),
		status,
		colSpecies, truncate(c.Species, colSpecies),
		colGender, c.Gender.Label(),
		colLocation, truncate(c.Location.Name, colLocation),
	)
	if selected {
		return SelectedStyle.Render(row)
	}
	return row
}

func renderHelp() string {
	return HelpStyle.Render(strings.Join([]string{
		"[/] Name",
		"[t] Status",
		"[g] Gender",
		"[o] Origin",
		"[l] Location",
		"[e] Episode",
		"[s] Sort",
		"[r] Reset",
		"[^r] Refresh",
		"[←→] Page",
		"[Enter] Details",
		"[q] Quit",
	}, "  "))
}
