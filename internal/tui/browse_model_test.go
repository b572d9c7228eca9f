package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/engine/crawl"
)

const (
	testTotalCount = 826
	testTotalPages = 42
)

// fakeLoader serves 20 numbered characters per page and records requests.
type fakeLoader struct {
	mu      sync.Mutex
	loads   []engine.Request
	lookups engine.Lookups
	err     error
	clears  int
}

func (f *fakeLoader) Load(_ context.Context, filters engine.FilterState, page int) (engine.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, engine.Request{Filters: filters, Page: page})
	if f.err != nil {
		return engine.View{}, f.err
	}
	return pageView(page), nil
}

func (f *fakeLoader) Lookups(context.Context) (engine.Lookups, error) {
	return f.lookups, nil
}

func (f *fakeLoader) ClearCache() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func pageView(page int) engine.View {
	characters := make([]catalog.Character, 0, engine.DefaultPageSize)
	for i := 1; i <= engine.DefaultPageSize; i++ {
		id := (page-1)*engine.DefaultPageSize + i
		characters = append(characters, catalog.Character{
			ID:       id,
			Name:     fmt.Sprintf("Character %d", id),
			Status:   catalog.StatusAlive,
			Species:  "Human",
			Gender:   catalog.GenderMale,
			Location: catalog.Ref{Name: "Earth (Replacement Dimension)"},
		})
	}
	return engine.View{
		Characters: characters,
		TotalCount: testTotalCount,
		TotalPages: testTotalPages,
		Page:       page,
		PageSize:   engine.DefaultPageSize,
	}
}

// collect runs cmd and any batched commands, returning their messages.
// Only use it on commands that return immediately.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// settle answers the committed request with its page.
func settle(m *BrowseModel) {
	m.Update(loadedFor(m))
}

func deliver(m *BrowseModel, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func loadedFor(m *BrowseModel) charactersLoadedMsg {
	req := m.controller.Current()
	return charactersLoadedMsg{req: req, view: pageView(req.Page)}
}

func newLoadedModel(t *testing.T) (*BrowseModel, *fakeLoader) {
	t.Helper()
	loader := &fakeLoader{lookups: engine.Lookups{
		Origins:   []string{"Earth (C-137)", "Abadango"},
		Locations: []string{"Earth (C-137)", "Abadango"},
		Episodes:  []catalog.Episode{{ID: 1, Name: "Pilot", Code: "S01E01"}, {ID: 2, Name: "Lawnmower Dog", Code: "S01E02"}},
	}}
	m := NewBrowseModel(context.Background(), loader, engine.DefaultFilterState())
	deliver(m, collect(m.Init())...)
	require.Equal(t, ViewStateList, m.State())
	require.False(t, m.Loading())
	return m, loader
}

func TestBrowseModel_InitialLoad(t *testing.T) {
	loader := &fakeLoader{}
	m := NewBrowseModel(context.Background(), loader, engine.DefaultFilterState())

	assert.Equal(t, ViewStateLoading, m.State())
	assert.True(t, m.Loading())
	assert.Contains(t, m.View(), defaultLoadingMessage)

	deliver(m, collect(m.Init())...)

	require.Len(t, loader.loads, 1)
	assert.Equal(t, 1, loader.loads[0].Page)
	assert.Equal(t, ViewStateList, m.State())
	assert.False(t, m.Loading())

	view := m.View()
	assert.Contains(t, view, "Found 826 characters in the multiverse")
	assert.Contains(t, view, "Page 1 of 42 (826 characters discovered)")
	assert.Contains(t, view, "Character 1")
}

func TestBrowseModel_PageChangeKeepsFilters(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("t"))
	settle(m)
	require.Equal(t, "alive", m.Filters().Status)

	_, cmd := m.Update(key("right"))
	require.NotNil(t, cmd)
	assert.Equal(t, 2, m.Page())
	assert.True(t, m.Loading())
	assert.Equal(t, "alive", m.Filters().Status)

	settle(m)
	assert.Contains(t, m.View(), "Character 21")

	deliver(m, key("["))
	settle(m)
	assert.Equal(t, 1, m.Page())
}

func TestBrowseModel_FilterChangeResetsPage(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("right"))
	settle(m)
	deliver(m, key("]"))
	settle(m)
	require.Equal(t, 3, m.Page())

	deliver(m, key("g"))
	assert.Equal(t, 1, m.Page())
	assert.Equal(t, "female", m.Filters().Gender)
	assert.True(t, m.Loading())
}

func TestBrowseModel_PreviousOnFirstPageIsNoop(t *testing.T) {
	m, _ := newLoadedModel(t)

	_, cmd := m.Update(key("left"))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.Page())
	assert.False(t, m.Loading())
}

func TestBrowseModel_StaleResultsAreDropped(t *testing.T) {
	m, _ := newLoadedModel(t)

	deliver(m, key("t"))
	first := loadedFor(m)
	deliver(m, key("t"))
	second := loadedFor(m)
	require.Equal(t, "dead", m.Filters().Status)

	// The slower first response arrives after the second commit.
	first.view.Characters = []catalog.Character{{ID: 999, Name: "Stale Rick"}}
	deliver(m, first)
	assert.True(t, m.Loading())
	assert.NotContains(t, m.View(), "Stale Rick")

	deliver(m, second)
	assert.False(t, m.Loading())
	assert.NotContains(t, m.View(), "Stale Rick")
}

func TestBrowseModel_FetchFailureClearsRowsForNewKey(t *testing.T) {
	tests := []struct {
		name  string
		press string
	}{
		{name: "page change", press: "right"},
		{name: "filter change", press: "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newLoadedModel(t)

			deliver(m, key(tt.press))
			req := m.controller.Current()
			_, cmd := m.Update(charactersLoadedMsg{req: req, err: catalog.ErrFetchFailure})
			assert.NotNil(t, cmd, "toast expiry is scheduled")

			assert.False(t, m.Loading())
			assert.Equal(t, FetchErrorTitle+": "+FetchErrorHint, m.Toast())
			assert.Nil(t, m.list.GetSelectedItem())

			view := m.View()
			assert.Contains(t, view, "Please try again later")
			assert.Contains(t, view, emptyTitle)
			assert.NotContains(t, view, "Character 1", "rows of the previous key are not shown")
		})
	}
}

func TestBrowseModel_RefreshFailureKeepsRows(t *testing.T) {
	m, loader := newLoadedModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, loader.clears)
	assert.True(t, m.Loading())

	deliver(m, charactersLoadedMsg{req: m.controller.Current(), err: catalog.ErrFetchFailure})

	assert.False(t, m.Loading())
	assert.NotEmpty(t, m.Toast())
	assert.Contains(t, m.View(), "Character 1", "rows for the same filters and page are kept")
}

func TestBrowseModel_Refresh(t *testing.T) {
	m, loader := newLoadedModel(t)
	deliver(m, key("right"))
	settle(m)
	before := len(loader.loads)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	deliver(m, collect(cmd)...)

	require.Len(t, loader.loads, before+1)
	last := loader.loads[len(loader.loads)-1]
	assert.Equal(t, 2, last.Page, "the committed page is reloaded")
	assert.Equal(t, engine.DefaultFilterState(), last.Filters)
	assert.Equal(t, 1, loader.clears)
	assert.False(t, m.Loading())
}

func TestBrowseModel_FirstLoadFailure(t *testing.T) {
	loader := &fakeLoader{err: fmt.Errorf("%w: connection refused", catalog.ErrFetchFailure)}
	m := NewBrowseModel(context.Background(), loader, engine.DefaultFilterState())
	deliver(m, collect(m.Init())...)

	assert.Equal(t, ViewStateList, m.State())
	assert.NotEmpty(t, m.Toast())
	assert.Contains(t, m.View(), emptyTitle)
}

func TestBrowseModel_ToastExpiry(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("right"))
	deliver(m, charactersLoadedMsg{req: m.controller.Current(), err: errors.New("boom")})
	require.NotEmpty(t, m.Toast())

	deliver(m, toastExpiredMsg{id: m.toastID - 1})
	assert.NotEmpty(t, m.Toast(), "an older toast's timer does not clear a newer toast")

	deliver(m, toastExpiredMsg{id: m.toastID})
	assert.Empty(t, m.Toast())
}

func TestBrowseModel_EmptyState(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("t"))
	deliver(m, charactersLoadedMsg{req: m.controller.Current(), view: engine.View{Characters: []catalog.Character{}}})

	view := m.View()
	assert.Contains(t, view, emptyTitle)
	assert.NotContains(t, view, "in the multiverse")
}

func TestBrowseModel_PartialBadge(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("s"))
	msg := loadedFor(m)
	msg.view.Partial = true
	msg.view.PagesFetched = 3
	msg.view.PagesTotal = 42
	deliver(m, msg)

	assert.Contains(t, m.View(), "Partial results: 3 of 42 pages loaded")
}

func TestBrowseModel_NameFilter(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("right"))
	settle(m)

	deliver(m, key("/"))
	assert.True(t, m.showFilter)

	deliver(m, key("rick"))
	assert.Equal(t, "rick", m.textInput.Value())
	assert.Empty(t, m.Filters().Name, "typing does not commit")

	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, m.showFilter)
	assert.Equal(t, "rick", m.Filters().Name)
	assert.Equal(t, 1, m.Page())
}

func TestBrowseModel_NameFilterEscCancels(t *testing.T) {
	m, _ := newLoadedModel(t)

	deliver(m, key("/"), key("morty"), key("esc"))
	assert.False(t, m.showFilter)
	assert.Empty(t, m.Filters().Name)
	assert.Empty(t, m.textInput.Value())
	assert.False(t, m.Loading())
}

func TestBrowseModel_EscClearsName(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("/"), key("rick"), key("enter"))
	settle(m)
	require.Equal(t, "rick", m.Filters().Name)

	deliver(m, key("esc"))
	assert.Empty(t, m.Filters().Name)
	assert.True(t, m.Loading())
}

func TestBrowseModel_CycleFilters(t *testing.T) {
	m, _ := newLoadedModel(t)

	deliver(m, key("o"))
	assert.Equal(t, "Earth (C-137)", m.Filters().Origin)
	deliver(m, key("o"), key("o"))
	assert.Equal(t, engine.AnyValue, m.Filters().Origin, "wraps back to all")

	deliver(m, key("l"), key("l"))
	assert.Equal(t, "Abadango", m.Filters().Location)

	deliver(m, key("e"))
	assert.Equal(t, "1", m.Filters().Episode)
	settle(m)
	assert.Contains(t, m.View(), "S01E01 Pilot")

	deliver(m, key("s"))
	assert.Equal(t, engine.SortAlphabetical, m.Filters().SortBy)
	deliver(m, key("s"), key("s"))
	assert.Equal(t, engine.SortNone, m.Filters().SortBy)
}

func TestBrowseModel_Reset(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, key("t"), key("g"), key("s"), key("right"))

	deliver(m, key("r"))
	assert.Equal(t, engine.DefaultFilterState(), m.Filters())
	assert.Equal(t, 1, m.Page())
}

func TestBrowseModel_Detail(t *testing.T) {
	m, _ := newLoadedModel(t)

	deliver(m, key("j"), key("enter"))
	require.Equal(t, ViewStateDetail, m.State())
	assert.Contains(t, m.View(), "Character 2")
	assert.Contains(t, m.View(), "Species")

	deliver(m, key("esc"))
	assert.Equal(t, ViewStateList, m.State())
}

func TestBrowseModel_Quit(t *testing.T) {
	m, _ := newLoadedModel(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, ViewStateQuitting, m.State())
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestBrowseModel_CrawlProgress(t *testing.T) {
	m := NewBrowseModel(context.Background(), &fakeLoader{}, engine.DefaultFilterState())
	deliver(m, CrawlProgressMsg{FetchedPages: 3, TotalPages: 42, Percent: 7.14})
	assert.Contains(t, m.View(), "page 3 of 42 (7%)")

	deliver(m, CrawlProgressMsg{FetchedPages: 21, TotalPages: 42, Percent: 50, Remaining: 90*time.Second + 400*time.Millisecond})
	assert.Contains(t, m.View(), "page 21 of 42 (50%), about 1m30s left")
}

func TestProgressCallback(t *testing.T) {
	var got []tea.Msg
	cb := ProgressCallback(func(msg tea.Msg) { got = append(got, msg) })

	p := crawl.NewProgress()
	p.AddPage(20, crawl.PageInfo{Pages: 4, Count: 70})
	cb(p)

	require.Len(t, got, 1)
	msg, ok := got[0].(CrawlProgressMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.FetchedPages)
	assert.Equal(t, 4, msg.TotalPages)
	assert.InDelta(t, 25.0, msg.Percent, 0.001)
	assert.GreaterOrEqual(t, msg.Remaining, time.Duration(0))
}

func TestBrowseModel_WindowResize(t *testing.T) {
	m, _ := newLoadedModel(t)
	deliver(m, tea.WindowSizeMsg{Width: 140, Height: 40})
	assert.Equal(t, 40-chromeHeight, m.list.Height())
	assert.Equal(t, 140, m.width)

	deliver(m, tea.WindowSizeMsg{Width: 80, Height: 10})
	assert.Equal(t, minHeight, m.list.Height())
}

func TestNextOption(t *testing.T) {
	opts := []string{"all", "alive", "dead", "unknown"}
	assert.Equal(t, "alive", nextOption(opts, "all"))
	assert.Equal(t, "all", nextOption(opts, "unknown"))
	assert.Equal(t, "dead", nextOption(opts, "Alive"))
	assert.Equal(t, "all", nextOption(opts, "gone"))
	assert.Equal(t, engine.AnyValue, nextOption(nil, "x"))
}

func TestBrowseModel_StartAt(t *testing.T) {
	loader := &fakeLoader{}
	m := NewBrowseModel(context.Background(), loader, engine.FilterState{Name: "rick"})
	m.StartAt(5)

	deliver(m, collect(m.Init())...)

	require.Len(t, loader.loads, 1)
	assert.Equal(t, 5, loader.loads[0].Page)
	assert.Equal(t, "rick", loader.loads[0].Filters.Name)
	assert.Equal(t, 5, m.Page())
	assert.False(t, m.Loading())
}
