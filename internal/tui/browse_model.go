package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/engine/cache"
	"github.com/rshade/multiverse/internal/engine/crawl"
	"github.com/rshade/multiverse/internal/logging"
	listview "github.com/rshade/multiverse/internal/tui/list"
)

const (
	// FetchErrorTitle and FetchErrorHint make up the failed-load toast.
	FetchErrorTitle = "Error fetching characters"
	FetchErrorHint  = "Please try again later"

	toastDuration = 4 * time.Second

	// chromeHeight is the number of rows used by everything except the list.
	chromeHeight = 14
)

// Loader produces character views and filter option lists.
// *engine.Aggregator implements it.
type Loader interface {
	Load(ctx context.Context, filters engine.FilterState, page int) (engine.View, error)
	Lookups(ctx context.Context) (engine.Lookups, error)
	ClearCache() error
}

// charactersLoadedMsg carries the outcome of one Load, tagged with the
// request that produced it.
type charactersLoadedMsg struct {
	req  engine.Request
	view engine.View
	err  error
}

type lookupsLoadedMsg struct {
	lookups engine.Lookups
	err     error
}

type toastExpiredMsg struct {
	id int
}

// CrawlProgressMsg reports crawl progress while every page is being fetched.
type CrawlProgressMsg struct {
	FetchedPages int
	TotalPages   int
	Percent      float64
	Remaining    time.Duration
}

// ProgressCallback returns a crawl callback that forwards progress to send,
// typically (*tea.Program).Send.
func ProgressCallback(send func(tea.Msg)) crawl.ProgressCallback {
	return func(p *crawl.Progress) {
		snap := p.Snapshot()
		send(CrawlProgressMsg{
			FetchedPages: snap.FetchedPages,
			TotalPages:   snap.TotalPages,
			Percent:      snap.PercentComplete,
			Remaining:    p.EstimatedTimeRemaining(),
		})
	}
}

// BrowseModel is the Bubble Tea model for the interactive character browser.
// Filter and page changes go through an engine.Controller; results for any
// request other than the latest one are dropped.
type BrowseModel struct {
	// View state
	state      ViewState
	ctx        context.Context
	loader     Loader
	controller *engine.Controller
	view       engine.View
	shown      engine.Request
	hasView    bool
	lookups    engine.Lookups

	// Interactive components
	list       *listview.VirtualListModel[catalog.Character]
	textInput  textinput.Model
	showFilter bool
	selected   *catalog.Character

	// Loading and notifications
	loading *LoadingState
	toast   string
	toastID int

	// Display configuration
	width  int
	height int
}

// NewBrowseModel creates a browser that starts loading page 1 for initial.
func NewBrowseModel(ctx context.Context, loader Loader, initial engine.FilterState) *BrowseModel {
	m := &BrowseModel{
		state:      ViewStateLoading,
		ctx:        ctx,
		loader:     loader,
		controller: engine.NewController(initial),
		textInput:  newNameInput(),
		loading:    NewLoadingState(),
		width:      defaultWidth,
		height:     defaultHeight,
	}
	m.list = listview.NewVirtualListModel([]catalog.Character{}, m.listHeight(), renderCharacterRow)
	return m
}

// StartAt makes the first load request page instead of page 1. It must be
// called before Init.
func (m *BrowseModel) StartAt(page int) {
	m.controller = engine.NewControllerAt(m.controller.Filters(), page)
}

func newNameInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Search by name..."
	ti.Prompt = "Name: "
	ti.CharLimit = filterInputCharLimit
	ti.Width = filterInputWidth
	return ti
}

// Init starts the first page load and the lookup lists.
func (m *BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.fetch(m.controller.Current()), m.fetchLookups())
}

// Filters returns the committed filter state.
func (m *BrowseModel) Filters() engine.FilterState {
	return m.controller.Filters()
}

// Page returns the committed page.
func (m *BrowseModel) Page() int {
	return m.controller.Page()
}

// Loading reports whether a request for the committed key is outstanding.
func (m *BrowseModel) Loading() bool {
	return m.controller.Loading()
}

// Toast returns the notification currently shown, if any.
func (m *BrowseModel) Toast() string {
	return m.toast
}

// State returns the current screen.
func (m *BrowseModel) State() ViewState {
	return m.state
}

// Update handles messages and updates the model state.
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetHeight(m.listHeight())
		return m, nil
	case charactersLoadedMsg:
		return m.handleCharactersLoaded(msg)
	case lookupsLoadedMsg:
		return m.handleLookupsLoaded(msg)
	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil
	case CrawlProgressMsg:
		if msg.TotalPages > 0 {
			m.loading.SetMessage(crawlProgressLine(msg))
		}
		return m, nil
	case spinner.TickMsg:
		if !m.controller.Loading() {
			return m, nil
		}
		return m, m.loading.Update(msg)
	}

	if m.showFilter {
		return m.handleFilterInput(msg)
	}

	switch m.state {
	case ViewStateLoading:
		return m.handleQuitKeys(msg)
	case ViewStateList:
		return m.handleListUpdate(msg)
	case ViewStateDetail:
		return m.handleDetailUpdate(msg)
	case ViewStateQuitting, ViewStateError:
		return m.handleQuitKeys(msg)
	default:
		return m, nil
	}
}

func (m *BrowseModel) handleCharactersLoaded(msg charactersLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if !m.controller.Accept(msg.req, nil) {
			return m, nil
		}
		log := logging.FromContext(m.ctx)
		log.Warn().Ctx(m.ctx).
			Str("component", "tui").
			Str("operation", "load_characters").
			Int("page", msg.req.Page).
			Err(msg.err).
			Msg("character fetch failed")
		if !m.showing(msg.req) {
			m.clearView()
		}
		if m.state == ViewStateLoading {
			m.state = ViewStateList
		}
		return m, m.showToast(FetchErrorTitle + ": " + FetchErrorHint)
	}

	if !m.controller.Accept(msg.req, &msg.view) {
		return m, nil
	}
	m.view = msg.view
	m.shown = msg.req
	m.hasView = true
	m.list.SetItems(msg.view.Characters)
	m.loading.SetMessage(defaultLoadingMessage)
	if m.state == ViewStateLoading {
		m.state = ViewStateList
	}
	return m, nil
}

// showing reports whether the displayed view was loaded for the same filters
// and page as req.
func (m *BrowseModel) showing(req engine.Request) bool {
	return m.hasView && m.shown.Filters == req.Filters && m.shown.Page == req.Page
}

// clearView drops the displayed rows so a failed load for a new key shows
// the empty state instead of another key's data.
func (m *BrowseModel) clearView() {
	m.view = engine.View{}
	m.shown = engine.Request{}
	m.hasView = false
	m.list.SetItems([]catalog.Character{})
}

func (m *BrowseModel) handleLookupsLoaded(msg lookupsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log := logging.FromContext(m.ctx)
		log.Debug().Ctx(m.ctx).
			Str("component", "tui").
			Str("operation", "load_lookups").
			Err(msg.err).
			Msg("lookup lists unavailable")
		return m, nil
	}
	m.lookups = msg.lookups
	return m, nil
}

func (m *BrowseModel) handleFilterInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEnter:
			m.showFilter = false
			m.textInput.Blur()
			name := m.textInput.Value()
			if strings.TrimSpace(name) == m.controller.Filters().Name {
				return m, nil
			}
			return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Name: &name}))
		case keyEsc:
			m.showFilter = false
			m.textInput.Blur()
			m.textInput.SetValue(m.controller.Filters().Name)
			return m, nil
		case keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

//nolint:gocyclo,cyclop // One branch per key binding.
func (m *BrowseModel) handleListUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	filters := m.controller.Filters()
	switch keyMsg.String() {
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		return m, tea.Quit
	case keyEnter:
		if item := m.list.GetSelectedItem(); item != nil {
			c := *item
			m.selected = &c
			m.state = ViewStateDetail
		}
		return m, nil
	case keySlash:
		m.showFilter = true
		m.textInput.SetValue(filters.Name)
		m.textInput.CursorEnd()
		return m, tea.Batch(m.textInput.Focus(), textinput.Blink)
	case keyEsc:
		if filters.Name == "" {
			return m, nil
		}
		empty := ""
		m.textInput.SetValue("")
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Name: &empty}))
	case keyT:
		next := nextOption(engine.StatusOptions(), filters.Status)
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Status: &next}))
	case keyG:
		next := nextOption(engine.GenderOptions(), filters.Gender)
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Gender: &next}))
	case keyO:
		next := nextOption(withAny(m.lookups.Origins), filters.Origin)
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Origin: &next}))
	case keyL:
		next := nextOption(withAny(m.lookups.Locations), filters.Location)
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Location: &next}))
	case keyE:
		next := nextOption(withAny(episodeIDs(m.lookups.Episodes)), filters.Episode)
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{Episode: &next}))
	case keyS:
		next := nextSortKey(filters.SortBy)
		return m, m.issue(m.controller.ApplyFilters(engine.FilterPatch{SortBy: &next}))
	case keyR:
		m.textInput.SetValue("")
		return m, m.issue(m.controller.ResetFilters())
	case keyCtrlR:
		return m, m.refresh()
	case keyLeft, keyPrev:
		return m.goToPage(m.controller.Page() - 1)
	case keyRight, keyNext:
		return m.goToPage(m.controller.Page() + 1)
	}

	m.list.Update(keyMsg)
	return m, nil
}

func (m *BrowseModel) handleDetailUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		case keyEsc:
			m.state = ViewStateList
			m.selected = nil
			return m, nil
		}
	}
	return m, nil
}

func (m *BrowseModel) handleQuitKeys(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *BrowseModel) goToPage(page int) (tea.Model, tea.Cmd) {
	req, changed := m.controller.SetPage(page)
	if !changed {
		return m, nil
	}
	return m, m.issue(req)
}

// refresh drops cached responses and reloads the committed filters and page.
func (m *BrowseModel) refresh() tea.Cmd {
	if err := m.loader.ClearCache(); err != nil {
		log := logging.FromContext(m.ctx)
		log.Warn().Ctx(m.ctx).
			Str("component", "tui").
			Str("operation", "refresh").
			Err(err).
			Msg("clearing cache failed")
	}
	return m.issue(m.controller.Reload())
}

// issue starts loading req and restarts the spinner.
func (m *BrowseModel) issue(req engine.Request) tea.Cmd {
	return tea.Batch(m.loading.Init(), m.fetch(req))
}

func (m *BrowseModel) fetch(req engine.Request) tea.Cmd {
	ctx, loader := m.ctx, m.loader
	return func() tea.Msg {
		view, err := loader.Load(ctx, req.Filters, req.Page)
		return charactersLoadedMsg{req: req, view: view, err: err}
	}
}

func (m *BrowseModel) fetchLookups() tea.Cmd {
	ctx, loader := m.ctx, m.loader
	return func() tea.Msg {
		lookups, err := loader.Lookups(ctx)
		return lookupsLoadedMsg{lookups: lookups, err: err}
	}
}

func (m *BrowseModel) showToast(text string) tea.Cmd {
	m.toastID++
	m.toast = text
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func crawlProgressLine(msg CrawlProgressMsg) string {
	line := fmt.Sprintf("Scanning the multiverse... page %d of %d (%.0f%%)",
		msg.FetchedPages, msg.TotalPages, msg.Percent)
	if msg.Remaining >= time.Second {
		line += ", about " + cache.FormatDuration(msg.Remaining.Round(time.Second)) + " left"
	}
	return line
}

func (m *BrowseModel) listHeight() int {
	h := m.height - chromeHeight
	if h < minHeight {
		h = minHeight
	}
	return h
}

// nextOption returns the option after current, wrapping around. A current
// value not in options moves to the first option.
func nextOption(options []string, current string) string {
	if len(options) == 0 {
		return engine.AnyValue
	}
	for i, opt := range options {
		if strings.EqualFold(opt, current) {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func nextSortKey(current engine.SortKey) engine.SortKey {
	keys := engine.SortKeys()
	for i, k := range keys {
		if k == current {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

func withAny(values []string) []string {
	return append([]string{engine.AnyValue}, values...)
}

func episodeIDs(episodes []catalog.Episode) []string {
	ids := make([]string, len(episodes))
	for i, ep := range episodes {
		ids[i] = strconv.Itoa(ep.ID)
	}
	return ids
}
