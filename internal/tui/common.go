package tui

import (
	"os"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ViewState is the screen the browse model is showing.
type ViewState int

const (
	// ViewStateLoading is the first load, before any page has arrived.
	ViewStateLoading ViewState = iota
	// ViewStateList shows the current page of characters.
	ViewStateList
	// ViewStateDetail shows the card for the selected character.
	ViewStateDetail
	// ViewStateError is a fatal error; the program is about to exit.
	ViewStateError
	// ViewStateQuitting renders nothing while the program exits.
	ViewStateQuitting
)

// OutputMode is how results should be presented.
type OutputMode int

const (
	// OutputModePlain writes plain text, for pipes and redirects.
	OutputModePlain OutputMode = iota
	// OutputModeInteractive runs the full-screen browser.
	OutputModeInteractive
)

// Layout defaults used before the first WindowSizeMsg.
const (
	defaultWidth  = 100
	defaultHeight = 30
	minHeight     = 5

	filterInputCharLimit = 64
	filterInputWidth     = 32

	ellipsis = "..."

	defaultLoadingMessage = "Opening a portal..."
)

// Key names as reported by tea.KeyMsg.String().
const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyEnter = "enter"
	keyEsc   = "esc"
	keySlash = "/"
	keyS     = "s"
	keyT     = "t"
	keyG     = "g"
	keyO     = "o"
	keyL     = "l"
	keyE     = "e"
	keyR     = "r"
	keyCtrlR = "ctrl+r"
	keyLeft  = "left"
	keyRight = "right"
	keyPrev  = "["
	keyNext  = "]"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// DetectOutputMode picks the interactive browser only when both stdin and
// stdout are terminals and plain output was not forced.
func DetectOutputMode(forcePlain bool, stdin, stdout *os.File) OutputMode {
	if forcePlain || stdin == nil || stdout == nil {
		return OutputModePlain
	}
	if IsTerminal(stdin) && IsTerminal(stdout) {
		return OutputModeInteractive
	}
	return OutputModePlain
}

// LoadingState wraps the spinner shown while a request is in flight.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState creates a spinner with the default message.
func NewLoadingState() *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSpinner)
	return &LoadingState{spinner: s, message: defaultLoadingMessage}
}

// SetMessage replaces the text shown next to the spinner.
func (l *LoadingState) SetMessage(msg string) {
	l.message = msg
}

// Message returns the text shown next to the spinner.
func (l *LoadingState) Message() string {
	return l.message
}

// Init starts the spinner ticking.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its tick messages.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// RenderLoading returns the string to display for a loading screen.
// If loading is nil, it returns the plain text "Loading...".
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return "Loading..."
	}
	return "\n " + loading.spinner.View() + " " + loading.message + "\n\n"
}

// truncate shortens s to at most max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-len(ellipsis)]) + ellipsis
}
