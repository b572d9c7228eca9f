package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one row. selected marks the highlighted row.
type RenderFunc[T any] func(item T, selected bool) string

// VirtualListModel is a scrolling list that renders only the rows inside its
// viewport, so a crawled catalog of several hundred characters costs the same
// per frame as a single page.
type VirtualListModel[T any] struct {
	items    []T
	render   RenderFunc[T]
	selected int
	// top is the index of the first row in the viewport.
	top    int
	height int
}

// NewVirtualListModel creates a list showing height rows of items.
func NewVirtualListModel[T any](items []T, height int, render RenderFunc[T]) *VirtualListModel[T] {
	return &VirtualListModel[T]{
		items:  items,
		render: render,
		height: max(height, 1),
	}
}

// Update moves the selection for the navigation keys and ignores the rest.
//
//nolint:exhaustive // Only navigation keys move the selection.
func (m *VirtualListModel[T]) Update(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyUp:
		m.moveTo(m.selected - 1)
	case tea.KeyDown:
		m.moveTo(m.selected + 1)
	case tea.KeyPgUp:
		m.moveTo(m.selected - m.height)
	case tea.KeyPgDown:
		m.moveTo(m.selected + m.height)
	case tea.KeyHome:
		m.moveTo(0)
	case tea.KeyEnd:
		m.moveTo(len(m.items) - 1)
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "j":
			m.moveTo(m.selected + 1)
		case "k":
			m.moveTo(m.selected - 1)
		}
	}
}

// View renders the rows inside the viewport.
func (m *VirtualListModel[T]) View() string {
	end := min(m.top+m.height, len(m.items))
	lines := make([]string, 0, end-m.top)
	for i := m.top; i < end; i++ {
		lines = append(lines, m.render(m.items[i], i == m.selected))
	}
	return strings.Join(lines, "\n")
}

// SetItems replaces the list contents and moves the selection to the top.
func (m *VirtualListModel[T]) SetItems(items []T) {
	m.items = items
	m.selected = 0
	m.top = 0
}

// SetHeight resizes the viewport, keeping the selection visible.
func (m *VirtualListModel[T]) SetHeight(height int) {
	m.height = max(height, 1)
	m.scroll()
}

// Height returns the viewport height in rows.
func (m *VirtualListModel[T]) Height() int {
	return m.height
}

// GetSelectedItem returns the selected item, or nil when the list is empty.
func (m *VirtualListModel[T]) GetSelectedItem() *T {
	if m.selected >= len(m.items) {
		return nil
	}
	return &m.items[m.selected]
}

func (m *VirtualListModel[T]) moveTo(index int) {
	if len(m.items) == 0 {
		return
	}
	m.selected = min(max(index, 0), len(m.items)-1)
	m.scroll()
}

// scroll moves the viewport the least distance that shows the selection.
func (m *VirtualListModel[T]) scroll() {
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+m.height {
		m.top = m.selected - m.height + 1
	}
	m.top = max(min(m.top, len(m.items)-m.height), 0)
}
