// Package listview provides the scrolling character list used by the
// interactive browser. Only rows inside the viewport are rendered; the
// selection moves with up/down, j/k, pgup/pgdn and home/end.
package listview
