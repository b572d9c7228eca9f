package tui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//nolint:gochecknoglobals // Shared English printer for counts.
var countPrinter = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators, e.g. 1,024.
func FormatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

// Plural returns word, or word+"s" unless n is exactly one.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// FoundLine is the results header shown above the list.
func FoundLine(n int) string {
	return "Found " + FormatCount(n) + " " + Plural(n, "character") + " in the multiverse"
}

// FooterLine is the page summary shown under the pager.
func FooterLine(page, pages, total int) string {
	return "Page " + FormatCount(page) + " of " + FormatCount(pages) +
		" (" + FormatCount(total) + " characters discovered)"
}
