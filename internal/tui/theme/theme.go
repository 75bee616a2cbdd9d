// Package theme holds the console's colours and the styles built on them.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/sqlfn/value"
)

// Roles. Colours are ANSI 256 codes.
var (
	Accent = lipgloss.Color("63")  // titles, headers, the focused pane
	Frame  = lipgloss.Color("238") // pane borders and grid rules
	Dim    = lipgloss.Color("245") // hints, column kinds
	Faint  = lipgloss.Color("241") // NULL
	Good   = lipgloss.Color("42")  // completed statements
	Bad    = lipgloss.Color("196") // errors from the server or the console
	Pick   = lipgloss.Color("229") // the selected list entry

	Number  = lipgloss.Color("117")
	Instant = lipgloss.Color("180")
	Flag    = lipgloss.Color("141")
	Bytes   = lipgloss.Color("109")
)

var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Frame)

	StyleActiveBorder = StyleBorder.BorderForeground(Accent)

	StyleTitle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			Padding(0, 1)

	StyleHeader   = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	StyleMuted    = lipgloss.NewStyle().Foreground(Dim)
	StyleError    = lipgloss.NewStyle().Foreground(Bad)
	StyleSuccess  = lipgloss.NewStyle().Foreground(Good)
	StyleSelected = lipgloss.NewStyle().Foreground(Pick).Bold(true)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

var (
	nullCell = lipgloss.NewStyle().Foreground(Faint).Italic(true)
	kindCell = map[value.Kind]lipgloss.Style{
		value.KindDateTime:       lipgloss.NewStyle().Foreground(Instant),
		value.KindDateTimeOffset: lipgloss.NewStyle().Foreground(Instant),
		value.KindBool:           lipgloss.NewStyle().Foreground(Flag),
		value.KindBinary:         lipgloss.NewStyle().Foreground(Bytes),
		value.KindUUID:           lipgloss.NewStyle().Foreground(Bytes),
	}
	numberCell = lipgloss.NewStyle().Foreground(Number)
)

// Cell returns the style of a result cell holding v.
func Cell(v value.Value) lipgloss.Style {
	k := v.Kind()
	switch {
	case v.IsNull():
		return nullCell
	case k.Numeric():
		return numberCell
	}
	if s, ok := kindCell[k]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
