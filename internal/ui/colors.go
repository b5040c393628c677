package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/frontdesk/internal/models"
)

var styles = NewPalette(Colors{
	Title:   "#7D56F4",
	OK:      "#04B575",
	Error:   "#FF0000",
	Warn:    "#FFA500",
	Muted:   "#626262",
	Filters: "#00AFD7",
})

// Colors are the foreground colors a [Palette] is built from.
type Colors struct {
	Title, OK, Error, Warn, Muted, Filters string
}

// Palette holds the styles of the list, detail, confirm and filter screens.
type Palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	empty   lipgloss.Style
	loading lipgloss.Style
	help    lipgloss.Style
	// filters renders the status line while filters or a sort are active, muted otherwise.
	filters lipgloss.Style
	muted   lipgloss.Style
}

func NewPalette(c Colors) *Palette {
	return &Palette{
		title:   NewBold(c.Title).MarginBottom(1),
		ok:      NewBold(c.OK),
		err:     NewBold(c.Error),
		empty:   NewStyle(c.Warn),
		loading: NewStyle(c.Warn),
		help:    NewEm(c.Muted),
		filters: NewBold(c.Filters),
		muted:   NewEm(c.Muted),
	}
}

// FilterLine picks the filter status style for state.
func (p *Palette) FilterLine(state models.FilterState) lipgloss.Style {
	if state.IsZero() {
		return p.muted
	}
	return p.filters
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
