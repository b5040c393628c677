package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
)

var _ list.Item = recordItem[models.Client]{}

// recordItem wraps a record to implement [list.Item].
//
// The first two columns form the title ("#<id> <name>") and the rest the description.
type recordItem[R models.Record] struct {
	record R
	cells  []string
}

func newRecordItem[R models.Record](record R, cols formatter.Columns[R]) recordItem[R] {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = c.Value(record)
	}
	return recordItem[R]{record: record, cells: cells}
}

func (i recordItem[R]) FilterValue() string { return strings.Join(i.cells, " ") }

func (i recordItem[R]) Title() string {
	title := "#" + models.FormatID(i.record.RecordID())
	if len(i.cells) > 1 {
		title += " " + i.cells[1]
	}
	return title
}

func (i recordItem[R]) Description() string {
	var parts []string
	if len(i.cells) > 2 {
		for _, c := range i.cells[2:] {
			if c != "" {
				parts = append(parts, c)
			}
		}
	}
	return strings.Join(parts, " • ")
}

func toItems[R models.Record](records []R, cols formatter.Columns[R]) []list.Item {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = newRecordItem(r, cols)
	}
	return items
}
