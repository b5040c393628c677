// package formatter renders record pages and details for the CLI (table, CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	Table    Format = "table"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
	JSON     Format = "json"
)

// ParseFormat accepts a [Format] name, case-insensitively. "md" and "txt" are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return Table, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Column is one rendered field of R.
type Column[R models.Record] struct {
	Header string
	Value  func(R) string
}

// Columns lists the fields of R in display order.
type Columns[R models.Record] []Column[R]

func (c Columns[R]) headers() []string {
	out := make([]string, len(c))
	for i, col := range c {
		out[i] = col.Header
	}
	return out
}

func (c Columns[R]) row(r R) []string {
	out := make([]string, len(c))
	for i, col := range c {
		out[i] = col.Value(r)
	}
	return out
}

// Export renders a page of entity records in format.
func Export[R models.Record](format Format, entity models.Entity, cols Columns[R], result models.ListResult[R]) ([]byte, error) {
	switch format {
	case Table:
		return ExportToTable(entity, cols, result), nil
	case CSV:
		return ExportToCSV(cols, result.Items)
	case Markdown:
		return ExportToMarkdown(entity, cols, result), nil
	case Text:
		return ExportToText(entity, cols, result), nil
	case JSON:
		return ToJSON(result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV writes a header row followed by one row per record.
func ExportToCSV[R models.Record](cols Columns[R], items []R) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(cols.headers()); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		if err := writer.Write(cols.row(item)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToTable draws a bordered terminal table followed by the page summary.
func ExportToTable[R models.Record](entity models.Entity, cols Columns[R], result models.ListResult[R]) []byte {
	if len(result.Items) == 0 {
		return []byte(Empty(entity) + "\n")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(cols.headers()...)
	for _, item := range result.Items {
		t.Row(cols.row(item)...)
	}

	return []byte(t.Render() + "\n" + Summary(result) + "\n")
}

// ExportToMarkdown renders a Markdown table under a heading.
func ExportToMarkdown[R models.Record](entity models.Entity, cols Columns[R], result models.ListResult[R]) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %ss\n\n", entity.Label)
	if len(result.Items) == 0 {
		fmt.Fprintf(&buf, "%s\n", Empty(entity))
		return buf.Bytes()
	}

	headers := cols.headers()
	buf.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, item := range result.Items {
		cells := cols.row(item)
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	fmt.Fprintf(&buf, "\n%s\n", Summary(result))
	return buf.Bytes()
}

// ExportToText renders one numbered line per record with fields separated by " - ".
func ExportToText[R models.Record](entity models.Entity, cols Columns[R], result models.ListResult[R]) []byte {
	var buf bytes.Buffer

	if len(result.Items) == 0 {
		fmt.Fprintf(&buf, "%s\n", Empty(entity))
		return buf.Bytes()
	}

	offset := (max(result.Page, 1) - 1) * max(result.PageSize, 1)
	for i, item := range result.Items {
		var parts []string
		for _, v := range cols.row(item) {
			if v != "" {
				parts = append(parts, v)
			}
		}
		fmt.Fprintf(&buf, "%d. %s\n", offset+i+1, strings.Join(parts, " - "))
	}

	fmt.Fprintf(&buf, "\n%s\n", Summary(result))
	return buf.Bytes()
}

// ExportDetail renders one record as "Header: value" lines.
func ExportDetail[R models.Record](cols Columns[R], record R) []byte {
	var buf bytes.Buffer
	width := 0
	for _, col := range cols {
		width = max(width, len(col.Header))
	}
	for _, col := range cols {
		fmt.Fprintf(&buf, "%-*s  %s\n", width+1, col.Header+":", col.Value(record))
	}
	return buf.Bytes()
}

// ToJSON encodes v as indented JSON.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Summary describes which part of the result set a page shows.
func Summary[R models.Record](result models.ListResult[R]) string {
	return fmt.Sprintf("Showing %d of %d records (page %d of %d)", len(result.Items), result.Total, result.Page, result.TotalPages())
}

// Empty is shown in place of an empty page.
func Empty(entity models.Entity) string {
	return fmt.Sprintf("No %s found", entity.Plural)
}

// FilterStatus summarizes the active filters and sort of entity in one line.
func FilterStatus(entity models.Entity, state models.FilterState) string {
	filters := state.Filters.Prune()
	if len(filters) == 0 && state.SortField == "" {
		return "No filters applied"
	}

	var parts []string
	if len(filters) > 0 {
		active := make([]string, 0, len(filters))
		for _, k := range filters.Keys() {
			active = append(active, fmt.Sprintf("%s: %q", entity.FilterLabel(k), models.FormatValue(filters[k])))
		}
		parts = append(parts, "Filters: "+strings.Join(active, ", "))
	}
	if state.SortField != "" {
		arrow := "↑"
		if state.SortOrder == models.Desc {
			arrow = "↓"
		}
		parts = append(parts, fmt.Sprintf("Sort: %s %s", entity.SortLabel(state.SortField), arrow))
	}
	return strings.Join(parts, " | ")
}

// WriteExport writes a page in format to path, picking an extension from the format when path has none.
func WriteExport[R models.Record](path string, format Format, entity models.Entity, cols Columns[R], result models.ListResult[R]) (string, error) {
	if path == "" {
		path = entity.Plural
	}
	if !strings.Contains(path[strings.LastIndex(path, "/")+1:], ".") {
		path += extension(format)
	}

	data, err := Export(format, entity, cols, result)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func extension(f Format) string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case JSON:
		return ".json"
	default:
		return ".txt"
	}
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ClientColumns renders [models.Client].
var ClientColumns = Columns[models.Client]{
	{"ID", func(c models.Client) string { return models.FormatID(c.ID) }},
	{"Full name", models.Client.FullName},
	{"Phone", func(c models.Client) string { return c.Phone }},
	{"Email", func(c models.Client) string { return c.Email }},
	{"Passport", func(c models.Client) string { return c.Passport }},
	{"Comment", func(c models.Client) string { return c.Comment }},
}

// RoomColumns renders [models.Room].
var RoomColumns = Columns[models.Room]{
	{"ID", func(r models.Room) string { return models.FormatID(r.ID) }},
	{"Number", func(r models.Room) string { return r.RoomNumber }},
	{"Category", func(r models.Room) string { return r.Category }},
	{"Capacity", func(r models.Room) string { return strconv.Itoa(r.Capacity) }},
	{"Price/night", func(r models.Room) string { return money(r.PricePerNight) }},
	{"Available", func(r models.Room) string { return yesNo(r.IsAvailable) }},
	{"Description", func(r models.Room) string { return r.Description }},
}

// BookingColumns renders [models.Booking].
var BookingColumns = Columns[models.Booking]{
	{"ID", func(b models.Booking) string { return models.FormatID(b.ID) }},
	{"Client", func(b models.Booking) string { return models.FormatID(b.ClientID) }},
	{"Room", func(b models.Booking) string { return models.FormatID(b.RoomID) }},
	{"Check-in", func(b models.Booking) string { return b.CheckIn }},
	{"Check-out", func(b models.Booking) string { return b.CheckOut }},
	{"Sum", func(b models.Booking) string { return money(b.TotalSum) }},
	{"Status", func(b models.Booking) string { return b.Status }},
	{"Notes", func(b models.Booking) string { return b.Notes }},
}
