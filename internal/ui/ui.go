package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/records"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	ConfirmView
	FilterView
)

// Controller receives the user's intents. [console.Orchestrator] implements it.
type Controller interface {
	Refresh(ctx context.Context) *records.Pending
	LoadPage(ctx context.Context, page int) *records.Pending
	ShowDetail(ctx context.Context, id int64) *records.Pending
	Delete(ctx context.Context, id int64) *records.Pending
	ApplyFilters(ctx context.Context, filters models.Filters, sort, order string) *records.Pending
	ResetFilters(ctx context.Context) *records.Pending
}

// Model represents the TUI application state for one entity.
type Model[R models.Record] struct {
	ctx    context.Context
	entity models.Entity
	cols   formatter.Columns[R]
	ctrl   Controller
	start  func(ctx context.Context)

	view    ViewState
	width   int
	height  int
	list    list.Model
	result  models.ListResult[R]
	detail  *R
	target  *R
	filters models.FilterState

	status   string
	isErr    bool
	loading  bool
	spinner  spinner.Model
	input    textinput.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// NewModel creates a TUI model. start runs once from [Model.Init], typically [console.Module.Init].
func NewModel[R models.Record](ctx context.Context, entity models.Entity, cols formatter.Columns[R], ctrl Controller, start func(ctx context.Context)) *Model[R] {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = entity.Label + "s"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	in := textinput.New()
	in.Placeholder = placeholder(entity)
	in.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model[R]{
		ctx:     ctx,
		entity:  entity,
		cols:    cols,
		ctrl:    ctrl,
		start:   start,
		view:    ListView,
		list:    l,
		spinner: sp,
		input:   in,
		help:    help.New(),
		keys:    newKeyMap(),
		loading: true,
	}
}

// Init starts the spinner and the module.
func (m *Model[R]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		if m.start != nil {
			m.start(m.ctx)
		}
		return nil
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model[R]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case FilterView:
			return m.handleFilterKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == ListView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model[R]) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListLoaded:
		result, ok := msg.data.(models.ListResult[R])
		if !ok {
			return m, nil
		}
		m.result = result
		m.loading = false
		m.list.Title = fmt.Sprintf("%ss (page %d of %d)", m.entity.Label, result.Page, result.TotalPages())
		return m, m.list.SetItems(toItems(result.Items, m.cols))

	case MsgDetailLoaded:
		record, ok := msg.data.(R)
		if !ok {
			return m, nil
		}
		m.detail = &record
		m.view = DetailView
		return m, nil

	case MsgStatus:
		s := msg.data.(statusData)
		m.status, m.isErr = s.text, s.err
		if s.err {
			m.loading = false
		}
		return m, nil

	case MsgLoading:
		m.loading = true
		return m, m.spinner.Tick

	case MsgFilterStatus:
		m.filters = msg.data.(models.FilterState)
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model[R]) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case FilterView:
		return m.renderFilter()
	default:
		return m.renderList()
	}
}

// State returns the current view state.
func (m *Model[R]) State() ViewState { return m.view }

// Status returns the status line text and whether it reports an error.
func (m *Model[R]) Status() (string, bool) { return m.status, m.isErr }

func (m *Model[R]) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if r, ok := m.selected(); ok {
			id := r.RecordID()
			return m, m.control(func(ctx context.Context, c Controller) { c.ShowDetail(ctx, id) })
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if r, ok := m.selected(); ok {
			m.target = &r
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.control(func(ctx context.Context, c Controller) { c.Refresh(ctx) })
	case key.Matches(msg, m.keys.next):
		if page := m.result.Page + 1; m.result.Page < m.result.TotalPages() {
			return m, m.control(func(ctx context.Context, c Controller) { c.LoadPage(ctx, page) })
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if page := m.result.Page - 1; m.result.Page > 1 {
			return m, m.control(func(ctx context.Context, c Controller) { c.LoadPage(ctx, page) })
		}
		return m, nil
	case key.Matches(msg, m.keys.filter):
		m.view = FilterView
		m.input.SetValue(encodeFilters(m.filters.Filters))
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.reset):
		return m, m.control(func(ctx context.Context, c Controller) { c.ResetFilters(ctx) })
	case key.Matches(msg, m.keys.sort):
		return m, m.apply(m.filters.Filters, nextSort(m.entity, m.filters.SortField), string(m.filters.SortOrder))
	case key.Matches(msg, m.keys.order):
		if m.filters.SortField != "" {
			order := models.Desc
			if m.filters.SortOrder == models.Desc {
				order = models.Asc
			}
			return m, m.apply(m.filters.Filters, m.filters.SortField, string(order))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model[R]) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = ListView
		m.detail = nil
	}
	return m, nil
}

func (m *Model[R]) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		var cmd tea.Cmd
		if m.target != nil {
			id := (*m.target).RecordID()
			cmd = m.control(func(ctx context.Context, c Controller) { c.Delete(ctx, id) })
		}
		m.target = nil
		m.view = ListView
		return m, cmd
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.target = nil
		m.view = ListView
	}
	return m, nil
}

func (m *Model[R]) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.view = ListView
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEnter:
		filters, err := ParseFilters(m.entity, m.input.Value())
		if err != nil {
			m.status, m.isErr = err.Error(), true
			return m, nil
		}
		m.input.Blur()
		m.view = ListView
		return m, m.apply(filters, m.filters.SortField, string(m.filters.SortOrder))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// control runs fn on a command goroutine. The controller reports back through
// a view that sends into this program, so it must not be called from Update.
func (m *Model[R]) control(fn func(ctx context.Context, c Controller)) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		fn(ctx, ctrl)
		return nil
	}
}

func (m *Model[R]) apply(filters models.Filters, sort, order string) tea.Cmd {
	filters = filters.Clone()
	return m.control(func(ctx context.Context, c Controller) { c.ApplyFilters(ctx, filters, sort, order) })
}

func (m *Model[R]) selected() (R, bool) {
	if item, ok := m.list.SelectedItem().(recordItem[R]); ok {
		return item.record, true
	}
	var zero R
	return zero, false
}

func (m *Model[R]) statusLine() string {
	var parts []string
	if m.loading {
		parts = append(parts, m.spinner.View()+styles.loading.Render(" Loading..."))
	}
	if m.status != "" {
		if m.isErr {
			parts = append(parts, styles.err.Render("Error: "+m.status))
		} else {
			parts = append(parts, styles.ok.Render(m.status))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model[R]) renderList() string {
	var b strings.Builder
	if len(m.result.Items) == 0 && !m.loading {
		b.WriteString(styles.title.Render(m.entity.Label+"s") + "\n")
		b.WriteString(styles.empty.Render(formatter.Empty(m.entity)) + "\n")
	} else {
		b.WriteString(m.list.View() + "\n")
	}
	b.WriteString(styles.FilterLine(m.filters).Render(formatter.FilterStatus(m.entity, m.filters)) + "\n")
	if len(m.result.Items) > 0 {
		b.WriteString(styles.help.Render(formatter.Summary(m.result)) + "\n")
	}
	b.WriteString(m.statusLine() + "\n\n")

	helpKeys := []key.Binding{m.keys.enter, m.keys.prev, m.keys.next, m.keys.refresh, m.keys.filter, m.keys.sort, m.keys.order, m.keys.reset, m.keys.remove, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model[R]) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("%s #%d", m.entity.Label, (*m.detail).RecordID()))
	body := string(formatter.ExportDetail(m.cols, *m.detail))

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, body, m.statusLine(), m.help.ShortHelpView(helpKeys))
}

func (m *Model[R]) renderConfirm() string {
	if m.target == nil {
		return ""
	}
	item := newRecordItem(*m.target, m.cols)
	title := styles.title.Render(fmt.Sprintf("Delete %s %s?", strings.ToLower(m.entity.Label), item.Title()))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s", title, m.help.ShortHelpView(helpKeys))
}

func (m *Model[R]) renderFilter() string {
	title := styles.title.Render("Filter " + m.entity.Plural)

	var keys []string
	for _, f := range m.entity.Filters {
		keys = append(keys, fmt.Sprintf("%s (%s)", f.Key, f.Label))
	}
	hint := styles.help.Render("Keys: " + strings.Join(keys, ", "))

	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		m.keys.back,
	}
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n\n%s", title, m.input.View(), hint, m.statusLine(), m.help.ShortHelpView(helpKeys))
}

// ParseFilters reads space-separated key=value pairs. Keys must be in the entity's filter catalog.
func ParseFilters(entity models.Entity, s string) (models.Filters, error) {
	filters := models.Filters{}
	for _, field := range strings.Fields(s) {
		k, v, ok := strings.Cut(field, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", field)
		}
		if !entity.HasFilter(k) {
			return nil, fmt.Errorf("unknown filter %q", k)
		}
		filters[k] = v
	}
	return filters.Prune(), nil
}

func encodeFilters(f models.Filters) string {
	var parts []string
	for _, k := range f.Keys() {
		parts = append(parts, k+"="+models.FormatValue(f[k]))
	}
	return strings.Join(parts, " ")
}

// nextSort cycles through the sort catalog, then back to no sort.
func nextSort(entity models.Entity, current string) string {
	for i, s := range entity.Sorts {
		if s.Key == current {
			if i+1 < len(entity.Sorts) {
				return entity.Sorts[i+1].Key
			}
			return ""
		}
	}
	if len(entity.Sorts) == 0 {
		return ""
	}
	return entity.Sorts[0].Key
}

func placeholder(entity models.Entity) string {
	if len(entity.Filters) == 0 {
		return "key=value"
	}
	return entity.Filters[0].Key + "=..."
}
