package ui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/records"
)

type call struct {
	name    string
	id      int64
	page    int
	filters models.Filters
	sort    string
	order   string
}

type fakeController struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeController) add(c call) *records.Pending {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	return nil
}

func (f *fakeController) Refresh(context.Context) *records.Pending {
	return f.add(call{name: "refresh"})
}

func (f *fakeController) LoadPage(_ context.Context, page int) *records.Pending {
	return f.add(call{name: "page", page: page})
}

func (f *fakeController) ShowDetail(_ context.Context, id int64) *records.Pending {
	return f.add(call{name: "detail", id: id})
}

func (f *fakeController) Delete(_ context.Context, id int64) *records.Pending {
	return f.add(call{name: "delete", id: id})
}

func (f *fakeController) ApplyFilters(_ context.Context, filters models.Filters, sort, order string) *records.Pending {
	return f.add(call{name: "apply", filters: filters, sort: sort, order: order})
}

func (f *fakeController) ResetFilters(context.Context) *records.Pending {
	return f.add(call{name: "reset"})
}

func (f *fakeController) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("expected a controller call")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeController) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) { s.msgs = append(s.msgs, msg) }

func newTestModel(t *testing.T) (*Model[models.Client], *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	m := NewModel(context.Background(), models.Clients, formatter.ClientColumns, ctrl, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, ctrl
}

func page(n, total int) models.ListResult[models.Client] {
	return models.ListResult[models.Client]{
		Items: []models.Client{
			{ID: 1, Surname: "Ivanov", Name: "Ivan", Phone: "+7999"},
			{ID: 2, Surname: "Petrova", Name: "Anna", Phone: "+7888"},
		},
		Total:    total,
		Page:     n,
		PageSize: 2,
	}
}

// press sends a key to m and runs the command it returns, as the program would.
func press(m *Model[models.Client], k string) {
	if _, cmd := m.Update(keyMsg(k)); cmd != nil {
		cmd()
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestProgramView(t *testing.T) {
	s := &recordingSender{}
	v := NewProgramView[models.Client](s)

	v.ShowLoading()
	v.RenderList(page(1, 2))
	v.ShowDetail(models.Client{ID: 1})
	v.ShowSuccess("Data refreshed")
	v.ShowError("Failed to load clients")
	v.ShowFilterStatus(models.FilterState{SortField: "surname"})

	want := []MsgKind{MsgLoading, MsgListLoaded, MsgDetailLoaded, MsgStatus, MsgStatus, MsgFilterStatus}
	if len(s.msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(s.msgs))
	}
	for i, k := range want {
		if got := s.msgs[i].(Msg).Kind(); got != k {
			t.Errorf("message %d: expected kind %d, got %d", i, k, got)
		}
	}
}

func TestModel(t *testing.T) {
	t.Run("Renders Loaded Page", func(t *testing.T) {
		m, _ := newTestModel(t)

		m.Update(listLoadedMsg(page(1, 4)))

		out := m.View()
		for _, want := range []string{"#1 Ivanov Ivan", "#2 Petrova Anna", "page 1 of 2", "No filters applied"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in view:\n%s", want, out)
			}
		}
	})

	t.Run("Empty Page", func(t *testing.T) {
		m, _ := newTestModel(t)

		m.Update(listLoadedMsg(models.ListResult[models.Client]{Items: []models.Client{}, Page: 1, PageSize: 1}))

		if !strings.Contains(m.View(), "No clients found") {
			t.Errorf("expected empty message, got:\n%s", m.View())
		}
	})

	t.Run("Status Messages", func(t *testing.T) {
		m, _ := newTestModel(t)

		m.Update(statusMsg("Failed to load clients", true))
		if text, isErr := m.Status(); text != "Failed to load clients" || !isErr {
			t.Errorf("unexpected status %q %v", text, isErr)
		}
		if !strings.Contains(m.View(), "Error: Failed to load clients") {
			t.Errorf("expected error in view")
		}

		m.Update(statusMsg("Data refreshed", false))
		if text, isErr := m.Status(); text != "Data refreshed" || isErr {
			t.Errorf("unexpected status %q %v", text, isErr)
		}
	})

	t.Run("Enter Requests Detail", func(t *testing.T) {
		m, ctrl := newTestModel(t)
		m.Update(listLoadedMsg(page(1, 2)))

		press(m, "enter")

		if c := ctrl.last(t); c.name != "detail" || c.id != 1 {
			t.Errorf("unexpected call %+v", c)
		}

		m.Update(detailLoadedMsg(models.Client{ID: 1, Surname: "Ivanov", Phone: "+7999"}))
		if m.State() != DetailView {
			t.Fatalf("expected detail view, got %d", m.State())
		}
		if out := m.View(); !strings.Contains(out, "Client #1") || !strings.Contains(out, "+7999") {
			t.Errorf("unexpected detail view:\n%s", out)
		}

		m.Update(keyMsg("esc"))
		if m.State() != ListView {
			t.Errorf("expected list view, got %d", m.State())
		}
	})

	t.Run("Delete Requires Confirmation", func(t *testing.T) {
		m, ctrl := newTestModel(t)
		m.Update(listLoadedMsg(page(1, 2)))

		m.Update(keyMsg("d"))
		if m.State() != ConfirmView || ctrl.count() != 0 {
			t.Fatalf("expected confirmation before delete")
		}
		m.Update(keyMsg("n"))
		if m.State() != ListView || ctrl.count() != 0 {
			t.Fatalf("expected cancel to skip delete")
		}

		m.Update(keyMsg("d"))
		press(m, "y")
		if c := ctrl.last(t); c.name != "delete" || c.id != 1 {
			t.Errorf("unexpected call %+v", c)
		}
	})

	t.Run("Paging Stays In Range", func(t *testing.T) {
		m, ctrl := newTestModel(t)
		m.Update(listLoadedMsg(page(1, 4)))

		press(m, "h")
		if ctrl.count() != 0 {
			t.Error("expected no previous page from page 1")
		}

		press(m, "l")
		if c := ctrl.last(t); c.name != "page" || c.page != 2 {
			t.Errorf("unexpected call %+v", c)
		}

		m.Update(listLoadedMsg(page(2, 4)))
		press(m, "l")
		if ctrl.count() != 1 {
			t.Error("expected no next page from the last page")
		}
	})

	t.Run("Refresh And Reset", func(t *testing.T) {
		m, ctrl := newTestModel(t)

		press(m, "r")
		if c := ctrl.last(t); c.name != "refresh" {
			t.Errorf("unexpected call %+v", c)
		}
		press(m, "x")
		if c := ctrl.last(t); c.name != "reset" {
			t.Errorf("unexpected call %+v", c)
		}
	})

	t.Run("Controller Runs Outside Update", func(t *testing.T) {
		m, ctrl := newTestModel(t)
		m.Update(listLoadedMsg(page(1, 4)))

		for _, k := range []string{"r", "x", "s", "l"} {
			_, cmd := m.Update(keyMsg(k))
			if ctrl.count() != 0 {
				t.Fatalf("key %q called the controller inside Update", k)
			}
			if cmd == nil {
				t.Fatalf("key %q returned no command", k)
			}
		}
	})

	t.Run("Sort Cycles And Order Toggles", func(t *testing.T) {
		m, ctrl := newTestModel(t)

		press(m, "s")
		if c := ctrl.last(t); c.name != "apply" || c.sort != "id" {
			t.Errorf("unexpected call %+v", c)
		}

		m.Update(filterStatusMsg(models.FilterState{SortField: "phone", SortOrder: models.Asc}))
		press(m, "s")
		if c := ctrl.last(t); c.sort != "" {
			t.Errorf("expected sort to wrap to none, got %+v", c)
		}

		press(m, "o")
		if c := ctrl.last(t); c.sort != "phone" || c.order != "desc" {
			t.Errorf("unexpected call %+v", c)
		}
	})

	t.Run("Filter Input", func(t *testing.T) {
		m, ctrl := newTestModel(t)

		m.Update(keyMsg("f"))
		if m.State() != FilterView {
			t.Fatalf("expected filter view, got %d", m.State())
		}
		for _, r := range "surname_prefix=Iv" {
			m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
		press(m, "enter")

		c := ctrl.last(t)
		if c.name != "apply" || c.filters["surname_prefix"] != "Iv" {
			t.Errorf("unexpected call %+v", c)
		}
		if m.State() != ListView {
			t.Errorf("expected list view after apply, got %d", m.State())
		}
	})

	t.Run("Invalid Filter Stays Open", func(t *testing.T) {
		m, ctrl := newTestModel(t)

		m.Update(keyMsg("f"))
		for _, r := range "bogus=1" {
			m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
		m.Update(keyMsg("enter"))

		if m.State() != FilterView || ctrl.count() != 0 {
			t.Errorf("expected filter view to stay open without applying")
		}
		if text, isErr := m.Status(); !isErr || !strings.Contains(text, "bogus") {
			t.Errorf("unexpected status %q", text)
		}
	})
}

func TestPalette(t *testing.T) {
	p := NewPalette(Colors{Filters: "#00AFD7", Muted: "#626262"})

	if got := p.FilterLine(models.FilterState{}).GetForeground(); got != lipgloss.Color("#626262") {
		t.Errorf("expected muted status without filters, got %v", got)
	}
	active := models.FilterState{Filters: models.Filters{"surname_prefix": "Iv"}}
	if got := p.FilterLine(active).GetForeground(); got != lipgloss.Color("#00AFD7") {
		t.Errorf("expected highlighted status with filters, got %v", got)
	}
	if got := p.FilterLine(models.FilterState{SortField: "phone"}).GetForeground(); got != lipgloss.Color("#00AFD7") {
		t.Errorf("expected highlighted status with a sort, got %v", got)
	}
}

func TestParseFilters(t *testing.T) {
	got, err := ParseFilters(models.Rooms, "category=Lux  min_capacity=2 room_number_substring=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got["category"] != "Lux" || got["min_capacity"] != "2" {
		t.Errorf("unexpected filters %v", got)
	}

	for _, bad := range []string{"category", "=x", "price=1"} {
		if _, err := ParseFilters(models.Rooms, bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
