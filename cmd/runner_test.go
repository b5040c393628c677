package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/refresh"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/server"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
	tu "github.com/desertthunder/frontdesk/internal/testing"
)

const ivanov = `{"id":1,"surname":"Ivanov","name":"Ivan","phone":"123"}`

// recordStore serves the client endpoints and remembers list queries and posted bodies.
type recordStore struct {
	mu      sync.Mutex
	queries []url.Values
	posts   []map[string]any
}

func (s *recordStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/clients":
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		s.mu.Unlock()
		w.Write([]byte(`{"items":[` + ivanov + `],"total":1,"page":1,"page_size":10}`))
	case r.Method == http.MethodGet && (r.URL.Path == "/api/clients/1" || r.URL.Path == "/api/clients/1/edit/form"):
		w.Write([]byte(ivanov))
	case r.Method == http.MethodDelete && r.URL.Path == "/api/clients/1":
		w.Write([]byte(`{"success":true,"message":"Client removed"}`))
	case r.Method == http.MethodPost && (r.URL.Path == "/api/clients/add" || r.URL.Path == "/api/clients/1/edit"):
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.posts = append(s.posts, body)
		s.mu.Unlock()

		if _, ok := body["surname"]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"message":"Check the form","errors":{"surname":"Surname is required"}}`))
			return
		}
		w.Write([]byte(`{"success":true,"id":7}`))
	default:
		http.NotFound(w, r)
	}
}

func (s *recordStore) lastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	return s.queries[len(s.queries)-1]
}

func (s *recordStore) lastPost() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posts) == 0 {
		return nil
	}
	return s.posts[len(s.posts)-1]
}

type testRunner struct {
	*Runner
	out     *bytes.Buffer
	store   repositories.Store
	backend *recordStore
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()

	backend := &recordStore{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	config := shared.DefaultConfig()
	config.Telemetry.Metrics = false
	config.Refresh.Listen = ""

	out := &bytes.Buffer{}
	store := repositories.NewMemoryStore()
	r := NewRunner(RunnerOpts{
		Config: config,
		API:    services.NewAPIService(srv.URL, srv.Client()),
		Logger: shared.DiscardLogger(),
		Input:  strings.NewReader(""),
		Output: out,
		Store:  store,
	})
	t.Cleanup(func() { r.Close(context.Background()) })
	return &testRunner{Runner: r, out: out, store: store, backend: backend}
}

func (tr *testRunner) run(t *testing.T, args ...string) error {
	t.Helper()
	tr.out.Reset()
	argv := append([]string{appName, "--config", filepath.Join(t.TempDir(), "missing.toml")}, args...)
	return newApp(tr.Runner).Run(context.Background(), argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := &services.APIService{}
			store := repositories.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if got, err := runner.openStore(); err != nil || got != store {
				t.Errorf("expected injected store, got %v (%v)", got, err)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("injected store is not closed", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			runner := NewRunner(RunnerOpts{Store: store})
			if err := runner.Close(context.Background()); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if err := store.Set(context.Background(), "k", "v"); err != nil {
				t.Errorf("store should still be usable: %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := output.String(); got != "{\n  \"key\": \"value\"\n}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := output.String(); got != "{\"n\":1}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected write error")
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &w})
			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected newline write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("%d rooms\n", 3); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "3 rooms\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		var names []string
		for _, cmd := range runner.register() {
			names = append(names, cmd.Name)
		}
		want := "setup clients rooms bookings api"
		if got := strings.Join(names, " "); got != want {
			t.Errorf("expected commands %q, got %q", want, got)
		}
	})

	t.Run("confirm", func(t *testing.T) {
		for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
			runner := NewRunner(RunnerOpts{Input: strings.NewReader(input), Output: &bytes.Buffer{}})
			if got := runner.confirm("Delete?"); got != want {
				t.Errorf("confirm(%q) = %v, want %v", input, got, want)
			}
		}
	})
}

func TestRecordCommands(t *testing.T) {
	t.Run("list renders a table with the summary", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "list"); err != nil {
			t.Fatalf("list: %v", err)
		}
		out := tr.out.String()
		for _, want := range []string{"Ivanov Ivan", "Showing 1 of 1 records (page 1 of 1)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("list flags apply to that listing only", func(t *testing.T) {
		tr := newTestRunner(t)
		err := tr.run(t, "clients", "list", "--filter", "surname_prefix=Iv", "--sort", "surname", "--order", "desc", "--page", "2", "--format", "csv")
		if err != nil {
			t.Fatalf("list: %v", err)
		}

		q := tr.backend.lastQuery()
		if q.Get("surname_prefix") != "Iv" || q.Get("sort") != "surname" || q.Get("sort_order") != "desc" || q.Get("page") != "2" {
			t.Errorf("unexpected query %v", q)
		}
		if !strings.HasPrefix(tr.out.String(), "ID,Full name") {
			t.Errorf("csv output should start with the header, got %q", tr.out.String())
		}
		if _, ok, _ := tr.store.Get(context.Background(), models.Clients.FiltersKey()); ok {
			t.Error("list must not persist filters")
		}
	})

	t.Run("list rejects unknown filters and sorts", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "list", "--filter", "room_id=1"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for filter, got %v", err)
		}
		if err := tr.run(t, "clients", "list", "--sort", "price"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for sort, got %v", err)
		}
		if err := tr.run(t, "clients", "list", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for format, got %v", err)
		}
	})

	t.Run("list writes an export file", func(t *testing.T) {
		tr := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "clients")
		if err := tr.run(t, "clients", "list", "--format", "csv", "--output", path); err != nil {
			t.Fatalf("list: %v", err)
		}
		tu.AssertFileExists(t, path+".csv")
		if !strings.Contains(tu.MustReadFile(t, path+".csv"), "Ivanov Ivan") {
			t.Error("export should contain the record")
		}
		if !strings.Contains(tr.out.String(), "Exported 1 clients") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})

	t.Run("filter persists and later listings restore it", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "filter", "--filter", "surname_prefix=Iv", "--sort", "surname", "--order", "desc"); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if !strings.Contains(tr.out.String(), "Data refreshed") {
			t.Errorf("filter should confirm the reload, got:\n%s", tr.out.String())
		}
		raw, ok, _ := tr.store.Get(context.Background(), models.Clients.FiltersKey())
		if !ok || !strings.Contains(raw, "Iv") {
			t.Fatalf("filters not persisted: %q", raw)
		}

		if err := tr.run(t, "clients", "list"); err != nil {
			t.Fatalf("list: %v", err)
		}
		if q := tr.backend.lastQuery(); q.Get("surname_prefix") != "Iv" || q.Get("sort_order") != "desc" {
			t.Errorf("restored query %v", q)
		}
		if !strings.Contains(tr.out.String(), `Filters: Surname: "Iv" | Sort: Surname ↓`) {
			t.Errorf("expected filter status, got:\n%s", tr.out.String())
		}

		if err := tr.run(t, "clients", "filter"); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if !strings.Contains(tr.out.String(), `Surname: "Iv"`) {
			t.Errorf("filter without flags should print the saved state, got %q", tr.out.String())
		}

		if err := tr.run(t, "clients", "reset"); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if q := tr.backend.lastQuery(); q.Has("surname_prefix") || q.Has("sort") {
			t.Errorf("reset should clear the query, got %v", q)
		}
		if err := tr.run(t, "clients", "filter"); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if strings.TrimSpace(tr.out.String()) != "No filters applied" {
			t.Errorf("unexpected status %q", tr.out.String())
		}
	})

	t.Run("show renders one record", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "show", "--format", "json", "1"); err != nil {
			t.Fatalf("show: %v", err)
		}
		if !strings.Contains(tr.out.String(), `"surname": "Ivanov"`) {
			t.Errorf("unexpected output %q", tr.out.String())
		}

		if err := tr.run(t, "clients", "show", "2"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := tr.run(t, "clients", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		t.Run("shows the server message", func(t *testing.T) {
			tr := newTestRunner(t)
			if err := tr.run(t, "clients", "delete", "--yes", "1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if !strings.Contains(tr.out.String(), "✓ Client removed") {
				t.Errorf("unexpected output %q", tr.out.String())
			}
		})

		t.Run("asks before deleting", func(t *testing.T) {
			tr := newTestRunner(t)
			tr.input = strings.NewReader("n\n")
			if err := tr.run(t, "clients", "delete", "1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if !strings.Contains(tr.out.String(), "Cancelled") {
				t.Errorf("unexpected output %q", tr.out.String())
			}
		})
	})
}

func TestExportCommand(t *testing.T) {
	tr := newTestRunner(t)
	ctx := context.Background()
	if err := tr.store.Set(ctx, models.Clients.FiltersKey(), `{"surname_prefix":"Iv"}`); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "export")
	if err := tr.run(t, "clients", "export", "--format", "csv", "--dir", dir); err != nil {
		t.Fatalf("export: %v", err)
	}
	tu.AssertFileExists(t, filepath.Join(dir, "clients_page_001.csv"))
	tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	if !strings.Contains(tr.out.String(), "Exported 1 of 1 pages") {
		t.Errorf("unexpected output %q", tr.out.String())
	}
	if q := tr.backend.lastQuery(); q.Get("surname_prefix") != "Iv" {
		t.Errorf("export should use the saved filters, got %v", q)
	}
}

func TestFormCommands(t *testing.T) {
	t.Run("add notifies the opener over HTTP", func(t *testing.T) {
		tr := newTestRunner(t)

		inbox := refresh.NewHTTPInbox(models.Clients)
		router := server.NewBasicRouter()
		router.Handler(inbox)
		opener := httptest.NewServer(router)
		t.Cleanup(opener.Close)
		t.Cleanup(func() { inbox.Close() })

		if err := tr.run(t, "clients", "add", "--field", "surname=Petrov", "--field", "phone=+7999", "--opener", opener.URL); err != nil {
			t.Fatalf("add: %v", err)
		}
		if !strings.Contains(tr.out.String(), "✓ Client created") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
		if got := tr.backend.lastPost()["phone"]; got != "+7999" {
			t.Errorf("phone should stay a string, got %#v", got)
		}

		select {
		case env := <-inbox.Messages():
			if env.Origin != tr.config.Refresh.Origin {
				t.Errorf("origin %q", env.Origin)
			}
			if env.Message.Type != "client_form_closed" || env.Message.Action != refresh.ActionAdd {
				t.Errorf("unexpected message %+v", env.Message)
			}
			if env.Message.ID == nil || *env.Message.ID != 7 {
				t.Errorf("expected id 7, got %v", env.Message.ID)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("opener was not notified")
		}
		if _, ok, _ := tr.store.Get(context.Background(), models.Clients.RefreshKey()); ok {
			t.Error("signal should not be raised when the opener answered")
		}
	})

	t.Run("edit without an opener raises the refresh signal", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "edit", "--data", `{"surname":"Ivanova"}`, "1"); err != nil {
			t.Fatalf("edit: %v", err)
		}
		if !strings.Contains(tr.out.String(), "✓ Client updated") {
			t.Errorf("unexpected output %q", tr.out.String())
		}
		if _, ok, _ := tr.store.Get(context.Background(), models.Clients.RefreshKey()); !ok {
			t.Error("expected the refresh signal")
		}
	})

	t.Run("edit without fields prints the form values", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "edit", "1"); err != nil {
			t.Fatalf("edit: %v", err)
		}
		if !strings.Contains(tr.out.String(), `"surname": "Ivanov"`) {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})

	t.Run("validation errors are listed per field", func(t *testing.T) {
		tr := newTestRunner(t)
		err := tr.run(t, "clients", "add", "--field", "name=Ivan")
		if !errors.Is(err, shared.ErrValidationFailure) {
			t.Fatalf("expected ErrValidationFailure, got %v", err)
		}
		out := tr.out.String()
		if !strings.Contains(out, "✗ Check the form") || !strings.Contains(out, "surname: Surname is required") {
			t.Errorf("unexpected output %q", out)
		}
		if _, ok, _ := tr.store.Get(context.Background(), models.Clients.RefreshKey()); ok {
			t.Error("a failed form must not raise the signal")
		}
	})

	t.Run("add requires fields", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "clients", "add"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestParseFields(t *testing.T) {
	t.Run("infers plain numbers and bools", func(t *testing.T) {
		tests := map[string]any{
			"12":     int64(12),
			"-3":     int64(-3),
			"4.50":   4.5,
			"0.5":    0.5,
			"true":   true,
			"false":  false,
			"007":    "007",
			"+7999":  "+7999",
			"1e5":    "1e5",
			"5.":     "5.",
			"Ivanov": "Ivanov",
			"":       "",
		}
		for in, want := range tests {
			if got := fieldValue(in); got != want {
				t.Errorf("fieldValue(%q) = %#v, want %#v", in, got, want)
			}
		}
	})

	t.Run("pairs override data", func(t *testing.T) {
		fields, err := parseFields([]string{"capacity=3"}, `{"capacity":2,"category":"lux"}`)
		if err != nil {
			t.Fatalf("parseFields: %v", err)
		}
		if fields["capacity"] != int64(3) || fields["category"] != "lux" {
			t.Errorf("unexpected fields %v", fields)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		if _, err := parseFields([]string{"novalue"}, ""); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if _, err := parseFields(nil, "[1]"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get prints the JSON body", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "api", "get", "/api/clients/1"); err != nil {
			t.Fatalf("api get: %v", err)
		}
		if !strings.Contains(tr.out.String(), `"surname": "Ivanov"`) {
			t.Errorf("unexpected output %q", tr.out.String())
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "api", "get", "/api/nowhere"); !errors.Is(err, shared.ErrServerError) {
			t.Errorf("expected ErrServerError, got %v", err)
		}
	})

	t.Run("post validates the body", func(t *testing.T) {
		tr := newTestRunner(t)
		if err := tr.run(t, "api", "post", "--data", "{", "/api/clients/add"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	t.Cleanup(func() { os.Chdir(wd) })

	runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
	err := newApp(runner).Run(context.Background(), []string{appName, "--config", "config.toml", "setup"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, filepath.Join(dir, "frontdesk.db"))

	runner = NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
	if err := newApp(runner).Run(context.Background(), []string{appName, "--config", "config.toml", "setup", "--rollback"}); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}
