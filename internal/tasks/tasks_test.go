package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
	tu "github.com/desertthunder/frontdesk/internal/testing"
)

// pagedRooms serves total rooms, size per page, failing the pages in fail.
func pagedRooms(total, size int, fail map[int]error) *tu.FakeRecordService[models.Room] {
	svc := tu.NewFakeRecordService[models.Room](models.Rooms)
	svc.ListFunc = func(ctx context.Context, q models.QuerySpec) (models.ListResult[models.Room], error) {
		if err := fail[q.Page]; err != nil {
			return models.ListResult[models.Room]{}, err
		}
		var items []models.Room
		for i := (q.Page-1)*size + 1; i <= min(q.Page*size, total); i++ {
			items = append(items, models.Room{ID: int64(i), RoomNumber: "R" + models.FormatID(int64(i)), Capacity: 2})
		}
		return models.ListResult[models.Room]{Items: items, Total: total, Page: q.Page, PageSize: size}, nil
	}
	return svc
}

func TestBulkExport(t *testing.T) {
	t.Run("writes every page and a manifest", func(t *testing.T) {
		tests := []struct {
			name   string
			format formatter.Format
			ext    string
			total  int
			pages  int
		}{
			{name: "json", format: formatter.JSON, ext: ".json", total: 7, pages: 3},
			{name: "csv", format: formatter.CSV, ext: ".csv", total: 3, pages: 1},
			{name: "markdown", format: formatter.Markdown, ext: ".md", total: 6, pages: 2},
			{name: "empty", format: formatter.Text, ext: ".txt", total: 0, pages: 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				svc := pagedRooms(tt.total, 3, nil)
				exporter := NewExporter(svc, formatter.RoomColumns, nil)

				result, err := exporter.BulkExport(context.Background(), nil, BulkExportOpts{
					Format:    tt.format,
					OutputDir: dir,
					RateLimit: 1000,
				})
				if err != nil {
					t.Fatalf("BulkExport: %v", err)
				}

				if result.TotalPages != tt.pages || result.SuccessfulPages != tt.pages || result.FailedPages != 0 {
					t.Errorf("unexpected counts %+v", result)
				}
				if result.TotalRecords != tt.total {
					t.Errorf("expected %d records, got %d", tt.total, result.TotalRecords)
				}
				for i, res := range result.Results {
					if res.Page != i+1 {
						t.Errorf("results should be sorted by page, got %d at %d", res.Page, i)
					}
					if !strings.HasSuffix(res.File, tt.ext) {
						t.Errorf("unexpected file %q", res.File)
					}
					tu.AssertFileExists(t, res.File)
				}
				tu.AssertFileExists(t, filepath.Join(dir, "rooms_page_001"+tt.ext))
				tu.AssertFileExists(t, result.ManifestPath)
			})
		}
	})

	t.Run("applies the query to every page", func(t *testing.T) {
		svc := pagedRooms(5, 2, nil)
		exporter := NewExporter(svc, formatter.RoomColumns, nil)

		query := models.DefaultQuery()
		query.Filters = models.Filters{"category": "lux"}
		query.SortField = "price"
		query.SortOrder = models.Desc
		query.Page = 9

		if _, err := exporter.BulkExport(context.Background(), nil, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000, Query: query}); err != nil {
			t.Fatalf("BulkExport: %v", err)
		}

		seen := map[int]bool{}
		for _, q := range svc.Queries() {
			seen[q.Page] = true
			if q.Filters["category"] != "lux" || q.SortField != "price" || q.SortOrder != models.Desc {
				t.Errorf("query lost its filters: %+v", q)
			}
		}
		if len(seen) != 3 || !seen[1] || !seen[2] || !seen[3] {
			t.Errorf("expected pages 1-3, got %v", seen)
		}
	})

	t.Run("failed pages are recorded, not fatal", func(t *testing.T) {
		dir := t.TempDir()
		svc := pagedRooms(9, 3, map[int]error{2: shared.ErrServerError})
		exporter := NewExporter(svc, formatter.RoomColumns, nil)

		result, err := exporter.BulkExport(context.Background(), nil, BulkExportOpts{OutputDir: dir, RateLimit: 1000})
		if err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		if result.SuccessfulPages != 2 || result.FailedPages != 1 {
			t.Errorf("unexpected counts %+v", result)
		}
		if r := result.Results[1]; r.Page != 2 || r.Success || !errors.Is(r.Error, shared.ErrServerError) {
			t.Errorf("unexpected page 2 result %+v", r)
		}

		var manifest map[string]any
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
			t.Fatalf("manifest: %v", err)
		}
		if manifest["failed_pages"] != float64(1) || manifest["entity"] != "rooms" {
			t.Errorf("unexpected manifest %v", manifest)
		}
	})

	t.Run("first page failure aborts", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		svc := pagedRooms(9, 3, map[int]error{1: shared.ErrNetworkFailure})
		exporter := NewExporter(svc, formatter.RoomColumns, nil)

		_, err := exporter.BulkExport(context.Background(), nil, BulkExportOpts{OutputDir: dir})
		if !errors.Is(err, shared.ErrNetworkFailure) {
			t.Fatalf("expected ErrNetworkFailure, got %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("output directory should not be created")
		}
	})

	t.Run("canceled context stops the export", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := pagedRooms(30, 1, nil)
		svc.ListFunc = func(inner func(context.Context, models.QuerySpec) (models.ListResult[models.Room], error)) func(context.Context, models.QuerySpec) (models.ListResult[models.Room], error) {
			return func(c context.Context, q models.QuerySpec) (models.ListResult[models.Room], error) {
				if q.Page == 2 {
					cancel()
				}
				return inner(c, q)
			}
		}(svc.ListFunc)
		exporter := NewExporter(svc, formatter.RoomColumns, nil)

		result, err := exporter.BulkExport(ctx, nil, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.ManifestPath != "" {
			t.Error("no manifest should be written")
		}
	})

	t.Run("reports progress without blocking", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 64)
		exporter := NewExporter(pagedRooms(4, 2, nil), formatter.RoomColumns, nil)

		if _, err := exporter.BulkExport(context.Background(), prog, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000}); err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		close(prog)

		phases := map[Phase]int{}
		for u := range prog {
			phases[u.Phase]++
		}
		if phases[FetchFirstPage] != 2 || phases[FetchPages] != 1 || phases[WritePages] != 2 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected progress %v", phases)
		}

		full := make(chan ProgressUpdate)
		if _, err := exporter.BulkExport(context.Background(), full, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000}); err != nil {
			t.Fatalf("BulkExport with an unread channel: %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		FetchFirstPage: "fetch_first_page",
		FetchPages:     "fetch_pages",
		WritePages:     "write_pages",
		WriteManifest:  "write_manifest",
		Phase(99):      "",
	} {
		if got := phase.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", phase, got, want)
		}
	}
}
