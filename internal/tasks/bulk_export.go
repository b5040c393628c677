package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
)

// BulkExportOpts contains configuration for bulk exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: {plural}_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, max: 10)
	RateLimit  float64          // Page requests per second (default: 5)
	Query      models.QuerySpec // Filters, sort and page size for every page; Page is ignored
}

// PageExportResult is the outcome of one page.
type PageExportResult struct {
	Page    int    `json:"page"`
	Items   int    `json:"items"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Message string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Entity          string             `json:"entity"`
	Format          formatter.Format   `json:"format"`
	TotalRecords    int                `json:"total_records"`
	TotalPages      int                `json:"total_pages"`
	SuccessfulPages int                `json:"successful_pages"`
	FailedPages     int                `json:"failed_pages"`
	OutputDirectory string             `json:"output_directory"`
	Filters         models.FilterState `json:"filters"`
	Results         []PageExportResult `json:"results"`
	ManifestPath    string             `json:"-"`
}

type pageJob[R models.Record] struct {
	page   int
	result models.ListResult[R]
}

// BulkExport exports every page of the entity's list with rate limiting and progress tracking.
//
// Page 1 is fetched first; its failure aborts the export. Later pages are fetched
// in order and written by a worker pool. A failed page is recorded and skipped.
func (e *Exporter[R]) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	entity := e.lister.Entity()

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("%s_export_%d", entity.Plural, time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	query := opts.Query.Clone()
	sendProgress(prog, firstPageUpdate(entity.Plural))
	query.Page = 1
	first, err := e.lister.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the first page of %s: %w", entity.Plural, err)
	}
	pages := first.TotalPages()
	sendProgress(prog, foundRecordsUpdate(first.Total, pages))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Entity:          entity.Plural,
		Format:          opts.Format,
		TotalRecords:    first.Total,
		TotalPages:      pages,
		OutputDirectory: opts.OutputDir,
		Filters:         opts.Query.State(),
		Results:         make([]PageExportResult, 0, pages),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan pageJob[R], pages)
	results := make(chan PageExportResult, pages)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		jobs <- pageJob[R]{page: 1, result: first}

		for page := 2; page <= pages; page++ {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, fetchingPageUpdate(page, pages, page))

			q := query.Clone()
			q.Page = page
			res, err := e.lister.List(ctx, q)
			if err != nil {
				results <- PageExportResult{Page: page, Error: err, Message: err.Error()}
				continue
			}
			jobs <- pageJob[R]{page: page, result: res}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulPages++
			sendProgress(prog, pageWrittenUpdate(completed, pages, res.Page, res.Items, res.File))
		} else {
			result.FailedPages++
			sendProgress(prog, pageFailedUpdate(completed, pages, res.Page, res.Error))
			e.logger.Warn("page export failed", "page", res.Page, "error", res.Error)
		}
	}
	slices.SortFunc(result.Results, func(a, b PageExportResult) int { return a.Page - b.Page })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	sendProgress(prog, manifestUpdate(manifestPath))
	data, err := formatter.ToJSON(result)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes pages from the jobs channel.
func (e *Exporter[R]) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan pageJob[R],
	results chan<- PageExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results <- e.exportPage(job, opts)
	}
}

// exportPage writes one page as {plural}_page_{NNN} in the chosen format.
func (e *Exporter[R]) exportPage(j pageJob[R], opts BulkExportOpts) PageExportResult {
	entity := e.lister.Entity()
	result := PageExportResult{Page: j.page, Items: len(j.result.Items)}

	base := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_page_%03d", entity.Plural, j.page))
	path, err := formatter.WriteExport(base, opts.Format, entity, e.cols, j.result)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		result.Message = result.Error.Error()
		return result
	}
	result.File = path
	result.Success = true
	return result
}
