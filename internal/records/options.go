package records

import "github.com/desertthunder/frontdesk/internal/models"

// ListOption replaces one part of the repository's query before a list load.
type ListOption func(q *models.QuerySpec)

// WithFilters replaces the filters. Empty values are dropped.
func WithFilters(f models.Filters) ListOption {
	return func(q *models.QuerySpec) { q.Filters = f.Prune() }
}

// WithSort replaces the sort field. An empty field disables sorting.
func WithSort(field string) ListOption {
	return func(q *models.QuerySpec) { q.SortField = field }
}

// WithSortOrder replaces the sort order; anything but "desc" means ascending.
func WithSortOrder(order string) ListOption {
	return func(q *models.QuerySpec) { q.SortOrder = models.NormalizeSortOrder(order) }
}

// WithPageSize replaces the page size. Zero leaves it to the server.
func WithPageSize(n int) ListOption {
	return func(q *models.QuerySpec) { q.PageSize = max(n, 0) }
}
