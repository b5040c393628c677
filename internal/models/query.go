package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// SortOrder is the direction of a sorted list.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// NormalizeSortOrder maps anything other than "desc" to [Asc].
func NormalizeSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == Desc {
		return Desc
	}
	return Asc
}

// Filters are scalar list filters keyed by the record-store's parameter names.
type Filters map[string]any

// Prune returns a copy without nil values and blank strings.
//
// Numbers of any Go type become float64, the type they decode to from JSON,
// so a pruned value survives persistence unchanged. The result is never nil.
func (f Filters) Prune() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
		case *string:
			if val == nil || strings.TrimSpace(*val) == "" {
				continue
			}
			v = *val
		default:
			if n, ok := toFloat(val); ok {
				v = n
			}
		}
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	maps.Copy(out, f)
	return out
}

// Keys returns the filter keys in sorted order.
func (f Filters) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Values renders the pruned filters as query parameters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	for k, val := range f.Prune() {
		v.Set(k, FormatValue(val))
	}
	return v
}

// FormatValue renders a filter scalar the way it is sent on the wire.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// QuerySpec is what the next list request asks for.
type QuerySpec struct {
	Page      int
	Filters   Filters
	SortField string
	SortOrder SortOrder
	// PageSize is optional; zero leaves it to the server.
	PageSize int
}

// DefaultQuery is page 1, no filters, no sort, ascending.
func DefaultQuery() QuerySpec {
	return QuerySpec{Page: 1, Filters: Filters{}, SortOrder: Asc}
}

// Clone returns a copy that shares nothing with q.
func (q QuerySpec) Clone() QuerySpec {
	q.Filters = q.Filters.Clone()
	return q
}

// Values builds the list request's query string.
//
// Empty filters are omitted and sort parameters are only sent with a sort field.
func (q QuerySpec) Values() url.Values {
	v := q.Filters.Values()
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.SortField != "" {
		v.Set("sort", q.SortField)
		v.Set("sort_order", string(NormalizeSortOrder(string(q.SortOrder))))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// State extracts the persisted portion of q.
func (q QuerySpec) State() FilterState {
	return FilterState{Filters: q.Filters.Clone(), SortField: q.SortField, SortOrder: q.SortOrder}
}

// FilterState is the filter/sort portion of a QuerySpec that survives restarts.
type FilterState struct {
	Filters   Filters
	SortField string
	SortOrder SortOrder
}

// IsZero reports whether s carries no filters and no sort.
func (s FilterState) IsZero() bool {
	return len(s.Filters.Prune()) == 0 && s.SortField == ""
}

// ListResult is one page of records.
type ListResult[R Record] struct {
	Items    []R `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// TotalPages is the number of pages given Total and PageSize (at least 1).
func (l ListResult[R]) TotalPages() int {
	size := max(l.PageSize, 1)
	return max((l.Total+size-1)/size, 1)
}

// DecodeListResult parses a list response body.
//
// A missing page falls back to requestedPage and a missing page_size to
// max(len(items), 1).
func DecodeListResult[R Record](data []byte, requestedPage int) (ListResult[R], error) {
	var raw struct {
		Items    []R  `json:"items"`
		Total    *int `json:"total"`
		Page     *int `json:"page"`
		PageSize *int `json:"page_size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ListResult[R]{}, err
	}
	if raw.Total == nil {
		return ListResult[R]{}, fmt.Errorf("list response has no total")
	}

	out := ListResult[R]{Items: raw.Items, Total: *raw.Total, Page: requestedPage}
	if out.Items == nil {
		out.Items = []R{}
	}
	if raw.Page != nil {
		out.Page = *raw.Page
	}
	if raw.PageSize != nil && *raw.PageSize > 0 {
		out.PageSize = *raw.PageSize
	} else {
		out.PageSize = max(len(out.Items), 1)
	}
	return out, nil
}

// DeleteResult is the record-store's answer to a delete.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MutationResult is the record-store's answer to a create or update.
type MutationResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	ID      int64             `json:"id,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}
