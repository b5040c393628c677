package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// FilterStateStore persists one entity's filters, sort field and sort order.
//
// The three values live under separate keys ([models.Entity.FiltersKey],
// [models.Entity.SortKey], [models.Entity.SortOrderKey]) so a form view that
// only knows the key names can read them.
type FilterStateStore struct {
	store  Store
	entity models.Entity
	logger *log.Logger
}

// NewFilterStateStore creates a FilterStateStore for entity on top of store.
func NewFilterStateStore(store Store, entity models.Entity, logger *log.Logger) *FilterStateStore {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &FilterStateStore{
		store:  store,
		entity: entity,
		logger: shared.WithLogger(logger, "component", "repositories.filters", "entity", entity.Name),
	}
}

// Save overwrites the persisted state with state. Empty filter values are not stored.
func (f *FilterStateStore) Save(ctx context.Context, state models.FilterState) error {
	data, err := json.Marshal(state.Filters.Prune())
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	order := state.SortOrder
	if order == "" {
		order = models.Asc
	}

	for _, kv := range [][2]string{
		{f.entity.FiltersKey(), string(data)},
		{f.entity.SortKey(), state.SortField},
		{f.entity.SortOrderKey(), string(order)},
	} {
		if err := f.store.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to save filter state: %w", err)
		}
	}
	return nil
}

// Load returns the persisted state and whether any was found.
//
// Store failures and a corrupt filters value both report absent.
func (f *FilterStateStore) Load(ctx context.Context) (models.FilterState, bool) {
	rawFilters, hasFilters, err := f.store.Get(ctx, f.entity.FiltersKey())
	if err != nil {
		f.logger.Warn("failed to read saved filters", "error", err)
		return models.FilterState{}, false
	}
	sort, hasSort, err := f.store.Get(ctx, f.entity.SortKey())
	if err != nil {
		f.logger.Warn("failed to read saved sort", "error", err)
		return models.FilterState{}, false
	}
	order, hasOrder, err := f.store.Get(ctx, f.entity.SortOrderKey())
	if err != nil {
		f.logger.Warn("failed to read saved sort order", "error", err)
		return models.FilterState{}, false
	}

	if !hasFilters && !hasSort && !hasOrder {
		return models.FilterState{}, false
	}

	state := models.FilterState{
		Filters:   models.Filters{},
		SortField: sort,
		SortOrder: models.NormalizeSortOrder(order),
	}
	if hasFilters && rawFilters != "" {
		var filters models.Filters
		if err := json.Unmarshal([]byte(rawFilters), &filters); err != nil {
			f.logger.Warn("discarding corrupt saved filters", "error", err)
			return models.FilterState{}, false
		}
		state.Filters = filters.Prune()
	}
	return state, true
}

// Clear removes every persisted value.
func (f *FilterStateStore) Clear(ctx context.Context) error {
	err := f.store.Delete(ctx, f.entity.FiltersKey(), f.entity.SortKey(), f.entity.SortOrderKey())
	if err != nil {
		return fmt.Errorf("failed to clear filter state: %w", err)
	}
	return nil
}
