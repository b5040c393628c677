// package services implements the HTTP client for the remote record-store
package services

import (
	"context"

	"github.com/desertthunder/frontdesk/internal/models"
)

// RecordService is the record-store surface the sync layer needs for one entity.
type RecordService[R models.Record] interface {
	// List fetches the page described by q.
	List(ctx context.Context, q models.QuerySpec) (models.ListResult[R], error)

	// Get fetches a single record. A missing record yields an error wrapping [shared.ErrNotFound].
	Get(ctx context.Context, id int64) (R, error)

	// Delete removes a record and returns the server's result payload.
	Delete(ctx context.Context, id int64) (models.DeleteResult, error)

	// Create adds a record from the given fields.
	Create(ctx context.Context, fields map[string]any) (models.MutationResult, error)

	// Update changes the given fields of a record.
	Update(ctx context.Context, id int64, fields map[string]any) (models.MutationResult, error)

	// EditForm fetches the record as the edit form expects it.
	EditForm(ctx context.Context, id int64) (R, error)

	// Entity returns the descriptor the service was built for.
	Entity() models.Entity
}
