package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// RecordClient talks to one entity's endpoints on the record-store.
type RecordClient[R models.Record] struct {
	api      *APIService
	entity   models.Entity
	metrics  *shared.Metrics
	pageSize int
}

var (
	_ RecordService[models.Client]  = (*RecordClient[models.Client])(nil)
	_ RecordService[models.Room]    = (*RecordClient[models.Room])(nil)
	_ RecordService[models.Booking] = (*RecordClient[models.Booking])(nil)
)

// NewRecordClient creates a client for entity on top of api. metrics may be nil.
func NewRecordClient[R models.Record](api *APIService, entity models.Entity, metrics *shared.Metrics) *RecordClient[R] {
	return &RecordClient[R]{api: api, entity: entity, metrics: metrics}
}

// WithPageSize sets a default page_size for queries that leave it unset.
func (c *RecordClient[R]) WithPageSize(n int) *RecordClient[R] {
	c.pageSize = n
	return c
}

func (c *RecordClient[R]) Entity() models.Entity { return c.entity }

func (c *RecordClient[R]) List(ctx context.Context, q models.QuerySpec) (result models.ListResult[R], err error) {
	defer c.observe("list", time.Now(), &err)

	if q.PageSize == 0 {
		q.PageSize = c.pageSize
	}
	resp, err := c.api.Do(ctx, http.MethodGet, c.entity.Endpoint(), q.Values(), nil)
	if err != nil {
		return result, networkError(err)
	}
	if !resp.OK() {
		return result, statusError(resp)
	}

	result, err = models.DecodeListResult[R](resp.Body, max(q.Page, 1))
	if err != nil {
		return result, malformedError(err)
	}
	return result, nil
}

func (c *RecordClient[R]) Get(ctx context.Context, id int64) (record R, err error) {
	defer c.observe("get", time.Now(), &err)

	resp, err := c.api.Do(ctx, http.MethodGet, c.recordPath(id), nil, nil)
	if err != nil {
		return record, networkError(err)
	}
	if !resp.OK() {
		return record, statusError(resp)
	}
	if err := json.Unmarshal(resp.Body, &record); err != nil {
		return record, malformedError(err)
	}
	return record, nil
}

func (c *RecordClient[R]) Delete(ctx context.Context, id int64) (result models.DeleteResult, err error) {
	defer c.observe("delete", time.Now(), &err)

	resp, err := c.api.Do(ctx, http.MethodDelete, c.recordPath(id), nil, nil)
	if err != nil {
		return result, networkError(err)
	}
	if !resp.OK() {
		return result, statusError(resp)
	}
	if len(resp.Body) == 0 {
		return models.DeleteResult{Success: true}, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return result, malformedError(err)
	}
	return result, nil
}

func (c *RecordClient[R]) Create(ctx context.Context, fields map[string]any) (models.MutationResult, error) {
	return c.mutate(ctx, "create", c.entity.Endpoint()+"/add", fields)
}

func (c *RecordClient[R]) Update(ctx context.Context, id int64, fields map[string]any) (models.MutationResult, error) {
	return c.mutate(ctx, "update", c.recordPath(id)+"/edit", fields)
}

// EditForm accepts both a bare record and a {success, data|record} envelope.
func (c *RecordClient[R]) EditForm(ctx context.Context, id int64) (record R, err error) {
	defer c.observe("edit_form", time.Now(), &err)

	resp, err := c.api.Do(ctx, http.MethodGet, c.recordPath(id)+"/edit/form", nil, nil)
	if err != nil {
		return record, networkError(err)
	}
	if !resp.OK() {
		return record, statusError(resp)
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Record  json.RawMessage `json:"record"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return record, malformedError(err)
	}

	raw := json.RawMessage(resp.Body)
	switch {
	case envelope.Success != nil && !*envelope.Success:
		return record, &APIError{Kind: shared.ErrServerError, Status: resp.StatusCode, Message: envelope.Error}
	case len(envelope.Data) > 0:
		raw = envelope.Data
	case len(envelope.Record) > 0:
		raw = envelope.Record
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, malformedError(err)
	}
	return record, nil
}

// mutate posts fields and maps a {success:false, errors} answer to a validation failure.
func (c *RecordClient[R]) mutate(ctx context.Context, op, path string, fields map[string]any) (result models.MutationResult, err error) {
	defer c.observe(op, time.Now(), &err)

	data, err := json.Marshal(fields)
	if err != nil {
		return result, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := c.api.Post(ctx, path, data)
	if err != nil {
		return result, networkError(err)
	}
	if uerr := json.Unmarshal(resp.Body, &result); uerr != nil && resp.OK() {
		return result, malformedError(uerr)
	}

	switch {
	case len(result.Errors) > 0:
		return result, &APIError{
			Kind:    shared.ErrValidationFailure,
			Status:  resp.StatusCode,
			Message: result.Message,
			Fields:  result.Errors,
		}
	case !resp.OK():
		return result, statusError(resp)
	case !result.Success:
		return result, &APIError{Kind: shared.ErrServerError, Status: resp.StatusCode, Message: result.Message}
	}
	return result, nil
}

func (c *RecordClient[R]) recordPath(id int64) string {
	return c.entity.Endpoint() + "/" + models.FormatID(id)
}

func (c *RecordClient[R]) observe(op string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = "error"
		if apiErr, ok := AsAPIError(*errp); ok {
			outcome = apiErr.KindName()
		}
	}
	c.metrics.ObserveRequest(c.entity.Name, op, outcome, time.Since(start))
}
