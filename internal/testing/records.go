package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// FakeRecordService is a scriptable stand-in for the record-store client.
//
// Unset funcs answer with an empty page, a zero record, or a successful result.
type FakeRecordService[R models.Record] struct {
	EntityDesc models.Entity

	ListFunc     func(ctx context.Context, q models.QuerySpec) (models.ListResult[R], error)
	GetFunc      func(ctx context.Context, id int64) (R, error)
	DeleteFunc   func(ctx context.Context, id int64) (models.DeleteResult, error)
	CreateFunc   func(ctx context.Context, fields map[string]any) (models.MutationResult, error)
	UpdateFunc   func(ctx context.Context, id int64, fields map[string]any) (models.MutationResult, error)
	EditFormFunc func(ctx context.Context, id int64) (R, error)

	mu      sync.Mutex
	queries []models.QuerySpec
	calls   []string
}

// NewFakeRecordService returns a fake for entity with default answers.
func NewFakeRecordService[R models.Record](entity models.Entity) *FakeRecordService[R] {
	return &FakeRecordService[R]{EntityDesc: entity}
}

func (f *FakeRecordService[R]) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *FakeRecordService[R]) Entity() models.Entity { return f.EntityDesc }

func (f *FakeRecordService[R]) List(ctx context.Context, q models.QuerySpec) (models.ListResult[R], error) {
	f.mu.Lock()
	f.queries = append(f.queries, q.Clone())
	f.calls = append(f.calls, "list")
	f.mu.Unlock()

	if f.ListFunc != nil {
		return f.ListFunc(ctx, q)
	}
	return models.ListResult[R]{Items: []R{}, Page: max(q.Page, 1), PageSize: 1}, nil
}

func (f *FakeRecordService[R]) Get(ctx context.Context, id int64) (R, error) {
	f.record("get")
	if f.GetFunc != nil {
		return f.GetFunc(ctx, id)
	}
	var zero R
	return zero, nil
}

func (f *FakeRecordService[R]) Delete(ctx context.Context, id int64) (models.DeleteResult, error) {
	f.record("delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return models.DeleteResult{Success: true}, nil
}

func (f *FakeRecordService[R]) Create(ctx context.Context, fields map[string]any) (models.MutationResult, error) {
	f.record("create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, fields)
	}
	return models.MutationResult{Success: true}, nil
}

func (f *FakeRecordService[R]) Update(ctx context.Context, id int64, fields map[string]any) (models.MutationResult, error) {
	f.record("update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, fields)
	}
	return models.MutationResult{Success: true, ID: id}, nil
}

func (f *FakeRecordService[R]) EditForm(ctx context.Context, id int64) (R, error) {
	f.record("edit_form")
	if f.EditFormFunc != nil {
		return f.EditFormFunc(ctx, id)
	}
	var zero R
	return zero, nil
}

// Queries returns every QuerySpec passed to List, in call order.
func (f *FakeRecordService[R]) Queries() []models.QuerySpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.QuerySpec(nil), f.queries...)
}

// Calls returns the names of every method called, in order.
func (f *FakeRecordService[R]) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// NotFound is the error a fake returns for a missing record.
func NotFound() error { return shared.ErrNotFound }
