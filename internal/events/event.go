package events

import (
	"github.com/desertthunder/frontdesk/internal/models"
)

// Kind enumerates the events a hub carries.
type Kind int

const (
	ListLoaded Kind = iota
	DetailLoaded
	Deleted
	FiltersChanged
	ErrorRaised
	ExternalRefreshRequested
	kindCount
)

var kindNames = [...]string{
	ListLoaded:               "list_loaded",
	DetailLoaded:             "detail_loaded",
	Deleted:                  "deleted",
	FiltersChanged:           "filters_changed",
	ErrorRaised:              "error_raised",
	ExternalRefreshRequested: "external_refresh_requested",
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every declared kind in order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := range kindCount {
		out = append(out, k)
	}
	return out
}

// Event is a payload published on a [Hub]. The set of implementations is closed.
type Event interface {
	Kind() Kind
	event()
}

// ListLoadedEvent carries one page of records.
type ListLoadedEvent[R models.Record] struct {
	Result models.ListResult[R]
}

// DetailLoadedEvent carries a single record.
type DetailLoadedEvent[R models.Record] struct {
	Record R
}

// DeletedEvent reports a completed delete.
type DeletedEvent struct {
	ID      int64
	Success bool
	Message string
}

// FiltersChangedEvent carries the filter/sort state now in effect.
type FiltersChangedEvent struct {
	State models.FilterState
}

// ErrorRaisedEvent carries a message ready to show to the user.
type ErrorRaisedEvent struct {
	Message string
	Err     error
}

// ExternalRefreshRequestedEvent means a mutation happened elsewhere.
type ExternalRefreshRequestedEvent struct {
	// Source names the transport that delivered the signal.
	Source    string
	MessageID string
}

func (ListLoadedEvent[R]) Kind() Kind            { return ListLoaded }
func (DetailLoadedEvent[R]) Kind() Kind          { return DetailLoaded }
func (DeletedEvent) Kind() Kind                  { return Deleted }
func (FiltersChangedEvent) Kind() Kind           { return FiltersChanged }
func (ErrorRaisedEvent) Kind() Kind              { return ErrorRaised }
func (ExternalRefreshRequestedEvent) Kind() Kind { return ExternalRefreshRequested }

func (ListLoadedEvent[R]) event()            {}
func (DetailLoadedEvent[R]) event()          {}
func (DeletedEvent) event()                  {}
func (FiltersChangedEvent) event()           {}
func (ErrorRaisedEvent) event()              {}
func (ExternalRefreshRequestedEvent) event() {}

// NewListLoaded is the constructor for [ListLoaded]
func NewListLoaded[R models.Record](result models.ListResult[R]) Event {
	return ListLoadedEvent[R]{Result: result}
}

// NewDetailLoaded is the constructor for [DetailLoaded]
func NewDetailLoaded[R models.Record](record R) Event {
	return DetailLoadedEvent[R]{Record: record}
}

// NewDeleted is the constructor for [Deleted]
func NewDeleted(id int64, result models.DeleteResult) Event {
	return DeletedEvent{ID: id, Success: result.Success, Message: result.Message}
}

// NewFiltersChanged is the constructor for [FiltersChanged]
func NewFiltersChanged(state models.FilterState) Event {
	return FiltersChangedEvent{State: state}
}

// NewErrorRaised is the constructor for [ErrorRaised]
func NewErrorRaised(message string, err error) Event {
	return ErrorRaisedEvent{Message: message, Err: err}
}

// NewExternalRefreshRequested is the constructor for [ExternalRefreshRequested]
func NewExternalRefreshRequested(source, messageID string) Event {
	return ExternalRefreshRequestedEvent{Source: source, MessageID: messageID}
}
