// Package records implements the per-entity data-access object that owns a
// list view's query state and reports every outcome through an event hub.
//
// A [Repository] never hands failures back to the caller that did not ask for
// them: each operation runs on its own goroutine and ends in exactly one
// publication ([events.ListLoaded], [events.DetailLoaded], [events.Deleted] or
// [events.ErrorRaised]). The returned [Pending] only mirrors that outcome for
// callers that need to await it.
//
// Overlapping list loads are neither sequenced nor cancelled. Results publish
// in completion order, so a slow earlier response can overwrite a faster later
// one in the view.
package records
