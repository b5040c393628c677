// Package refresh lets a detached add/edit view tell the list view that opened
// it that a record changed.
//
// Two transports carry the same logical "form closed" signal:
//
//   - Message delivery: the form sends a [Message] to its opener through an
//     [Opener]; the list view receives it on an [Inbox]. Backends exist for an
//     in-process channel, the list view's local HTTP listener, and NATS.
//   - Persisted signal: with no reachable opener the form writes a timestamp
//     under the entity's refresh key; the list view's [SignalWatcher] consumes
//     it on load and, optionally, on a poll interval.
//
// A [Coordinator] validates incoming messages (origin, type, success flag,
// duplicate message id) and turns each accepted one into a single
// ExternalRefreshRequested event. A [Notifier] picks the transport on the
// sending side.
package refresh
