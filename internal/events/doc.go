// Package events implements the per-entity publish/subscribe hub that decouples
// record loading from rendering.
//
// Events form a closed set ([Kind]) with one payload type per kind. A [Hub]
// delivers each event synchronously to the handlers subscribed to its kind, in
// subscription order. Handlers of one hub never run concurrently: events
// published from inside a handler are queued and delivered once that handler
// returns, before the outermost Publish returns.
package events
