// Package console wires one entity's list view: the repository, its event hub,
// the refresh protocol and a [View] that renders what the hub reports.
//
// [Orchestrator] owns the reactions to events. [Module] is the composition
// root that builds and tears down everything a list view needs.
package console
