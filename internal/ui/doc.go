// Package ui implements an interactive terminal list view using bubbletea's Elm architecture.
//
// One [Model] shows one entity:
//  1. [ListView] : Browse a page of records, move between pages, sort and refresh
//  2. [DetailView] : Inspect the selected record
//  3. [ConfirmView] : Confirm a delete
//  4. [FilterView] : Edit filters as key=value pairs
//
// The model never calls the record-store itself. Key presses go to a [Controller]
// and results come back as [Msg] values that a [ProgramView] sends into the running program,
// so the same orchestrator can drive the TUI or any other view.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
