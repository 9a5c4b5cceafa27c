// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a live monitor over the backlog document: it lists every queued
// track with a status-colored description, reloads the document on a timer so
// daemon activity shows up without interaction, and binds operator actions to
// keys (r refresh, t retry a failed item, x remove, q quit).
//
// [Model] implements bubbletea/Elm's standard Init/Update/View pattern. Store
// access happens inside [tea.Cmd] functions so the event loop never blocks on
// document I/O.
package ui
