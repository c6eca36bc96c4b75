// Package ui implements the operator console using bubbletea's Elm architecture.
//
// The console shows the live restaurant queue and exposes the operator
// controls:
//  1. [QueueView] : Browse the queue; advance, re-rank, or cancel requests
//  2. [ConfirmCancelView] : Confirm cancellation of the selected request
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. The queue refreshes on a timer through the sync poller, so state
// changed by guests' phones shows up without operator input.
//
// Keyboard navigation uses vim-style bindings (j/k, a, t, x, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
