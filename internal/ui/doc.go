// Package ui is the steady operator console.
//
// The console is a Bubble Tea program. It reads state.Store snapshots on a
// timer and is woken by the Sink whenever the coordinator changes the busy
// indicator, decorates an element, or raises a notification. Operator keys
// map to Actions that toggle connectivity, simulate visibility and focus
// signals, issue fetches and form submissions, and force-clear stuck state.
package ui
