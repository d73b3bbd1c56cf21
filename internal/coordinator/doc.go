// Package coordinator keeps a client responsive over an unreliable network.
//
// A Coordinator sits between the application and its Transport. Every call
// routed through Do or Submit is registered with the in-flight tracker, which
// drives one global busy indicator, and is raced against the request timeout
// so the indicator always clears. Form submissions pass through a duplicate
// guard keyed by a signature of method, action, and non-token fields.
//
// While offline, calls are queued and replayed in arrival order when an
// Online signal arrives. Lifecycle signals (Visible, Focus, PageShow,
// AppSwitch) and a periodic loop run the janitor, which ends records that
// outlived their tier and heals a busy indicator left on with nothing
// pending. The same loop probes the health endpoint.
//
// Rendering goes through a Sink. Status snapshots go to a state.Store.
package coordinator
