// Package app is the composition root of the steady console.
//
// # Overview
//
// Run wires configuration, logging, the HTTP transport, the coordinator, and
// the console together. It is the single owner of the coordinator lifecycle:
// it calls Start once and Stop on the way out, so at most one periodic loop
// ever runs.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         Read ~/.config/steady/config.toml
//	       ├─────> SetupLogger()         JSON logs to log_file
//	       ├─────> transport.NewClient() HTTP transport
//	       ├─────> coordinator.New()     Sink = ui.Sink, Store = state.Store
//	       ├─────> coord.Start()         Health probe + periodic janitor
//	       ├─────> watchResume()         SIGCONT → Visible
//	       └─────> ui.Run()              Console (blocks)
//
// # Signals
//
// A terminal has no page visibility, so the console emulates it: operator
// keys send Online/Offline, Hidden/Visible, and Focus. Resuming a stopped
// process (SIGCONT after Ctrl-Z) is delivered as Visible, which runs the
// visibility sweep and schedules the app-switch sweep.
//
// # Error Handling
//
// Configuration, log file, and transport setup errors are fatal and returned
// from Run. A malformed prefs file is logged and defaults are used. Anything
// still queued at exit is logged, since the offline queue lives in memory.
package app
