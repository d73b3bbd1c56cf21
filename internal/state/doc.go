// Package state shares the coordinator's status with the console.
//
// # Overview
//
// The coordinator publishes a Status every time its registry, queue, or
// connectivity changes, and a health Result after every probe. The console
// reads Snapshot copies at its own refresh rate, so rendering never holds a
// coordinator lock.
//
//	Producer (Coordinator):         Consumer (console):
//	┌────────────────────┐         ┌──────────────────┐
//	│ Begin/End/Drain    │         │                  │
//	│      ↓             │         │                  │
//	│ store.Update()     │────────→│ store.Snapshot() │
//	│ store.RecordProbe()│ (mutex) │      ↓           │
//	└────────────────────┘         │  render          │
//	                               └──────────────────┘
//
// # Core Types
//
//   - Status: online, busy, pending and queued counts, last probe
//   - Snapshot: Status plus pending records and consecutive probe failures
//   - Store: sync.RWMutex-guarded holder returning defensive copies
//
// # Degraded Detection
//
// Snapshot.IsDegraded reports two or more consecutive degraded probes. A
// single failed probe is tolerated so one dropped packet does not flip the
// console's status line.
package state
