// Package trigger implements the generic evaluation engines behind every
// event controller event.
//
// Two engines share the same shape:
//   - Threshold classifies continuous values as Above or Below a threshold
//     and fires on edge crossings.
//   - Pulse forwards boolean values directly as True or False actions.
//
// Each engine instance belongs to exactly one host controller and is
// parameterised with strategy functions (key extraction, value reading,
// subscription hooks, formatting) supplied by an event adapter.
//
// Evaluation flow:
//  1. An adapter reports a value change for a source key (Raise).
//  2. The source is reclassified; a crossing into a new state is a transition.
//  3. The aggregator combines per-source states under the host's AND/OR mode.
//  4. On consensus the host action for the slot is invoked.
//  5. Exactly one Change is emitted for display and replication.
//
// Concurrency: engines are not safe for concurrent use. All calls, including
// source destruction callbacks, must happen on the simulation goroutine.
//
// Role: only the Authoritative replica subscribes to sources and runs resync
// passes. Replica engines keep a display cache that is fed from replicated
// messages through UpdateDetailedInfo.
package trigger
