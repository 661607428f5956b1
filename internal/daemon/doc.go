// Package daemon coordinates the long-running Veracity process.
//
// It wires configuration, the record store, and the fact-check orchestrator
// into a single lifecycle with flock-based locking to prevent multiple
// instances, and exposes the local HTTP API used by the CLI.
//
// Keep coordination logic here: submission, polling, and commit semantics
// live in the orchestrator package while the daemon focuses on startup,
// shutdown, and the API surface.
package daemon
