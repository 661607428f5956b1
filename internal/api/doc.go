// Package api defines the wire types for the daemon's local HTTP API and a
// client for them. The daemon serializes through these types and the CLI
// consumes them, keeping the two ends of the contract in one place.
package api
