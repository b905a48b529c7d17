// Package orchestrator wires the source → document → descriptors → form
// pipeline. Remote checks and submission are bound to a shared remote client
// so callers can go from a definition file to a live form in one call.
package orchestrator
