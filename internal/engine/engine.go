// Package engine provides the concurrency primitives shared by the
// animation processors and the navigator:
// - safegroup.go: panic-safe errgroup wrapper
// - flight.go: in-flight operation counter backing the navigator busy guard
package engine
