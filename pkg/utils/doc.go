// Package utils provides the concurrency helpers used by exploration sessions.
//
// This package contains:
//   - TaskPool, a bounded worker pool with an outstanding-task counter and an
//     idle channel for termination detection (concurrent.go)
//   - Panic recovery helpers that turn panics into *PanicError values (recovery.go)
package utils
