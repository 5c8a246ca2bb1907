// Package types defines shared data structures used across the backend.
//
// These types flow between the domain managers, the HTTP/WS API surface,
// and persistence, so they live in a dependency-free package.
package types
