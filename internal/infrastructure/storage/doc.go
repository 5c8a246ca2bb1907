// Package storage provides durable key-value persistence.
//
// The file-backed implementation compresses values at rest and keeps a
// read cache in memory. Values are opaque bytes; encoding is the
// caller's concern.
package storage
