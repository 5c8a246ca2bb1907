// Package message implements the per-channel chat log with durable
// persistence and replay-on-reconnect semantics.
package message
