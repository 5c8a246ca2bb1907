// Package main is the entry point for the webtop desktop backend.
//
// The server is the authoritative state engine behind a browser
// desktop: the shell renders windows and forwards input, the backend
// owns window state, drag sessions, focus, and chat sessions.
//
// Architecture:
//
//	Shell (browser) → Go Backend → Chat Relay (websocket)
//	                            → Durable KV storage
//
// The server provides:
//   - REST control API for window and chat session operations
//   - WebSocket desktop stream (events out, pointer frames in)
//   - Persisted per-channel chat logs with replay on reconnect
//   - Rate limiting and CORS
//
// Configuration:
//   - Defaults for development
//   - Optional TOML file named by WEBTOP_CONFIG
//   - Environment variables (12-factor, override the file)
//
// Usage:
//
//	# Production mode
//	./server
//
//	# Development mode (colored logs, debug level)
//	LOG_DEV=true ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
