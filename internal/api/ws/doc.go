// Package ws serves the desktop event stream.
//
// The shell keeps one websocket open per browser surface: application
// events and chat render output flow out, the global pointer stream
// flows in.
package ws
