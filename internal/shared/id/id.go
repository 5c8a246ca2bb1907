// Package id provides centralized ID generation for the backend.
//
// ULIDs are used for every internally generated identifier: they sort
// lexicographically by creation time and the type prefix (win_, msg_)
// keeps logs readable.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WindowID identifies a window instance.
type WindowID string

// MessageID identifies a chat message.
type MessageID string

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func generate(reader io.Reader) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), reader).String()
}

// NewWindowID generates a window ID with the win_ prefix.
func NewWindowID() WindowID {
	return WindowID("win_" + generate(entropy))
}

// NewMessageID generates a message ID with the msg_ prefix.
func NewMessageID() MessageID {
	return MessageID("msg_" + generate(entropy))
}

func (i WindowID) String() string  { return string(i) }
func (i MessageID) String() string { return string(i) }
