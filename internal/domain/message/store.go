package message

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/webtop-sh/webtop/internal/infrastructure/storage"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

const logKeyPrefix = "chatlog:"

// Store keeps one ordered message log per channel. Logs are append-only
// while a session is live, persisted durably on every append, cleared
// from memory (never from storage) on disconnect, and replayed from
// storage on the next connect to the same channel.
type Store struct {
	mu   sync.RWMutex
	logs map[string][]types.ChatMessage
	kv   storage.KV
}

// New creates a store backed by the given key-value storage.
func New(kv storage.KV) *Store {
	return &Store{
		logs: make(map[string][]types.ChatMessage),
		kv:   kv,
	}
}

// Append adds a message to a channel's in-memory log and re-persists
// the full log. Heartbeats never reach the log.
func (s *Store) Append(channel string, msg types.ChatMessage) error {
	if msg.Type == types.MessageTypeHeartbeat {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[channel] = append(s.logs[channel], msg)
	return s.persistLocked(channel)
}

// Replay loads a channel's persisted log into memory and returns it in
// stored order. Nothing is re-persisted, so replay never duplicates.
func (s *Store) Replay(channel string) ([]types.ChatMessage, error) {
	data, ok, err := s.kv.Get(logKeyPrefix + channel)
	if err != nil {
		return nil, fmt.Errorf("failed to load log for %s: %w", channel, err)
	}

	var msgs []types.ChatMessage
	if ok {
		if err := sonic.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("failed to decode log for %s: %w", channel, err)
		}
	}

	s.mu.Lock()
	s.logs[channel] = msgs
	s.mu.Unlock()

	return copyMessages(msgs), nil
}

// InMemory returns the current in-memory log for a channel.
func (s *Store) InMemory(channel string) []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMessages(s.logs[channel])
}

// ClearMemory drops a channel's in-memory log, leaving storage intact.
func (s *Store) ClearMemory(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, channel)
}

// persistLocked writes the full channel log. Must hold the lock.
func (s *Store) persistLocked(channel string) error {
	data, err := sonic.Marshal(s.logs[channel])
	if err != nil {
		return fmt.Errorf("failed to encode log for %s: %w", channel, err)
	}
	if err := s.kv.Set(logKeyPrefix+channel, data); err != nil {
		return fmt.Errorf("failed to persist log for %s: %w", channel, err)
	}
	return nil
}

func copyMessages(msgs []types.ChatMessage) []types.ChatMessage {
	out := make([]types.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
