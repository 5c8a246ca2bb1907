package message

import (
	"testing"

	"github.com/webtop-sh/webtop/internal/infrastructure/storage"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

func msg(data string) types.ChatMessage {
	return types.ChatMessage{Type: types.MessageTypeMessage, Data: data, Username: "al", Channel: "c"}
}

func TestAppendAndReplayRoundTrip(t *testing.T) {
	s := New(storage.NewMemStore())

	if err := s.Append("c", msg("m1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append("c", msg("m2")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Disconnect: memory cleared, storage intact.
	s.ClearMemory("c")
	if got := s.InMemory("c"); len(got) != 0 {
		t.Fatalf("expected empty memory after clear, got %d messages", len(got))
	}

	// Reconnect: replay restores stored order without duplication.
	replayed, err := s.Replay("c")
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(replayed) != 2 || replayed[0].Data != "m1" || replayed[1].Data != "m2" {
		t.Errorf("unexpected replay: %+v", replayed)
	}
	if got := s.InMemory("c"); len(got) != 2 {
		t.Errorf("in-memory log should match persisted entries, got %d", len(got))
	}
}

func TestHeartbeatsNeverStored(t *testing.T) {
	s := New(storage.NewMemStore())

	s.Append("c", msg("m1"))
	s.Append("c", types.ChatMessage{Type: types.MessageTypeHeartbeat})
	s.Append("c", msg("m2"))

	if got := s.InMemory("c"); len(got) != 2 {
		t.Fatalf("heartbeat leaked into memory: %+v", got)
	}

	s.ClearMemory("c")
	replayed, _ := s.Replay("c")
	for _, m := range replayed {
		if m.Type == types.MessageTypeHeartbeat {
			t.Error("heartbeat leaked into persisted log")
		}
	}
}

func TestReplayUnknownChannel(t *testing.T) {
	s := New(storage.NewMemStore())

	msgs, err := s.Replay("never-seen")
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty log, got %+v", msgs)
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	s := New(storage.NewMemStore())

	s.Append("a", msg("for-a"))
	s.Append("b", msg("for-b"))

	if got := s.InMemory("a"); len(got) != 1 || got[0].Data != "for-a" {
		t.Errorf("channel a log polluted: %+v", got)
	}
	if got := s.InMemory("b"); len(got) != 1 || got[0].Data != "for-b" {
		t.Errorf("channel b log polluted: %+v", got)
	}
}
