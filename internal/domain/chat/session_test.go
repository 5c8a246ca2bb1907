package chat

import (
	"testing"

	"github.com/webtop-sh/webtop/internal/shared/types"
)

func TestInitialStateWithoutIdentity(t *testing.T) {
	deps, _, _ := newTestDeps("ws://127.0.0.1:1/chat")

	ctrl := NewController("win-chat", deps)
	if view := ctrl.View(); view.State != types.StateUsernameChoice {
		t.Errorf("expected username-choice, got %s", view.State)
	}
}

func TestPersistedIdentitySkipsUsernameChoice(t *testing.T) {
	deps, _, _ := newTestDeps("ws://127.0.0.1:1/chat")
	if err := deps.Identity.Remember("al"); err != nil {
		t.Fatal(err)
	}

	ctrl := NewController("win-chat", deps)
	view := ctrl.View()
	if view.State != types.StateChannelChoice {
		t.Errorf("expected auto-skip to channel-choice, got %s", view.State)
	}
	if view.Username != "al" {
		t.Errorf("expected restored username, got %q", view.Username)
	}
}

func TestUsernameWithoutRememberLeavesNoDurableEntry(t *testing.T) {
	relay := newFakeRelay(t)
	deps, _, kv := newTestDeps(relay.wsURL())

	ctrl := NewController("win-chat", deps)
	if err := ctrl.SubmitUsername("al", false); err != nil {
		t.Fatalf("SubmitUsername: %v", err)
	}
	if view := ctrl.View(); view.State != types.StateChannelChoice {
		t.Fatalf("expected channel-choice, got %s", view.State)
	}
	if _, ok, _ := kv.Get(identityKey); ok {
		t.Error("no durable identity entry should exist without remember")
	}

	if err := ctrl.SubmitChannel(t.Context(), "lobby"); err != nil {
		t.Fatalf("SubmitChannel: %v", err)
	}
	view := ctrl.View()
	if view.State != types.StateChat || view.Channel != "lobby" {
		t.Errorf("expected chat on lobby, got %+v", view)
	}
	if !view.Connected {
		t.Error("expected an open relay connection for lobby")
	}
}

func TestRememberPersistsIdentity(t *testing.T) {
	deps, _, kv := newTestDeps("ws://127.0.0.1:1/chat")

	ctrl := NewController("win-chat", deps)
	if err := ctrl.SubmitUsername("al", true); err != nil {
		t.Fatal(err)
	}
	if data, ok, _ := kv.Get(identityKey); !ok || string(data) != "al" {
		t.Errorf("expected durable identity 'al', got %q ok=%v", data, ok)
	}
}

func TestChangeUsernameClearsEverything(t *testing.T) {
	relay := newFakeRelay(t)
	deps, sink, kv := newTestDeps(relay.wsURL())

	ctrl := NewController("win-chat", deps)
	ctrl.SubmitUsername("al", true)
	ctrl.SubmitChannel(t.Context(), "lobby")
	sink.waitRender(t)

	if err := ctrl.ChangeUsername(); err != nil {
		t.Fatalf("ChangeUsername: %v", err)
	}

	view := ctrl.View()
	if view.State != types.StateUsernameChoice {
		t.Errorf("expected username-choice, got %s", view.State)
	}
	if view.Username != "" {
		t.Error("in-memory username should be cleared")
	}
	if view.Connected {
		t.Error("relay connection should be torn down")
	}
	if _, ok, _ := kv.Get(identityKey); ok {
		t.Error("persisted identity should be removed")
	}
	if sink.clears == 0 {
		t.Error("render target should be cleared on transition")
	}
}

func TestChangeChannelOnlyFromChat(t *testing.T) {
	deps, _, _ := newTestDeps("ws://127.0.0.1:1/chat")

	ctrl := NewController("win-chat", deps)
	if err := ctrl.ChangeChannel(); err == nil {
		t.Error("change channel must be disabled outside chat state")
	}
	if view := ctrl.View(); view.ChangeChannelEnabled {
		t.Error("view should report change-channel disabled")
	}
}

func TestBlankSubmissionsRejected(t *testing.T) {
	deps, _, _ := newTestDeps("ws://127.0.0.1:1/chat")

	ctrl := NewController("win-chat", deps)
	if err := ctrl.SubmitUsername("   ", false); err != ErrBlankSubmission {
		t.Errorf("blank username: got %v", err)
	}
	ctrl.SubmitUsername("al", false)
	if err := ctrl.SubmitChannel(t.Context(), ""); err != ErrBlankSubmission {
		t.Errorf("blank channel: got %v", err)
	}
	ctrl.SubmitChannel(t.Context(), "lobby")
	if err := ctrl.SendMessage("  "); err != ErrBlankSubmission {
		t.Errorf("blank message: got %v", err)
	}
}

func TestSubmissionsMatchState(t *testing.T) {
	deps, _, _ := newTestDeps("ws://127.0.0.1:1/chat")

	ctrl := NewController("win-chat", deps)
	if err := ctrl.SubmitChannel(t.Context(), "lobby"); err != ErrWrongState {
		t.Errorf("channel form before username form: got %v", err)
	}

	ctrl.SubmitUsername("al", false)
	if err := ctrl.SubmitUsername("again", false); err != ErrWrongState {
		t.Errorf("username form after leaving username-choice: got %v", err)
	}
}

func TestChannelTransitionIsDeterministic(t *testing.T) {
	relay := newFakeRelay(t)
	deps, sink, _ := newTestDeps(relay.wsURL())

	ctrl := NewController("win-chat", deps)
	ctrl.SubmitUsername("al", false)

	// channel-choice + "general" always yields chat on "general",
	// regardless of where the session was before.
	for i := 0; i < 3; i++ {
		if err := ctrl.SubmitChannel(t.Context(), "general"); err != nil {
			t.Fatalf("round %d: SubmitChannel: %v", i, err)
		}
		sink.waitRender(t)
		view := ctrl.View()
		if view.State != types.StateChat || view.Channel != "general" {
			t.Fatalf("round %d: got %+v", i, view)
		}
		if err := ctrl.ChangeChannel(); err != nil {
			t.Fatalf("round %d: ChangeChannel: %v", i, err)
		}
	}
}
