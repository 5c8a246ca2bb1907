package types

// ChatState represents chat session lifecycle states
type ChatState string

const (
	StateUsernameChoice ChatState = "username-choice"
	StateChannelChoice  ChatState = "channel-choice"
	StateChat           ChatState = "chat"
)

// MessageType classifies chat wire messages
type MessageType string

const (
	MessageTypeMessage      MessageType = "message"
	MessageTypeHeartbeat    MessageType = "heartbeat"
	MessageTypeNotification MessageType = "notification"
)

// ChatMessage is one message on the chat wire and in the channel log.
// Heartbeats are transport liveness signals and are never stored or rendered.
type ChatMessage struct {
	Type     MessageType `json:"type"`
	Data     string      `json:"data"`
	Username string      `json:"username,omitempty"`
	Channel  string      `json:"channel,omitempty"`
	Key      string      `json:"key,omitempty"`
}

// ChatSessionView is the externally visible state of one chat session.
type ChatSessionView struct {
	WindowID             string    `json:"window_id"`
	State                ChatState `json:"state"`
	Username             string    `json:"username,omitempty"`
	Channel              string    `json:"channel"`
	Connected            bool      `json:"connected"`
	ChangeChannelEnabled bool      `json:"change_channel_enabled"`
}
