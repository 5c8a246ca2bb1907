// Package chat implements the chat application hosted in a desktop
// window: the session state machine over identity capture, channel
// selection, and live chat; the persistent relay connection with
// replay-on-reconnect; and durable identity storage.
package chat
