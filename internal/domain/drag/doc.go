// Package drag implements the pointer drag coordinator.
//
// One Coordinator serves the whole desktop. It owns the single active
// drag session and applies clamped position updates to the dragged
// window through the Positioner interface.
package drag
