// Package pubsub implements the application event bus.
//
// Focus changes, window lifecycle notifications, and icon activation all
// travel over one Bus instance owned by the server. Delivery is
// synchronous and in-process.
package pubsub
