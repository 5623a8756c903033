// Package broadcast decouples event producers (the drawing cycle) from the
// websocket layer that pushes updates to dashboard clients.
package broadcast

// MessageBroadcaster pushes a typed event to all connected dashboard clients.
type MessageBroadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

var broadcaster MessageBroadcaster

// SetBroadcaster registers the active broadcaster. Called once by the web
// server at startup.
func SetBroadcaster(b MessageBroadcaster) {
	broadcaster = b
}

// Send broadcasts an event if a broadcaster is registered, otherwise it is a
// no-op (headless tests, early startup).
func Send(msgType string, data interface{}) {
	if broadcaster != nil {
		broadcaster.BroadcastMessage(msgType, data)
	}
}
