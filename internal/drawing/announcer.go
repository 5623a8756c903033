package drawing

// Announcer is the chat-transport capability the drawing cycle needs. A real
// adapter sends to the connected Twitch channel; tests use a double.
// Announce failures are best-effort for the cycle: logged, never fatal.
type Announcer interface {
	Announce(text string) error
	// Channel returns the connected channel name, false when the transport
	// has no channel to announce into.
	Channel() (string, bool)
}
