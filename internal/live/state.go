package live

// State is the lifecycle position of a Session.
type State int32

const (
	// StateHandshaking sends a liveness probe to the client.
	StateHandshaking State = iota

	// StateAwaitingPong waits, within the pong window, for the probe's ack.
	StateAwaitingPong

	// StateForwarding relays bus events to the client.
	StateForwarding

	// StateClosed is terminal. Resources have been released.
	StateClosed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateAwaitingPong:
		return "awaiting_pong"
	case StateForwarding:
		return "forwarding"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
