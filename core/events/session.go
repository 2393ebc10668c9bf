package events

const (
	// KindConnected identifies the server's acknowledgment of the session
	// configuration message.
	KindConnected Kind = "session.connected"
	// KindInterrupted identifies a server-side barge-in signal.
	KindInterrupted Kind = "session.interrupted"
	// KindError identifies a server-reported failure.
	KindError Kind = "session.error"
)

// Connected marks the handshake acknowledgment. No audio or image frame may
// be serialized before this event has been dispatched.
type Connected struct {
	Base
}

// NewConnected creates a handshake acknowledgment event.
func NewConnected() Connected {
	return Connected{Base: NewBase(KindConnected)}
}

// Interrupted marks a barge-in: the user started speaking while assistant
// audio was still playing, so queued assistant speech must be cut off.
type Interrupted struct {
	Base
}

// NewInterrupted creates a barge-in event.
func NewInterrupted() Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted)}
}

// Error carries a human-readable server-reported failure message.
type Error struct {
	Base
	Message string
}

// NewError creates a server-reported error event.
func NewError(message string) Error {
	return Error{Base: NewBase(KindError), Message: message}
}
