// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

// Message is one encoded frame for monitor clients.
type Message struct {
	// Session is the visitor session the frame describes. Empty means every
	// client receives it regardless of its filter.
	Session string
	Data    []byte
}

// NewJSONMessage creates a message from pre-encoded JSON
func NewJSONMessage(session string, data []byte) Message {
	return Message{Session: session, Data: data}
}

// matches reports whether a client filtering on session wants m.
func (m Message) matches(session string) bool {
	return session == "" || m.Session == "" || m.Session == session
}
