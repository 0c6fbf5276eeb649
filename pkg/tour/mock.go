package tour

import (
	"sync"
)

// MockCall records a port invocation for verification.
type MockCall struct {
	Method string
	Args   []any
}

// Mock implements Audio, Speaker and UI, recording every call. It is used by
// tests and by headless sessions that only need the call log.
type Mock struct {
	mu    sync.Mutex
	calls []MockCall
}

// NewMock creates an empty recorder.
func NewMock() *Mock {
	return &Mock{}
}

// Ports returns p wired to the mock for every collaborator.
func (m *Mock) Ports() Ports {
	return Ports{Audio: m, Speaker: m, UI: m}
}

func (m *Mock) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Args: args})
}

// PlayNarration implements Audio.
func (m *Mock) PlayNarration(ref string) { m.record("PlayNarration", ref) }

// StopNarration implements Audio.
func (m *Mock) StopNarration() { m.record("StopNarration") }

// Chime implements Audio.
func (m *Mock) Chime() { m.record("Chime") }

// SetAmbient implements Audio.
func (m *Mock) SetAmbient(on bool) { m.record("SetAmbient", on) }

// Speak implements Speaker.
func (m *Mock) Speak(text string) { m.record("Speak", text) }

// Notify implements UI.
func (m *Mock) Notify(msg string) { m.record("Notify", msg) }

// SetStopUIState implements UI.
func (m *Mock) SetStopUIState(state NavState) { m.record("SetStopUIState", state) }

// SetInfoPanel implements UI.
func (m *Mock) SetInfoPanel(title, body, hint string) { m.record("SetInfoPanel", title, body, hint) }

// ClearInfoPanel implements UI.
func (m *Mock) ClearInfoPanel() { m.record("ClearInfoPanel") }

// SetTeleportEnabled implements UI.
func (m *Mock) SetTeleportEnabled(enabled bool) { m.record("SetTeleportEnabled", enabled) }

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls to one method.
func (m *Mock) CallsTo(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	return len(m.CallsTo(method))
}

// LastNavState returns the last SetStopUIState argument.
func (m *Mock) LastNavState() (NavState, bool) {
	calls := m.CallsTo("SetStopUIState")
	if len(calls) == 0 {
		return NavState{}, false
	}
	return calls[len(calls)-1].Args[0].(NavState), true
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
