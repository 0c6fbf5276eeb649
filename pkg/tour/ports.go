package tour

// Audio plays narration and cues. Calls are fire-and-forget; implementations
// swallow playback failures.
type Audio interface {
	PlayNarration(ref string)
	StopNarration()
	Chime()
	SetAmbient(on bool)
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(text string)
}

// NavState is the state of the tour navigation controls.
type NavState struct {
	Active        bool `json:"active"`
	Transitioning bool `json:"transitioning"`
	Index         int  `json:"index"`
	Total         int  `json:"total"`
}

// CanPrev reports whether the previous-stop control is enabled.
func (n NavState) CanPrev() bool {
	return n.Active && !n.Transitioning && n.Index > 0
}

// CanNext reports whether the next-stop control is enabled.
func (n NavState) CanNext() bool {
	return n.Active && !n.Transitioning && n.Index < n.Total-1
}

// UI is the overlay the sequencer drives.
type UI interface {
	// Notify shows a transient toast.
	Notify(msg string)
	SetStopUIState(state NavState)
	SetInfoPanel(title, body, hint string)
	ClearInfoPanel()
	// SetTeleportEnabled toggles teleport-by-click on the waypoint list.
	SetTeleportEnabled(enabled bool)
}

// Ports groups the collaborators. Nil fields are replaced by no-ops.
type Ports struct {
	Audio   Audio
	Speaker Speaker
	UI      UI
}

func (p Ports) withDefaults() Ports {
	if p.Audio == nil {
		p.Audio = nopAudio{}
	}
	if p.Speaker == nil {
		p.Speaker = nopSpeaker{}
	}
	if p.UI == nil {
		p.UI = nopUI{}
	}
	return p
}

type nopAudio struct{}

func (nopAudio) PlayNarration(string) {}
func (nopAudio) StopNarration()       {}
func (nopAudio) Chime()               {}
func (nopAudio) SetAmbient(bool)      {}

type nopSpeaker struct{}

func (nopSpeaker) Speak(string) {}

type nopUI struct{}

func (nopUI) Notify(string)                       {}
func (nopUI) SetStopUIState(NavState)             {}
func (nopUI) SetInfoPanel(string, string, string) {}
func (nopUI) ClearInfoPanel()                     {}
func (nopUI) SetTeleportEnabled(bool)             {}
