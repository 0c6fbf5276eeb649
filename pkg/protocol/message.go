// Package protocol defines the WebSocket messages exchanged between the museum
// server and the visitor's browser, which renders the scene.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Browser → Server messages
	TypeScene    MessageType = "scene"    // Initial markup pose, sent first
	TypeKey      MessageType = "key"      // Key down/up
	TypeJoystick MessageType = "joystick" // Virtual joystick sample
	TypeVoice    MessageType = "voice"    // Recognised utterance
	TypeUI       MessageType = "ui"       // Overlay button
	TypeLook     MessageType = "look"     // Free-look sample
	TypeFloor    MessageType = "floor"    // Click on the floor
	TypeOptions  MessageType = "options"  // Tour options
	TypeSpeed    MessageType = "speed"    // Movement speed level
	TypeEntity   MessageType = "entity"   // Look-at target position

	// Server → Browser messages
	TypePose     MessageType = "pose"      // Rig pose
	TypeToast    MessageType = "toast"     // Transient notice
	TypeInfo     MessageType = "info"      // Info panel
	TypeStopUI   MessageType = "stop_ui"   // Tour navigation controls
	TypeMode     MessageType = "mode"      // Experience mode and menu
	TypeWalls    MessageType = "walls"     // Boundary markers
	TypeAudio    MessageType = "audio"     // Narration and cues
	TypeSpeak    MessageType = "speak"     // Text to speech
	TypeSilence  MessageType = "silence"   // Cancel speech
	TypeFreeLook MessageType = "free_look" // Look controller on/off
	TypeLookZero MessageType = "look_zero" // Reset look accumulators
	TypeTeleport MessageType = "teleport"  // Waypoint teleport on/off
	TypeHUD      MessageType = "hud"       // Minimal HUD
	TypeStops    MessageType = "stops"     // Waypoint list

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Browser → Server Message Types
// =============================================================================

// KeyData is a key event, named as in the DOM KeyboardEvent.key.
type KeyData struct {
	Key  string `json:"key"`
	Down bool   `json:"down"`
}

// JoystickData is a virtual joystick sample in [-1, 1].
type JoystickData struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Engaged bool    `json:"engaged"`
}

// VoiceData is a recognised utterance.
type VoiceData struct {
	Text string `json:"text"`
}

// UIData is an overlay button press. Index is used by waypoint buttons.
type UIData struct {
	Action string `json:"action"`
	Index  int    `json:"index,omitempty"`
}

// LookData is a free-look sample in degrees.
type LookData struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// FloorData is a floor click in world units.
type FloorData struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// OptionsData carries tour preferences. Nil fields are left unchanged.
type OptionsData struct {
	Speed         *float64 `json:"speed,omitempty"`
	ReducedMotion *bool    `json:"reduced_motion,omitempty"`
	TTS           *bool    `json:"tts,omitempty"`
	AutoAdvance   *bool    `json:"auto_advance,omitempty"`
	InvertPitch   *bool    `json:"invert_pitch,omitempty"`
	Ambient       *bool    `json:"ambient,omitempty"`
}

// SpeedData is a movement speed level (1-6).
type SpeedData struct {
	Level int `json:"level"`
}

// EntityData reports where a look-at target sits in the scene.
type EntityData struct {
	Ref      string     `json:"ref"`
	Position [3]float64 `json:"position"`
}

// =============================================================================
// Server → Browser Message Types
// =============================================================================

// PoseData is the rig pose.
type PoseData struct {
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
}

// ToastData is a transient notice.
type ToastData struct {
	Text string `json:"text"`
}

// InfoData fills or hides the info panel.
type InfoData struct {
	Title  string `json:"title,omitempty"`
	Body   string `json:"body,omitempty"`
	Hint   string `json:"hint,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// StopUIData drives the tour navigation controls.
type StopUIData struct {
	Active        bool `json:"active"`
	Transitioning bool `json:"transitioning"`
	Index         int  `json:"index"`
	Total         int  `json:"total"`
	CanPrev       bool `json:"can_prev"`
	CanNext       bool `json:"can_next"`
}

// ModeData is the experience mode and menu overlay state.
type ModeData struct {
	Mode     string `json:"mode"`
	MenuOpen bool   `json:"menu_open"`
}

// WallData is one boundary marker.
type WallData struct {
	Name   string     `json:"name"`
	Center [3]float64 `json:"center"`
	Size   [3]float64 `json:"size"`
}

// WallsData rebuilds the boundary markers.
type WallsData struct {
	Walls []WallData `json:"walls"`
}

// Audio actions.
const (
	AudioPlay    = "play"
	AudioStop    = "stop"
	AudioChime   = "chime"
	AudioAmbient = "ambient"
)

// AudioData is a narration or cue command.
type AudioData struct {
	Action string `json:"action"`
	Ref    string `json:"ref,omitempty"`
	On     bool   `json:"on,omitempty"`
}

// SpeakData is text for the browser's speech synthesis.
type SpeakData struct {
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
}

// ToggleData carries a single on/off flag.
type ToggleData struct {
	Enabled bool `json:"enabled"`
}

// StopSummary is one waypoint list entry.
type StopSummary struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Code  string `json:"code"`
}

// StopsData is the waypoint list.
type StopsData struct {
	Stops []StopSummary `json:"stops"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
