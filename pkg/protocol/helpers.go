package protocol

import (
	"time"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPoseMessage creates a pose message
func NewPoseMessage(pos [3]float64, yaw, pitch float64) (*Message, error) {
	return NewMessage(TypePose, PoseData{Position: pos, Yaw: yaw, Pitch: pitch})
}

// NewToastMessage creates a toast message
func NewToastMessage(text string) (*Message, error) {
	return NewMessage(TypeToast, ToastData{Text: text})
}

// NewInfoMessage creates an info panel message
func NewInfoMessage(title, body, hint string) (*Message, error) {
	return NewMessage(TypeInfo, InfoData{Title: title, Body: body, Hint: hint})
}

// NewHideInfoMessage hides the info panel
func NewHideInfoMessage() (*Message, error) {
	return NewMessage(TypeInfo, InfoData{Hidden: true})
}

// NewModeMessage creates a mode message
func NewModeMessage(mode string, menuOpen bool) (*Message, error) {
	return NewMessage(TypeMode, ModeData{Mode: mode, MenuOpen: menuOpen})
}

// NewAudioMessage creates an audio command
func NewAudioMessage(action, ref string, on bool) (*Message, error) {
	return NewMessage(TypeAudio, AudioData{Action: action, Ref: ref, On: on})
}

// NewSpeakMessage creates a speech synthesis message
func NewSpeakMessage(text, lang string) (*Message, error) {
	return NewMessage(TypeSpeak, SpeakData{Text: text, Lang: lang})
}

// NewToggleMessage creates an on/off message of the given type
func NewToggleMessage(msgType MessageType, enabled bool) (*Message, error) {
	return NewMessage(msgType, ToggleData{Enabled: enabled})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetSceneData extracts the initial pose from a scene message
func (m *Message) GetSceneData() (*PoseData, error) {
	var data PoseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetKeyData extracts key data from a message
func (m *Message) GetKeyData() (*KeyData, error) {
	var data KeyData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetJoystickData extracts joystick data from a message
func (m *Message) GetJoystickData() (*JoystickData, error) {
	var data JoystickData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetVoiceData extracts voice data from a message
func (m *Message) GetVoiceData() (*VoiceData, error) {
	var data VoiceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetUIData extracts a UI action from a message
func (m *Message) GetUIData() (*UIData, error) {
	var data UIData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetLookData extracts look data from a message
func (m *Message) GetLookData() (*LookData, error) {
	var data LookData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFloorData extracts a floor click from a message
func (m *Message) GetFloorData() (*FloorData, error) {
	var data FloorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetOptionsData extracts tour options from a message
func (m *Message) GetOptionsData() (*OptionsData, error) {
	var data OptionsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSpeedData extracts a speed level from a message
func (m *Message) GetSpeedData() (*SpeedData, error) {
	var data SpeedData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEntityData extracts an entity report from a message
func (m *Message) GetEntityData() (*EntityData, error) {
	var data EntityData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
