package web

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/hub"
	"github.com/teslashibe/go-museum/pkg/mode"
	"github.com/teslashibe/go-museum/pkg/protocol"
	"github.com/teslashibe/go-museum/pkg/scene"
	"github.com/teslashibe/go-museum/pkg/session"
	"github.com/teslashibe/go-museum/pkg/speech"
	"github.com/teslashibe/go-museum/pkg/tour"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// visitor is one browser. It is the session's scene binding, keeping the last
// known scene state in memory, and its audio, speech, UI and view sink: every
// call becomes a protocol message queued for the browser.
type visitor struct {
	*scene.Memory

	conn    hub.Conn
	send    chan []byte
	lang    string
	logger  *slog.Logger
	session *session.Session

	dropped atomic.Int64
}

func newVisitor(conn hub.Conn, spawn geom.Vec3, lang string, buffer int, logger *slog.Logger) *visitor {
	return &visitor{
		Memory: scene.NewMemory(spawn),
		conn:   conn,
		send:   make(chan []byte, buffer),
		lang:   lang,
		logger: logger,
	}
}

// emit queues a message without blocking the session goroutine. A visitor
// that cannot keep up loses messages; the next pose push resynchronises it.
func (v *visitor) emit(t protocol.MessageType, data interface{}) {
	msg, err := protocol.NewMessage(t, data)
	if err != nil {
		v.logger.Warn("encode message", "type", t, "error", err)
		return
	}
	b, err := msg.Bytes()
	if err != nil {
		v.logger.Warn("encode message", "type", t, "error", err)
		return
	}
	select {
	case v.send <- b:
	default:
		v.dropped.Add(1)
		v.logger.Warn("visitor send buffer full, dropping message", "type", t)
	}
}

func (v *visitor) poseData() protocol.PoseData {
	return protocol.PoseData{
		Position: [3]float64(v.RigPosition()),
		Yaw:      v.RigYaw(),
		Pitch:    v.CameraPitch(),
	}
}

// writePump is the only writer on the connection. It drains queued messages,
// pushes the pose whenever it changed and keeps the connection alive.
func (v *visitor) writePump(ctx context.Context, poseRate int) {
	poseTicker := time.NewTicker(time.Second / time.Duration(poseRate))
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		poseTicker.Stop()
		pingTicker.Stop()
		v.conn.Close()
	}()

	var last protocol.PoseData
	sent := false
	write := func(mt int, b []byte) bool {
		v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(mt, b); err != nil {
			v.logger.Debug("visitor write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			write(websocket.CloseMessage, []byte{})
			return

		case b := <-v.send:
			if !write(websocket.TextMessage, b) {
				return
			}

		case <-poseTicker.C:
			p := v.poseData()
			if sent && p == last {
				continue
			}
			msg, err := protocol.NewMessage(protocol.TypePose, p)
			if err != nil {
				continue
			}
			b, _ := msg.Bytes()
			if !write(websocket.TextMessage, b) {
				return
			}
			last, sent = p, true

		case <-pingTicker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// scene.Binding overrides that the browser must hear about.

func (v *visitor) SetFreeLook(enabled bool) {
	v.Memory.SetFreeLook(enabled)
	v.emit(protocol.TypeFreeLook, protocol.ToggleData{Enabled: enabled})
}

func (v *visitor) ResetLook() {
	v.Memory.ResetLook()
	v.emit(protocol.TypeLookZero, nil)
}

func (v *visitor) SetWalls(walls [4]bounds.Wall) {
	v.Memory.SetWalls(walls)
	data := protocol.WallsData{Walls: make([]protocol.WallData, 0, len(walls))}
	for _, w := range walls {
		data.Walls = append(data.Walls, protocol.WallData{
			Name:   w.Name,
			Center: [3]float64(w.Center),
			Size:   [3]float64(w.Size),
		})
	}
	v.emit(protocol.TypeWalls, data)
}

// tour.Audio

func (v *visitor) PlayNarration(ref string) {
	v.emit(protocol.TypeAudio, protocol.AudioData{Action: protocol.AudioPlay, Ref: ref})
}

func (v *visitor) StopNarration() {
	v.emit(protocol.TypeAudio, protocol.AudioData{Action: protocol.AudioStop})
}

func (v *visitor) Chime() {
	v.emit(protocol.TypeAudio, protocol.AudioData{Action: protocol.AudioChime})
}

func (v *visitor) SetAmbient(on bool) {
	v.emit(protocol.TypeAudio, protocol.AudioData{Action: protocol.AudioAmbient, On: on})
}

// tour.Speaker, using the browser's speech synthesis.

func (v *visitor) Speak(text string) {
	v.emit(protocol.TypeSpeak, protocol.SpeakData{Text: text, Lang: v.lang})
}

func (v *visitor) Silence() {
	v.emit(protocol.TypeSilence, nil)
}

// tour.UI

func (v *visitor) Notify(msg string) {
	v.emit(protocol.TypeToast, protocol.ToastData{Text: msg})
}

func (v *visitor) SetStopUIState(n tour.NavState) {
	v.emit(protocol.TypeStopUI, protocol.StopUIData{
		Active:        n.Active,
		Transitioning: n.Transitioning,
		Index:         n.Index,
		Total:         n.Total,
		CanPrev:       n.CanPrev(),
		CanNext:       n.CanNext(),
	})
}

func (v *visitor) SetInfoPanel(title, body, hint string) {
	v.emit(protocol.TypeInfo, protocol.InfoData{Title: title, Body: body, Hint: hint})
}

func (v *visitor) ClearInfoPanel() {
	v.emit(protocol.TypeInfo, protocol.InfoData{Hidden: true})
}

func (v *visitor) SetTeleportEnabled(enabled bool) {
	v.emit(protocol.TypeTeleport, protocol.ToggleData{Enabled: enabled})
}

// session.View

func (v *visitor) ModeChanged(m mode.Mode, menuOpen bool) {
	v.emit(protocol.TypeMode, protocol.ModeData{Mode: m.String(), MenuOpen: menuOpen})
}

func (v *visitor) SetMinimalHUD(minimal bool) {
	v.emit(protocol.TypeHUD, protocol.ToggleData{Enabled: minimal})
}

func (v *visitor) StopsLoaded(stops []tour.Stop) {
	data := protocol.StopsData{Stops: make([]protocol.StopSummary, 0, len(stops))}
	for _, st := range stops {
		data.Stops = append(data.Stops, protocol.StopSummary{
			Index: st.Index,
			Label: st.Label(),
			Code:  tour.DeriveCode(st),
		})
	}
	v.emit(protocol.TypeStops, data)
}

var (
	_ scene.Binding = (*visitor)(nil)
	_ tour.Audio    = (*visitor)(nil)
	_ tour.Speaker  = (*visitor)(nil)
	_ tour.UI       = (*visitor)(nil)
	_ session.View  = (*visitor)(nil)
)

// serveVisitor runs one visitor connection to completion. The first message
// may report the scene's markup pose, which becomes the spawn pose. It returns
// only once nothing else uses conn: the websocket middleware recycles it.
func (s *Server) serveVisitor(conn hub.Conn) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	closed := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
		close(closed)
	})
	defer func() {
		if !stop() {
			<-closed
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	first, err := readMessage(conn)
	if err != nil {
		s.logger.Debug("visitor left before first message", "error", err)
		return
	}

	v := newVisitor(conn, s.cfg.Spawn, s.cfg.Language, s.cfg.SendBuffer, s.logger)
	if first != nil && first.Type == protocol.TypeScene {
		if p, err := first.GetSceneData(); err == nil {
			v.SetRigPosition(geom.Vec3(p.Position))
			v.SetRigYaw(p.Yaw)
			v.SetCameraPitch(p.Pitch)
		}
		first = nil
	}

	ports := tour.Ports{Audio: v, Speaker: v, UI: v}
	var gw *speech.Gateway
	if s.cfg.SpeechURL != "" {
		gw = speech.New(
			speech.WithURL(s.cfg.SpeechURL),
			speech.WithLanguage(s.cfg.Language),
			speech.WithLogger(s.logger),
		)
		ports.Speaker = gw
	}

	opts := []session.Option{
		session.WithBounds(s.cfg.Bounds, s.cfg.Padding, s.cfg.Tweaks),
		session.WithView(v),
		session.WithMetrics(s.metrics),
		session.WithLogger(s.logger),
	}
	sess := session.New(v, ports, append(opts, s.cfg.Session...)...)
	v.session = sess
	v.logger = s.logger.With("session", sess.ID())

	s.addVisitor(v)
	defer s.removeVisitor(sess.ID())
	defer sess.Close()

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		v.writePump(ctx, s.cfg.PoseRate)
	}()
	defer func() {
		cancel()
		<-pumped
	}()
	go func() {
		if err := sess.Run(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
			v.logger.Warn("session stopped", "error", err)
		}
	}()

	if gw != nil {
		gw.OnTranscript(func(text string) {
			sess.Post(func() { sess.HandleVoice(text) })
		})
		go func() {
			if err := gw.Run(ctx); err != nil {
				v.logger.Warn("speech gateway stopped", "error", err)
			}
		}()
	}

	sess.Post(func() { sess.LoadStops(ctx, s.cfg.Source, s.cfg.Enricher) })
	v.logger.Info("visitor connected")

	if first != nil {
		s.route(v, first)
	}
	for {
		msg, err := readMessage(conn)
		if err != nil {
			v.logger.Info("visitor disconnected", "error", err)
			return
		}
		if msg != nil {
			s.route(v, msg)
		}
	}
}

// readMessage reads one frame. Unparseable frames yield a nil message and no
// error so the connection survives a bad client message.
func readMessage(conn hub.Conn) (*protocol.Message, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return nil, nil
	}
	return msg, nil
}

// route turns one inbound message into work on the session goroutine.
func (s *Server) route(v *visitor, msg *protocol.Message) {
	sess := v.session
	switch msg.Type {
	case protocol.TypeKey:
		if d, err := msg.GetKeyData(); err == nil {
			sess.Post(func() { sess.HandleKey(d.Key, d.Down) })
			return
		}
	case protocol.TypeJoystick:
		if d, err := msg.GetJoystickData(); err == nil {
			sess.Post(func() { sess.HandleJoystick(d.X, d.Y, d.Engaged) })
			return
		}
	case protocol.TypeVoice:
		if d, err := msg.GetVoiceData(); err == nil {
			sess.Post(func() { sess.HandleVoice(d.Text) })
			return
		}
	case protocol.TypeUI:
		if d, err := msg.GetUIData(); err == nil {
			sess.Post(func() { sess.HandleUI(d.Action, d.Index) })
			return
		}
	case protocol.TypeLook:
		if d, err := msg.GetLookData(); err == nil {
			sess.Post(func() { sess.Look(d.Yaw, d.Pitch) })
			return
		}
	case protocol.TypeFloor:
		if d, err := msg.GetFloorData(); err == nil {
			sess.Post(func() { sess.HandleFloor(d.X, d.Z) })
			return
		}
	case protocol.TypeOptions:
		if d, err := msg.GetOptionsData(); err == nil {
			sess.Post(func() { sess.SetOptions(mergeOptions(sess.Sequencer().Options(), d)) })
			return
		}
	case protocol.TypeSpeed:
		if d, err := msg.GetSpeedData(); err == nil {
			sess.Post(func() { sess.SetSpeedLevel(d.Level) })
			return
		}
	case protocol.TypeEntity:
		if d, err := msg.GetEntityData(); err == nil && d.Ref != "" {
			v.PutEntity(d.Ref, geom.Vec3(d.Position))
			return
		}
	case protocol.TypePing:
		if d, err := msg.GetPingData(); err == nil {
			now := time.Now().UnixMilli()
			v.emit(protocol.TypePong, protocol.PongData{
				ID:        d.ID,
				PingTS:    d.Timestamp,
				PongTS:    now,
				LatencyMs: now - d.Timestamp,
			})
			return
		}
	}
	v.logger.Debug("ignored visitor message", "type", msg.Type)
}

// mergeOptions applies the fields a client sent on top of o.
func mergeOptions(o tour.Options, d *protocol.OptionsData) tour.Options {
	if d.Speed != nil {
		o.Speed = *d.Speed
	}
	if d.ReducedMotion != nil {
		o.ReducedMotion = *d.ReducedMotion
	}
	if d.TTS != nil {
		o.TTS = *d.TTS
	}
	if d.AutoAdvance != nil {
		o.AutoAdvance = *d.AutoAdvance
	}
	if d.InvertPitch != nil {
		o.InvertPitch = *d.InvertPitch
	}
	if d.Ambient != nil {
		o.Ambient = *d.Ambient
	}
	return o
}
