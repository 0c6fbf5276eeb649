// Package session is the application root for one visitor. A Session owns the
// mode arbiter, pose store, movement engine and tour sequencer, and runs them on
// a single goroutine fed by posted closures and frame ticks.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/clock"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/input"
	"github.com/teslashibe/go-museum/pkg/metrics"
	"github.com/teslashibe/go-museum/pkg/mode"
	"github.com/teslashibe/go-museum/pkg/movement"
	"github.com/teslashibe/go-museum/pkg/pose"
	"github.com/teslashibe/go-museum/pkg/scene"
	"github.com/teslashibe/go-museum/pkg/tour"
)

// Visitor-facing notices owned by the session.
const (
	NoticeWall = "Chegaste ao limite da sala."
	NoticeHelp = "WASD ou joystick para andar · Q/E para rodar · ← / → na visita · M menu · H interface · Esc termina a visita"
)

var (
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("session: closed")

	// ErrMovementGated is returned for rig moves requested in Welcome or with
	// the menu open.
	ErrMovementGated = errors.New("session: movement not allowed")
)

// View receives presentation changes that are not part of the tour UI port.
type View interface {
	ModeChanged(m mode.Mode, menuOpen bool)
	SetMinimalHUD(minimal bool)
	StopsLoaded(stops []tour.Stop)
}

type nopView struct{}

func (nopView) ModeChanged(mode.Mode, bool) {}
func (nopView) SetMinimalHUD(bool)          {}
func (nopView) StopsLoaded([]tour.Stop)     {}

// Snapshot is a point-in-time view of a session for monitors.
type Snapshot struct {
	ID         string         `json:"id"`
	Mode       mode.Mode      `json:"mode"`
	MenuOpen   bool           `json:"menu_open"`
	MinimalHUD bool           `json:"minimal_hud"`
	Pose       pose.Pose      `json:"pose"`
	Bounds     bounds.Bounds  `json:"bounds"`
	Tour       tour.RunState  `json:"tour"`
	Options    tour.Options   `json:"options"`
	Movement   movement.Stats `json:"movement"`
	At         time.Time      `json:"at"`
}

// Session is one visitor's navigation core.
type Session struct {
	id      string
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	clock   clock.Clock
	binding scene.Binding
	ports   tour.Ports
	view    View

	modes  *mode.Arbiter
	store  *pose.Store
	engine *movement.Engine
	seq    *tour.Sequencer
	input  *input.Normalizer

	queue  chan func()
	done   chan struct{}
	closed atomic.Bool

	lastFrame  time.Time
	resetNext  bool
	minimalHUD bool
	latest     atomic.Pointer[Snapshot]
}

// New builds a session over binding. The binding's current pose becomes the
// spawn pose.
func New(binding scene.Binding, ports tour.Ports, opts ...Option) *Session {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	if cfg.View == nil {
		cfg.View = nopView{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		metrics: cfg.Metrics,
		binding: binding,
		ports:   ports,
		view:    cfg.View,
		queue:   make(chan func(), cfg.QueueSize),
		done:    make(chan struct{}),
	}
	s.logger = log.For(cfg.Logger, "session", "session", s.id)

	s.clock = cfg.Clock
	if s.clock == nil {
		s.clock = clock.NewLoop(s.Post)
	}

	s.modes = mode.NewArbiter(s.logger)
	initial := ApplyTweaks(cfg.Bounds, cfg.Tweaks)
	s.store = pose.NewStore(binding, s.clock, initial, pose.WithLogger(s.logger))
	s.store.CaptureSpawnPose()

	s.seq = tour.NewSequencer(s.store, binding, s.modes, s.clock, ports,
		tour.WithOptions(cfg.Tour),
		tour.WithLogger(s.logger),
		tour.WithHooks(tour.Hooks{
			OnStart:  func(int) { s.metrics.TourStarted() },
			OnArrive: func(st tour.Stop) { s.metrics.StopReached(tour.DeriveCode(st)) },
			OnFinish: s.metrics.TourFinished,
			OnNotice: func(err error) { s.logger.Debug("tour notice", "error", err) },
		}),
	)

	movementOpts := append([]movement.Option{movement.WithLogger(s.logger)}, cfg.Movement...)
	s.engine = movement.NewEngine(s.store, binding, s.modes, s.seq.Running, s.clock, movementOpts...)
	s.engine.SetWallNotifier(movement.WallNotifierFunc(func(geom.Vec3) {
		s.metrics.WallHit()
		if s.ports.UI != nil {
			s.ports.UI.Notify(NoticeWall)
		}
	}))

	s.input = input.NewNormalizer(input.WithSnapDegrees(s.engine.SnapDegrees()), input.WithLogger(s.logger))

	s.modes.OnChange(s.onModeChange)
	s.store.SetBounds(initial)
	binding.SetFreeLook(s.modes.LookAllowed())
	s.publish()
	return s
}

// ApplyTweaks applies edge tweaks and widens degenerate axes.
func ApplyTweaks(b bounds.Bounds, t bounds.Tweaks) bounds.Bounds {
	return bounds.ApplyEdgeTweaks(b, t).Validate()
}

// onModeChange keeps input gating in step with the arbiter: entering Welcome or
// opening the menu drops held input and disables free look.
func (s *Session) onModeChange(c mode.Change) {
	if c.Gated() {
		s.store.ClearInput()
	}
	s.binding.SetFreeLook(s.modes.LookAllowed())
	s.view.ModeChanged(s.modes.Mode(), s.modes.MenuOpen())
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Post queues fn to run on the session goroutine. It blocks while the queue is
// full and drops fn once the session is closed.
func (s *Session) Post(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

// Drain runs every queued closure on the calling goroutine. It is for callers
// that drive the session without Run, such as tests and the CLI.
func (s *Session) Drain() int {
	n := 0
	for {
		select {
		case fn := <-s.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// Run drives the session until ctx is done or Close is called. All core state is
// touched only from this goroutine.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.FrameRate))
	defer ticker.Stop()

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()
	s.logger.Info("session started", "frame_rate", s.cfg.FrameRate)

	s.lastFrame = s.clock.Now()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-s.done:
			s.shutdown()
			return ErrClosed
		case fn := <-s.queue:
			fn()
		case <-ticker.C:
			s.Frame(s.clock.Now())
		}
	}
}

// Close stops Run. Safe to call more than once.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
}

func (s *Session) shutdown() {
	s.Close()
	s.seq.Stop()
	s.logger.Info("session stopped")
}

// Frame samples animations and integrates movement for the time since the last
// frame. A pending second reset runs here.
func (s *Session) Frame(now time.Time) {
	started := time.Now()
	dt := now.Sub(s.lastFrame)
	if s.lastFrame.IsZero() || dt < 0 {
		dt = 0
	}
	if dt > s.cfg.MaxFrameStep {
		dt = s.cfg.MaxFrameStep
	}
	s.lastFrame = now

	if s.resetNext {
		s.resetNext = false
		s.store.ResetToSpawn()
	}
	s.store.Advance(now)
	s.engine.Step(dt)
	s.publish()
	s.metrics.ObserveFrame(time.Since(started).Seconds())
}

// EnterExplore leaves Welcome for free exploration, or ends a running tour.
func (s *Session) EnterExplore() error {
	switch s.modes.Mode() {
	case mode.Welcome:
		s.store.ResetToSpawn()
		if err := s.modes.Transition(mode.Explore); err != nil {
			return err
		}
		s.applyAmbient()
	case mode.Tour:
		s.seq.Stop()
	}
	return nil
}

// EnterTour starts the guided tour. Coming from Welcome the rig is reset to
// spawn first.
func (s *Session) EnterTour() error {
	if s.modes.Is(mode.Welcome) {
		s.store.ResetToSpawn()
	}
	if err := s.seq.Start(); err != nil {
		return err
	}
	s.applyAmbient()
	return nil
}

// applyAmbient switches background music to the current preference.
func (s *Session) applyAmbient() {
	if s.ports.Audio != nil {
		s.ports.Audio.SetAmbient(s.seq.Options().Ambient)
	}
}

// BackToWelcome cancels any tour, mutes narration and hard-resets the pose now
// and again on the next frame.
func (s *Session) BackToWelcome() {
	if err := s.modes.Transition(mode.Welcome); err != nil {
		s.logger.Warn("back to welcome", "error", err)
	}
	s.seq.Stop()
	if s.ports.Audio != nil {
		s.ports.Audio.StopNarration()
	}
	if sil, ok := s.ports.Speaker.(interface{ Silence() }); ok {
		sil.Silence()
	}
	s.store.ResetToSpawn()
	s.resetNext = true
	if s.ports.UI != nil {
		s.ports.UI.ClearInfoPanel()
	}
	s.setMinimalHUD(false)
}

func (s *Session) setMinimalHUD(minimal bool) {
	if s.minimalHUD == minimal {
		return
	}
	s.minimalHUD = minimal
	s.view.SetMinimalHUD(minimal)
}

// SetOptions replaces the tour options. A changed ambient preference takes
// effect at once outside Welcome.
func (s *Session) SetOptions(o tour.Options) {
	prev := s.seq.Options().Ambient
	s.seq.SetOptions(o)
	if o.Ambient != prev && !s.modes.Is(mode.Welcome) {
		s.applyAmbient()
	}
}

// SetSpeedLevel sets the free-movement speed level.
func (s *Session) SetSpeedLevel(level int) {
	s.engine.SetSpeedLevel(level)
}

// Look applies a free-look sample from the renderer. It is ignored while look
// input is gated or a tour animation owns the orientation.
func (s *Session) Look(yaw, pitch float64) bool {
	if !s.modes.LookAllowed() || s.store.Animating() {
		return false
	}
	s.store.SetPose(nil, &yaw, &pitch)
	return true
}

// LoadStops starts loading the stop list from src on its own goroutine. The
// result is applied on the session goroutine. Must be called from the session
// goroutine.
func (s *Session) LoadStops(ctx context.Context, src tour.StopDataSource, enricher tour.MetadataEnricher) {
	s.seq.BeginLoad()
	go func() {
		stops, err := src.Load(ctx)
		if err == nil && enricher != nil {
			n := tour.Enrich(stops, enricher)
			s.logger.Debug("stops enriched", "matched", n, "total", len(stops))
		}
		s.Post(func() { s.ApplyStops(stops, err, src.Name()) })
	}()
}

// ApplyStops installs a loaded stop list, or reports the load failure.
func (s *Session) ApplyStops(stops []tour.Stop, err error, source string) {
	if err == nil && len(stops) == 0 {
		err = &tour.SourceError{Source: source, Err: tour.ErrDataUnavailable}
	}
	if err != nil {
		s.metrics.LoadFailed(source)
		s.logger.Warn("stop list unavailable", "source", source, "error", err)
		s.seq.LoadFailed(err)
		return
	}
	s.seq.SetStops(stops)
	s.ApplyBounds(s.boundsFor(stops))
	s.view.StopsLoaded(s.seq.Stops())
	s.logger.Info("stops loaded", "source", source, "count", len(stops))
}

func (s *Session) boundsFor(stops []tour.Stop) bounds.Bounds {
	b, ok := bounds.ComputeFromStops(stops, s.cfg.Padding, s.cfg.Bounds.FloorY)
	if !ok {
		s.logger.Warn("no stop positions, keeping fallback bounds")
		b = s.cfg.Bounds
	}
	return ApplyTweaks(b, s.cfg.Tweaks)
}

// ApplyBounds replaces the walkable rectangle.
func (s *Session) ApplyBounds(b bounds.Bounds) {
	s.store.SetBounds(b)
}

// HandleKey normalises and dispatches a key event.
func (s *Session) HandleKey(key string, down bool) {
	for _, cmd := range s.input.Key(key, down, s.modes.Mode()) {
		s.dispatchLogged(cmd)
	}
}

// HandleJoystick normalises and dispatches a joystick sample.
func (s *Session) HandleJoystick(x, y float64, engaged bool) {
	s.dispatchLogged(s.input.Joystick(x, y, engaged))
}

// HandleVoice dispatches a recognised utterance. It reports whether it matched.
func (s *Session) HandleVoice(text string) bool {
	cmd, ok := s.input.Voice(text)
	if ok {
		s.dispatchLogged(cmd)
	}
	return ok
}

// HandleUI dispatches an overlay button.
func (s *Session) HandleUI(action string, index int) bool {
	cmd, ok := s.input.UI(action, index)
	if ok {
		s.dispatchLogged(cmd)
	}
	return ok
}

// HandleFloor dispatches a click on the floor.
func (s *Session) HandleFloor(x, z float64) {
	s.dispatchLogged(s.input.Floor(x, z))
}

func (s *Session) dispatchLogged(cmd input.Command) {
	if err := s.Dispatch(cmd); err != nil {
		s.logger.Debug("command rejected", "command", cmd.String(), "error", err)
	}
}

// Dispatch applies one command. Errors are informational: the visitor has
// already been notified where it matters.
func (s *Session) Dispatch(cmd input.Command) error {
	if cmd.Kind != input.KindMove && cmd.Kind != input.KindJoystick {
		s.metrics.Command(cmd.Kind.String())
	}
	switch cmd.Kind {
	case input.KindMove:
		if cmd.Down && !s.modes.MovementAllowed() {
			return nil
		}
		s.store.SetKey(cmd.Dir, cmd.Down)
	case input.KindJoystick:
		if cmd.Engaged && !s.modes.MovementAllowed() {
			s.store.SetJoystick(0, 0, false)
			return nil
		}
		s.store.SetJoystick(cmd.X, cmd.Y, cmd.Engaged)
	case input.KindEnterExplore:
		return s.EnterExplore()
	case input.KindEnterTour, input.KindStartTour:
		return s.EnterTour()
	case input.KindWelcome:
		s.BackToWelcome()
	case input.KindNext:
		return s.seq.Next()
	case input.KindPrev:
		return s.seq.Prev()
	case input.KindPauseToggle:
		s.seq.TogglePause()
	case input.KindPause:
		s.seq.Pause()
	case input.KindResume:
		s.seq.Resume()
	case input.KindStopTour:
		s.seq.Stop()
	case input.KindToggleMenu:
		s.modes.ToggleMenu()
	case input.KindHelp:
		if s.ports.UI != nil {
			s.ports.UI.Notify(NoticeHelp)
		}
	case input.KindToggleHUD:
		s.setMinimalHUD(!s.minimalHUD)
	case input.KindSnapTurn:
		s.engine.SnapTurn(cmd.Degrees)
	case input.KindWaypoint:
		return s.seq.TeleportTo(cmd.Index)
	case input.KindJump:
		if !s.modes.MovementAllowed() {
			return ErrMovementGated
		}
		return s.seq.JumpTo(cmd.Index)
	case input.KindTeleportPoint:
		s.engine.TeleportToPoint(cmd.X, cmd.Y)
	case input.KindRevealDescription:
		return s.seq.RevealDescription()
	}
	return nil
}

// Snapshot captures the current state. Call it on the session goroutine; other
// goroutines use Latest.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:         s.id,
		Mode:       s.modes.Mode(),
		MenuOpen:   s.modes.MenuOpen(),
		MinimalHUD: s.minimalHUD,
		Pose:       s.store.Pose(),
		Bounds:     s.store.Bounds(),
		Tour:       s.seq.State(),
		Options:    s.seq.Options(),
		Movement:   s.engine.Stats(),
		At:         s.clock.Now(),
	}
}

func (s *Session) publish() {
	snap := s.Snapshot()
	s.latest.Store(&snap)
}

// Latest returns the snapshot published by the most recent frame. Safe from any
// goroutine.
func (s *Session) Latest() Snapshot {
	if p := s.latest.Load(); p != nil {
		return *p
	}
	return Snapshot{ID: s.id}
}

// Modes exposes the arbiter to adapters on the session goroutine.
func (s *Session) Modes() *mode.Arbiter { return s.modes }

// Sequencer exposes the tour sequencer to adapters on the session goroutine.
func (s *Session) Sequencer() *tour.Sequencer { return s.seq }

// Store exposes the pose store to adapters on the session goroutine.
func (s *Session) Store() *pose.Store { return s.store }
