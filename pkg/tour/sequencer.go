// Package tour drives guided-tour playback.
//
// The Sequencer is a state machine (Idle -> Loading -> Active -> Idle) that moves
// the rig from stop to stop. Each stop is a transition: move (animated or
// instant), then on arrival orient towards the stop's target, show its title,
// start narration and optionally schedule auto-advance. Every transition owns the
// scheduler exclusively, so starting one always invalidates the callbacks of the
// previous one.
package tour

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/clock"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/mode"
	"github.com/teslashibe/go-museum/pkg/pose"
	"github.com/teslashibe/go-museum/pkg/scene"
	"github.com/teslashibe/go-museum/pkg/tween"
)

// State is the sequencer's top-level state.
type State int

const (
	Idle State = iota
	Loading
	Active
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Phase is the sub-state of Active.
type Phase int

const (
	PhaseNone Phase = iota
	Transitioning
	AtStop
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Transitioning:
		return "transitioning"
	case AtStop:
		return "at_stop"
	default:
		return "none"
	}
}

// Playback speed multiplier range.
const (
	MinSpeed = 0.5
	MaxSpeed = 1.5
)

// Options are the visitor's tour preferences.
type Options struct {
	// Speed divides every stop duration. Clamped to [MinSpeed, MaxSpeed].
	Speed         float64 `json:"speed" mapstructure:"speed"`
	ReducedMotion bool    `json:"reduced_motion" mapstructure:"reduced_motion"`
	TTS           bool    `json:"tts" mapstructure:"tts"`
	AutoAdvance   bool    `json:"auto_advance" mapstructure:"auto_advance"`
	// InvertPitch flips look-at pitch for renderers whose camera pitch is
	// positive downwards.
	InvertPitch bool `json:"invert_pitch" mapstructure:"invert_pitch"`
	// Ambient plays background music while the visitor is in the museum.
	Ambient bool `json:"ambient" mapstructure:"ambient"`
}

func (o Options) normalized() Options {
	if o.Speed <= 0 {
		o.Speed = 1
	}
	o.Speed = geom.Clamp(o.Speed, MinSpeed, MaxSpeed)
	return o
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a state name, as read back by monitors.
func (s *State) UnmarshalText(b []byte) error {
	for _, v := range []State{Idle, Loading, Active} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("tour: unknown state %q", b)
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, v := range []Phase{PhaseNone, Transitioning, AtStop} {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("tour: unknown phase %q", b)
}

// RunState is a snapshot of the sequencer.
type RunState struct {
	State   State `json:"state"`
	Phase   Phase `json:"phase"`
	Running bool  `json:"running"`
	Paused  bool  `json:"paused"`
	Index   int   `json:"index"`
	Total   int   `json:"total"`
	Loaded  bool  `json:"loaded"`
}

// Modes is the part of the mode arbiter the sequencer drives.
type Modes interface {
	Mode() mode.Mode
	Is(m mode.Mode) bool
	Transition(to mode.Mode) error
}

// Hooks observe tour progress. Any field may be nil.
type Hooks struct {
	OnStart  func(total int)
	OnArrive func(stop Stop)
	OnFinish func()
	OnStop   func()
	OnNotice func(err error)
}

// Config holds sequencer settings.
type Config struct {
	Options Options

	// ArrivalDelay is added after an animated move before the arrival step runs.
	ArrivalDelay time.Duration

	// InstantArrivalDelay replaces the move time for instant transitions, so the
	// arrival step lands on the next frame rather than the same one.
	InstantArrivalDelay time.Duration

	Ease   tween.Easing
	Hooks  Hooks
	Logger *slog.Logger
}

// DefaultConfig returns the default sequencer settings.
func DefaultConfig() Config {
	return Config{
		Options:             Options{Speed: 1},
		ArrivalDelay:        60 * time.Millisecond,
		InstantArrivalDelay: 20 * time.Millisecond,
		Ease:                tween.EaseInOutQuad,
	}
}

// Option configures a Sequencer.
type Option func(*Config)

// WithOptions sets the initial tour preferences.
func WithOptions(o Options) Option {
	return func(c *Config) {
		c.Options = o
	}
}

// WithHooks sets the progress hooks.
func WithHooks(h Hooks) Option {
	return func(c *Config) {
		c.Hooks = h
	}
}

// WithArrivalDelays overrides the arrival delays.
func WithArrivalDelays(animated, instant time.Duration) Option {
	return func(c *Config) {
		c.ArrivalDelay = animated
		c.InstantArrivalDelay = instant
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// Sequencer is the tour state machine. It is owned by one goroutine; timer
// callbacks must be delivered on that goroutine (see clock.Loop).
type Sequencer struct {
	store   *pose.Store
	scene   scene.Binding
	modes   Modes
	sched   *Scheduler
	audio   Audio
	speaker Speaker
	ui      UI
	cfg     Config
	opts    Options
	logger  *slog.Logger

	stops   []Stop
	loaded  bool
	loading bool

	state    State
	phase    Phase
	running  bool
	paused   bool
	index    int
	prevMode mode.Mode
}

// NewSequencer creates an idle sequencer.
func NewSequencer(store *pose.Store, binding scene.Binding, modes Modes, clk clock.Clock, ports Ports, opts ...Option) *Sequencer {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	if cfg.Ease == nil {
		cfg.Ease = tween.EaseInOutQuad
	}
	ports = ports.withDefaults()
	return &Sequencer{
		store:   store,
		scene:   binding,
		modes:   modes,
		sched:   NewScheduler(clk),
		audio:   ports.Audio,
		speaker: ports.Speaker,
		ui:      ports.UI,
		cfg:     cfg,
		opts:    cfg.Options.normalized(),
		logger:  cfg.Logger,
	}
}

// State returns a snapshot.
func (s *Sequencer) State() RunState {
	return RunState{
		State:   s.state,
		Phase:   s.phase,
		Running: s.running,
		Paused:  s.paused,
		Index:   s.index,
		Total:   len(s.stops),
		Loaded:  s.loaded,
	}
}

// Running reports whether a tour is in progress (paused or not).
func (s *Sequencer) Running() bool {
	return s.running
}

// Stops returns a copy of the loaded stops.
func (s *Sequencer) Stops() []Stop {
	out := make([]Stop, len(s.stops))
	copy(out, s.stops)
	return out
}

// Options returns the active preferences.
func (s *Sequencer) Options() Options {
	return s.opts
}

// SetOptions replaces the preferences. They apply from the next transition.
func (s *Sequencer) SetOptions(o Options) {
	s.opts = o.normalized()
}

// PendingCallbacks returns how many scheduled callbacks may still run.
func (s *Sequencer) PendingCallbacks() int {
	return s.sched.Pending()
}

// BeginLoad marks a stop load as in flight. A Start issued before the load
// lands waits in Loading instead of failing.
func (s *Sequencer) BeginLoad() {
	s.loading = true
}

// SetStops installs a freshly loaded stop list. A Start waiting in Loading
// resumes here, after re-checking that it was not cancelled meanwhile.
func (s *Sequencer) SetStops(stops []Stop) {
	s.stops = Indexed(stops)
	s.loaded = true
	s.loading = false
	s.logger.Info("tour stops loaded", "count", len(s.stops))

	switch {
	case s.state == Loading:
		if len(s.stops) == 0 {
			s.abortStart(ErrDataUnavailable)
			return
		}
		s.activate()
	case s.running:
		if len(s.stops) == 0 {
			s.Stop()
			s.ui.Notify(NoticeDataUnavailable)
			return
		}
		if s.index >= len(s.stops) {
			s.index = len(s.stops) - 1
		}
		s.ui.SetStopUIState(s.nav())
	}
}

// LoadFailed records a failed stop load. Previously loaded stops are kept.
func (s *Sequencer) LoadFailed(err error) {
	s.loading = false
	s.logger.Warn("stop load failed", "error", err)
	if s.state == Loading {
		s.abortStart(err)
	}
}

// Start begins the tour from stop 0. It switches the mode to Tour, stops free
// movement and zeroes the rig and camera rotation. If stops are still loading
// the sequencer waits in Loading; with no stops it fails with ErrDataUnavailable
// and restores the previous mode.
func (s *Sequencer) Start() error {
	if s.running || s.state == Loading {
		return nil
	}
	s.prevMode = s.modes.Mode()
	if err := s.modes.Transition(mode.Tour); err != nil {
		return err
	}
	s.store.ClearInput()
	s.store.CancelAnimations()
	zero := 0.0
	s.store.SetPose(nil, &zero, &zero)
	s.state = Loading

	if len(s.stops) > 0 {
		s.activate()
		return nil
	}
	if s.loading {
		s.logger.Debug("tour waiting for stop data")
		return nil
	}
	return s.abortStart(ErrDataUnavailable)
}

func (s *Sequencer) activate() {
	s.state = Active
	s.running = true
	s.paused = false
	s.index = 0
	s.ui.SetTeleportEnabled(true)
	s.logger.Info("tour started", "stops", len(s.stops))
	if h := s.cfg.Hooks.OnStart; h != nil {
		h(len(s.stops))
	}
	// The first placement never animates from whatever pose came before.
	s.goToStop(0, true)
}

func (s *Sequencer) abortStart(cause error) error {
	s.state = Idle
	s.ui.Notify(NoticeDataUnavailable)
	if s.modes.Is(mode.Tour) {
		prev := s.prevMode
		if prev == mode.Tour {
			prev = mode.Explore
		}
		if err := s.modes.Transition(prev); err != nil {
			s.logger.Warn("could not restore mode", "mode", prev.String(), "error", err)
		}
	}
	err := cause
	if !errors.Is(err, ErrDataUnavailable) {
		err = fmt.Errorf("%w: %w", ErrDataUnavailable, cause)
	}
	s.logger.Warn("tour cannot start", "error", err)
	s.report(err)
	return err
}

// timings are one transition's durations after speed and reduced motion.
type timings struct {
	move    time.Duration
	look    time.Duration
	wait    time.Duration
	instant bool
}

func (s *Sequencer) timingsFor(st Stop, instant bool) timings {
	speed := s.opts.Speed
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) / speed)
	}
	t := timings{
		move:    scale(st.MoveDuration()),
		look:    scale(st.LookDuration()),
		wait:    scale(st.WaitDuration()),
		instant: instant || s.opts.ReducedMotion,
	}
	if t.instant {
		t.move, t.look = 0, 0
	}
	return t
}

// goToStop runs the per-stop transition. It is re-entrant: the scheduler
// replace at the top drops every callback of the previous transition.
func (s *Sequencer) goToStop(i int, instant bool) {
	task := s.sched.Replace()
	s.store.Sync()
	s.store.CancelAnimations()
	if !s.running || s.paused {
		return
	}
	if i < 0 || i >= len(s.stops) {
		s.Stop()
		return
	}
	s.index = i
	st := s.stops[i]
	t := s.timingsFor(st, instant)

	s.phase = Transitioning
	s.ui.SetStopUIState(s.nav())
	s.ui.SetInfoPanel(PlaceholderMoving, "", "")
	s.logger.Debug("going to stop", "index", i, "title", st.Title, "instant", t.instant, "move", t.move)

	s.moveTo(st, t)

	arriveAt := t.move + s.cfg.ArrivalDelay
	if t.instant {
		arriveAt = s.cfg.InstantArrivalDelay
	}
	task.After(arriveAt, func() { s.arrive(i, t) })

	if s.opts.AutoAdvance {
		advanceAt := max(t.move+t.look+t.wait, arriveAt)
		task.After(advanceAt, func() { s.autoAdvance(i) })
	}
}

func (s *Sequencer) moveTo(st Stop, t timings) {
	p, err := st.Location()
	if errors.Is(err, ErrNoPosition) {
		s.logger.Warn("stop has no position", "index", st.Index)
		s.ui.Notify(fmt.Sprintf(NoticeNoPosition, st.Index+1))
		s.report(&WaypointError{Index: st.Index, Field: "pos", Err: err})
		return
	}
	if err != nil {
		s.invalid(st, err)
		return
	}
	dest := bounds.Clamp(p, s.store.Bounds())
	if t.instant {
		s.store.SetPose(&dest, nil, nil)
		return
	}
	s.store.AnimatePosition(dest, t.move, s.cfg.Ease)
}

func (s *Sequencer) arrive(i int, t timings) {
	if !s.running || s.paused || i >= len(s.stops) {
		return
	}
	st := s.stops[i]
	s.phase = AtStop
	s.store.Sync()

	s.orient(st, t)
	s.ui.SetInfoPanel(st.Title, "", HintReveal)
	if st.AudioRef != "" {
		s.audio.PlayNarration(st.AudioRef)
	} else {
		s.audio.StopNarration()
	}
	s.ui.SetStopUIState(s.nav())
	if s.opts.TTS {
		s.speaker.Speak(st.SpokenText())
	}
	s.logger.Debug("arrived at stop", "index", i, "title", st.Title)
	if h := s.cfg.Hooks.OnArrive; h != nil {
		h(st)
	}
}

func (s *Sequencer) autoAdvance(i int) {
	if !s.running || s.paused {
		return
	}
	if i+1 >= len(s.stops) {
		s.finish()
		return
	}
	s.goToStop(i+1, false)
}

func (s *Sequencer) finish() {
	s.logger.Info("tour finished")
	s.Stop()
	s.ui.Notify(NoticeTourFinished)
	if h := s.cfg.Hooks.OnFinish; h != nil {
		h()
	}
}

// orient turns the rig and camera for st. Yaw is animated on the rig, pitch on
// the camera, both over the look duration.
func (s *Sequencer) orient(st Stop, t timings) {
	yaw, pitch, hasYaw := s.orientation(st)
	if t.instant {
		if hasYaw {
			s.store.SetPose(nil, &yaw, &pitch)
		} else {
			s.store.SetPose(nil, nil, &pitch)
		}
		return
	}
	if hasYaw {
		s.store.AnimateYaw(yaw, t.look, s.cfg.Ease)
	}
	s.store.AnimatePitch(pitch, t.look, s.cfg.Ease)
}

// orientation resolves the stop's target yaw and pitch from the rig's current
// position. Without a usable target or rotation the yaw is kept and the pitch
// is levelled.
func (s *Sequencer) orientation(st Stop) (yaw, pitch float64, hasYaw bool) {
	if st.Target != "" {
		if target, ok := s.scene.Entity(st.Target); ok {
			rig := s.store.Pose().Position
			eye := s.scene.CameraPosition().Sub(s.scene.RigPosition())
			yaw = geom.YawTowards(rig, target)
			pitch = geom.PitchTowards(rig.Add(eye), target)
			if s.opts.InvertPitch {
				pitch = -pitch
			}
			return yaw, pitch, true
		}
		s.invalid(st, &WaypointError{Index: st.Index, Field: "target", Err: fmt.Errorf("unknown entity %q", st.Target)})
	}
	rp, ry, ok, err := st.ExplicitRotation()
	if err != nil {
		s.invalid(st, err)
		return 0, 0, false
	}
	if ok {
		return ry, rp, true
	}
	return 0, 0, false
}

func (s *Sequencer) invalid(st Stop, err error) {
	s.logger.Warn("invalid waypoint", "index", st.Index, "error", err)
	s.ui.Notify(fmt.Sprintf(NoticeInvalidWaypoint, st.Index+1))
	s.report(err)
}

func (s *Sequencer) report(err error) {
	if h := s.cfg.Hooks.OnNotice; h != nil {
		h(err)
	}
}

func (s *Sequencer) nav() NavState {
	return NavState{
		Active:        s.running,
		Transitioning: s.phase == Transitioning,
		Index:         s.index,
		Total:         len(s.stops),
	}
}

// Next goes to the following stop. At the last stop it only shows a notice.
// A paused tour is resumed by navigating.
func (s *Sequencer) Next() error {
	if !s.running {
		return ErrNotRunning
	}
	if s.index >= len(s.stops)-1 {
		s.ui.Notify(NoticeLastStop)
		return ErrOutOfRange
	}
	s.paused = false
	s.goToStop(s.index+1, false)
	return nil
}

// Prev goes to the previous stop. At the first stop it only shows a notice.
func (s *Sequencer) Prev() error {
	if !s.running {
		return ErrNotRunning
	}
	if s.index <= 0 {
		s.ui.Notify(NoticeFirstStop)
		return ErrOutOfRange
	}
	s.paused = false
	s.goToStop(s.index-1, false)
	return nil
}

// TeleportTo jumps to stop i during a tour: it forces the tour running and
// unpaused and places the rig instantly, then runs the normal arrival step.
func (s *Sequencer) TeleportTo(i int) error {
	if i < 0 || i >= len(s.stops) {
		return ErrOutOfRange
	}
	if !s.modes.Is(mode.Tour) {
		if err := s.modes.Transition(mode.Tour); err != nil {
			return err
		}
	}
	if !s.running {
		s.logger.Info("tour engaged by teleport", "index", i)
	}
	s.state = Active
	s.running = true
	s.paused = false
	s.store.ClearInput()
	s.ui.SetTeleportEnabled(true)
	s.goToStop(i, true)
	return nil
}

// JumpTo places the rig at stop i for free exploration. It never engages the
// tour: no controls, narration or timers.
func (s *Sequencer) JumpTo(i int) error {
	if s.running {
		return ErrTourActive
	}
	if i < 0 || i >= len(s.stops) {
		return ErrOutOfRange
	}
	st := s.stops[i]
	s.store.CancelAnimations()
	s.moveTo(st, timings{instant: true})
	s.orient(st, timings{instant: true})
	s.ui.Notify(st.Label())
	s.logger.Debug("jumped to stop", "index", i)
	return nil
}

// Pause freezes the tour where it is: pending callbacks are dropped and
// in-flight animations stop at their last sampled value.
func (s *Sequencer) Pause() {
	if !s.running || s.paused {
		return
	}
	s.paused = true
	s.sched.Cancel()
	s.store.Sync()
	s.store.CancelAnimations()
	s.logger.Debug("tour paused", "index", s.index)
}

// Resume restarts the current stop's transition from the frozen pose.
func (s *Sequencer) Resume() {
	if !s.running || !s.paused {
		return
	}
	s.paused = false
	s.logger.Debug("tour resumed", "index", s.index)
	s.goToStop(s.index, false)
}

// TogglePause pauses a playing tour or resumes a paused one.
func (s *Sequencer) TogglePause() {
	if s.paused {
		s.Resume()
		return
	}
	s.Pause()
}

// Stop ends the tour. In Tour mode the mode returns to Explore; teleport by
// click, the info panel, narration and the navigation controls are cleared.
func (s *Sequencer) Stop() {
	wasActive := s.state != Idle
	s.running = false
	s.paused = false
	s.state = Idle
	s.phase = PhaseNone
	s.sched.Cancel()
	s.store.CancelAnimations()

	if s.modes.Is(mode.Tour) {
		if err := s.modes.Transition(mode.Explore); err != nil {
			s.logger.Warn("could not leave tour mode", "error", err)
		}
	}
	s.ui.SetTeleportEnabled(false)
	s.ui.ClearInfoPanel()
	s.audio.StopNarration()
	s.ui.SetStopUIState(NavState{Total: len(s.stops)})

	if wasActive {
		s.logger.Info("tour stopped", "index", s.index)
		if h := s.cfg.Hooks.OnStop; h != nil {
			h()
		}
	}
}

// RevealDescription shows the full description of the current stop and plays
// the attention chime.
func (s *Sequencer) RevealDescription() error {
	if s.phase != AtStop || s.index >= len(s.stops) {
		return ErrNotAtStop
	}
	st := s.stops[s.index]
	s.ui.SetInfoPanel(st.Title, st.Description, HintStop)
	s.audio.Chime()
	return nil
}
