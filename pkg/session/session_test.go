package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/clock"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/input"
	"github.com/teslashibe/go-museum/pkg/mode"
	"github.com/teslashibe/go-museum/pkg/movement"
	"github.com/teslashibe/go-museum/pkg/scene"
	"github.com/teslashibe/go-museum/pkg/tour"
)

type recordingView struct {
	modes   []mode.Mode
	minimal []bool
	stops   int
}

func (v *recordingView) ModeChanged(m mode.Mode, _ bool) { v.modes = append(v.modes, m) }
func (v *recordingView) SetMinimalHUD(b bool)            { v.minimal = append(v.minimal, b) }
func (v *recordingView) StopsLoaded(s []tour.Stop)       { v.stops = len(s) }

type harness struct {
	s       *Session
	clk     *clock.Manual
	binding *scene.Memory
	mock    *tour.Mock
	view    *recordingView
}

var spawn = geom.Vec3{0, 0, 3}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clk:     clock.NewManual(time.Unix(0, 0)),
		binding: scene.NewMemory(spawn),
		mock:    tour.NewMock(),
		view:    &recordingView{},
	}
	base := []Option{
		WithClock(h.clk),
		WithLogger(log.Discard()),
		WithView(h.view),
		WithBounds(bounds.Bounds{MinX: -10, MaxX: 10, MinZ: -10, MaxZ: 10}, 2, bounds.Tweaks{}),
	}
	h.s = New(h.binding, h.mock.Ports(), append(base, opts...)...)
	h.s.Frame(h.clk.Now())
	return h
}

// frames advances the clock in 100ms steps, running a frame after each.
func (h *harness) frames(n int) {
	for i := 0; i < n; i++ {
		h.clk.Advance(100 * time.Millisecond)
		h.s.Frame(h.clk.Now())
	}
}

var twoStops = []tour.Stop{
	{Title: "A", Position: "0 0 0"},
	{Title: "B", Position: "5 0 5"},
}

func TestNewSessionStartsInWelcome(t *testing.T) {
	h := newHarness(t)
	snap := h.s.Snapshot()
	assert.Equal(t, mode.Welcome, snap.Mode)
	assert.False(t, h.binding.FreeLook())
	_, n := h.binding.Walls()
	assert.GreaterOrEqual(t, n, 1)
	assert.NotEmpty(t, h.s.ID())
	assert.Equal(t, h.s.ID(), h.s.Latest().ID)
}

func TestWelcomeGatesMovement(t *testing.T) {
	h := newHarness(t)

	h.s.HandleKey("w", true)
	h.frames(10)
	assert.Equal(t, spawn, h.s.Store().Pose().Position)

	require.NoError(t, h.s.EnterExplore())
	assert.True(t, h.binding.FreeLook())
	h.s.HandleKey("w", true)
	h.frames(10)
	assert.Greater(t, h.s.Store().Pose().Position.Z(), spawn.Z())
	assert.True(t, h.s.Store().HasInput())

	h.s.BackToWelcome()
	assert.False(t, h.s.Store().HasInput(), "welcome must clear held input")
	assert.False(t, h.binding.FreeLook())
	assert.Equal(t, spawn, h.s.Store().Pose().Position)
}

func TestMenuGatesMovementAndLook(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.EnterExplore())

	h.s.HandleKey("d", true)
	h.s.HandleKey("m", true)
	assert.True(t, h.s.Modes().MenuOpen())
	assert.False(t, h.s.Store().HasInput())
	assert.False(t, h.binding.FreeLook())
	assert.False(t, h.s.Look(45, 0))

	before := h.s.Store().Pose().Position
	h.s.HandleKey("d", true)
	h.s.HandleJoystick(1, 0, true)
	h.frames(5)
	assert.Equal(t, before, h.s.Store().Pose().Position)

	h.s.HandleKey("m", true)
	assert.True(t, h.binding.FreeLook())
	assert.True(t, h.s.Look(45, -10))
	assert.Equal(t, 45.0, h.s.Store().Pose().RigYaw)
}

func TestBackToWelcomeResetsTwice(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.EnterExplore())
	h.s.HandleFloor(4, -4)
	require.Equal(t, geom.Vec3{4, 0, -4}, h.s.Store().Pose().Position)

	h.s.BackToWelcome()
	assert.Equal(t, spawn, h.binding.RigPosition())

	// A renderer applying a stale transform one frame late.
	h.binding.SetRigPosition(geom.Vec3{4, 0, -4})
	h.frames(1)
	assert.Equal(t, spawn, h.binding.RigPosition())
	assert.Equal(t, mode.Welcome, h.s.Modes().Mode())

	// Idempotent: a second call changes nothing.
	h.s.BackToWelcome()
	h.frames(1)
	assert.Equal(t, spawn, h.s.Store().Pose().Position)
}

func TestApplyStopsComputesBounds(t *testing.T) {
	h := newHarness(t)
	h.s.ApplyStops(tour.Indexed(twoStops), nil, "static")

	b := h.s.Store().Bounds()
	assert.Equal(t, bounds.Bounds{MinX: -2, MaxX: 7, MinZ: -2, MaxZ: 7}, b)
	assert.Equal(t, 2, h.view.stops)
	// Spawn at z=3 stays inside.
	assert.Equal(t, spawn, h.s.Store().Pose().Position)
}

func TestApplyStopsFailure(t *testing.T) {
	h := newHarness(t)
	h.s.ApplyStops(nil, errors.New("offline"), "http")
	assert.False(t, h.s.Sequencer().State().Loaded)

	h.s.ApplyStops([]tour.Stop{}, nil, "file")
	require.NoError(t, h.s.EnterExplore())
	err := h.s.EnterTour()
	assert.ErrorIs(t, err, tour.ErrDataUnavailable)
	assert.Equal(t, mode.Explore, h.s.Modes().Mode())
	assert.Contains(t, h.mock.CallsTo("Notify")[0].Args, tour.NoticeDataUnavailable)
}

func TestTourFromWelcome(t *testing.T) {
	h := newHarness(t)
	h.s.ApplyStops(tour.Indexed(twoStops), nil, "static")

	assert.True(t, h.s.HandleUI("tour", 0))
	assert.Equal(t, mode.Tour, h.s.Modes().Mode())
	assert.True(t, h.s.Sequencer().Running())

	// WASD is swallowed, arrows navigate.
	h.s.HandleKey("w", true)
	assert.False(t, h.s.Store().HasInput())
	h.s.HandleKey("ArrowRight", true)
	assert.Equal(t, 1, h.s.Sequencer().State().Index)

	h.frames(30)
	assert.InDelta(t, 5, h.s.Store().Pose().Position.X(), 1e-6)
	assert.InDelta(t, 5, h.s.Store().Pose().Position.Z(), 1e-6)

	h.s.HandleKey("Escape", true)
	assert.False(t, h.s.Sequencer().Running())
	assert.Equal(t, mode.Explore, h.s.Modes().Mode())
	assert.Equal(t, []mode.Mode{mode.Tour, mode.Explore}, h.view.modes)
}

func TestVoiceCommands(t *testing.T) {
	h := newHarness(t)
	h.s.ApplyStops(tour.Indexed(twoStops), nil, "static")

	assert.True(t, h.s.HandleVoice("Começar a visita"))
	assert.True(t, h.s.Sequencer().Running())
	assert.True(t, h.s.HandleVoice("próxima paragem"))
	assert.Equal(t, 1, h.s.Sequencer().State().Index)
	assert.True(t, h.s.HandleVoice("pausar"))
	assert.True(t, h.s.Sequencer().State().Paused)
	assert.True(t, h.s.HandleVoice("ajuda"))
	assert.Contains(t, h.mock.CallsTo("Notify")[len(h.mock.CallsTo("Notify"))-1].Args, NoticeHelp)
	assert.False(t, h.s.HandleVoice("tira uma foto"))
}

func TestWaypointEngagesTourFromExplore(t *testing.T) {
	h := newHarness(t)
	h.s.ApplyStops(tour.Indexed(twoStops), nil, "static")
	require.NoError(t, h.s.EnterExplore())

	require.NoError(t, h.s.Dispatch(h.s.input.Floor(1, 1)))
	h.s.HandleUI("waypoint", 1)
	assert.Equal(t, mode.Tour, h.s.Modes().Mode())
	assert.Equal(t, geom.Vec3{5, 0, 5}, h.s.Store().Pose().Position)
}

func TestJumpNeedsFreeMovement(t *testing.T) {
	h := newHarness(t)
	h.s.ApplyStops(tour.Indexed(twoStops), nil, "static")

	assert.ErrorIs(t, h.s.Dispatch(jump(t, h, 1)), ErrMovementGated)
	assert.Equal(t, spawn, h.s.Store().Pose().Position, "welcome must not move the rig")

	require.NoError(t, h.s.EnterExplore())
	h.s.Modes().SetMenuOpen(true)
	h.s.HandleUI("jump", 1)
	assert.Equal(t, spawn, h.s.Store().Pose().Position, "open menu must not move the rig")

	h.s.Modes().SetMenuOpen(false)
	require.NoError(t, h.s.Dispatch(jump(t, h, 1)))
	assert.Equal(t, geom.Vec3{5, 0, 5}, h.s.Store().Pose().Position)
	assert.Equal(t, mode.Explore, h.s.Modes().Mode())
}

func jump(t *testing.T, h *harness, i int) input.Command {
	t.Helper()
	cmd, ok := h.s.input.UI("jump", i)
	require.True(t, ok)
	return cmd
}

func TestAmbientFollowsPreference(t *testing.T) {
	h := newHarness(t, WithTourOptions(tour.Options{Speed: 1, AutoAdvance: true, Ambient: true}))
	h.s.ApplyStops(tour.Indexed(twoStops), nil, "static")
	assert.Zero(t, h.mock.CallCount("SetAmbient"), "welcome stays silent")

	require.NoError(t, h.s.EnterExplore())
	calls := h.mock.CallsTo("SetAmbient")
	require.Len(t, calls, 1)
	assert.Equal(t, []any{true}, calls[0].Args)

	opts := h.s.Sequencer().Options()
	opts.Ambient = false
	h.s.SetOptions(opts)
	calls = h.mock.CallsTo("SetAmbient")
	require.Len(t, calls, 2)
	assert.Equal(t, []any{false}, calls[1].Args)

	opts.Speed = 1.5
	h.s.SetOptions(opts)
	assert.Equal(t, 2, h.mock.CallCount("SetAmbient"), "unchanged preference is not re-applied")

	h.s.BackToWelcome()
	opts.Ambient = true
	h.s.SetOptions(opts)
	assert.Equal(t, 2, h.mock.CallCount("SetAmbient"), "welcome defers the preference")

	require.NoError(t, h.s.EnterTour())
	calls = h.mock.CallsTo("SetAmbient")
	require.Len(t, calls, 3)
	assert.Equal(t, []any{true}, calls[2].Args)
}

func TestWallHitNotice(t *testing.T) {
	h := newHarness(t, WithMovement(movement.WithSpeedLevel(6), movement.WithUnitsPerLevel(10)))
	require.NoError(t, h.s.EnterExplore())

	h.s.HandleKey("w", true)
	h.frames(3)
	assert.Equal(t, 10.0, h.s.Store().Pose().Position.Z())
	n := 0
	for _, c := range h.mock.CallsTo("Notify") {
		if c.Args[0] == NoticeWall {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestHUDToggle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.EnterExplore())
	h.s.HandleKey("h", true)
	h.s.HandleKey("h", true)
	h.s.HandleKey("h", true)
	assert.True(t, h.s.Snapshot().MinimalHUD)
	h.s.BackToWelcome()
	assert.Equal(t, []bool{true, false, true, false}, h.view.minimal)
}

func TestLoadStops(t *testing.T) {
	h := newHarness(t)
	enricher := tour.MapEnricher{"p1": {Title: "Retrato"}}
	h.s.LoadStops(context.Background(), tour.StaticSource{{Title: "x", Code: "P1", Position: "1 0 1"}}, enricher)
	assert.False(t, h.s.Sequencer().State().Loaded)

	require.Eventually(t, func() bool {
		h.s.Drain()
		return h.s.Sequencer().State().Loaded
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Retrato", h.s.Sequencer().Stops()[0].Title)
}

func TestRunLoop(t *testing.T) {
	s := New(scene.NewMemory(spawn), tour.Ports{}, WithLogger(log.Discard()), WithFrameRate(100))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	ran := make(chan mode.Mode, 1)
	s.Post(func() {
		_ = s.EnterExplore()
		ran <- s.Modes().Mode()
	})
	select {
	case m := <-ran:
		assert.Equal(t, mode.Explore, m)
	case <-time.After(time.Second):
		t.Fatal("posted closure did not run")
	}

	require.Eventually(t, func() bool { return s.Latest().Mode == mode.Explore }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	// Posting after shutdown must not block.
	s.Post(func() {})
}
