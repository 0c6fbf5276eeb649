package tour

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-museum/pkg/geom"
)

func TestStopDurations(t *testing.T) {
	s := Stop{}
	if s.MoveDuration() != DefaultMoveDuration || s.LookDuration() != DefaultLookDuration || s.WaitDuration() != DefaultWait {
		t.Errorf("defaults not applied: %v %v %v", s.MoveDuration(), s.LookDuration(), s.WaitDuration())
	}

	s = Stop{MoveDurMs: Ms(0), LookDurMs: Ms(250.5), WaitMs: Ms(-10)}
	if s.MoveDuration() != 0 {
		t.Errorf("explicit zero move should be honoured, got %v", s.MoveDuration())
	}
	if s.LookDuration() != 250500*time.Microsecond {
		t.Errorf("LookDuration = %v", s.LookDuration())
	}
	if s.WaitDuration() != 0 {
		t.Errorf("negative wait should clamp to zero, got %v", s.WaitDuration())
	}
}

func TestStopLocation(t *testing.T) {
	tests := []struct {
		name    string
		pos     string
		want    geom.Vec3
		wantErr error
	}{
		{"valid", "1 0 -2.5", geom.Vec3{1, 0, -2.5}, nil},
		{"commas", "1,2,3", geom.Vec3{1, 2, 3}, nil},
		{"missing", "  ", geom.Vec3{}, ErrNoPosition},
		{"garbage", "a b c", geom.Vec3{}, ErrInvalidWaypoint},
		{"short", "1 2", geom.Vec3{}, ErrInvalidWaypoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Stop{Index: 3, Position: tt.pos}.Location()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaypointErrorDetails(t *testing.T) {
	_, err := Stop{Index: 4, Position: "x"}.Location()
	var we *WaypointError
	if !errors.As(err, &we) {
		t.Fatalf("expected WaypointError, got %T", err)
	}
	if we.Index != 4 || we.Field != "pos" {
		t.Errorf("unexpected details: %+v", we)
	}
	if !errors.Is(err, geom.ErrInvalidVec3) {
		t.Error("should unwrap to the parse error")
	}
}

func TestExplicitRotation(t *testing.T) {
	pitch, yaw, ok, err := Stop{Rotation: "-10 95 3"}.ExplicitRotation()
	if err != nil || !ok || pitch != -10 || yaw != 95 {
		t.Errorf("got pitch=%v yaw=%v ok=%v err=%v", pitch, yaw, ok, err)
	}
	if _, _, ok, err := (Stop{}).ExplicitRotation(); ok || err != nil {
		t.Errorf("absent rotation: ok=%v err=%v", ok, err)
	}
	if _, _, _, err := (Stop{Rotation: "0 x 0"}).ExplicitRotation(); !errors.Is(err, ErrInvalidWaypoint) {
		t.Errorf("bad rotation err = %v", err)
	}
}

func TestDeriveCode(t *testing.T) {
	tests := []struct {
		stop Stop
		want string
	}{
		{Stop{Code: " P-12 ", ImageRef: "img/x.jpg"}, "p-12"},
		{Stop{ImageRef: "img/Retrato-Senhora.JPG"}, "retrato-senhora"},
		{Stop{ImageRef: `C:\museu\quadro7.png`}, "quadro7"},
		{Stop{Target: "#painting3"}, "painting3"},
		{Stop{Index: 6}, "stop-07"},
	}
	for _, tt := range tests {
		if got := DeriveCode(tt.stop); got != tt.want {
			t.Errorf("DeriveCode(%+v) = %q, want %q", tt.stop, got, tt.want)
		}
	}
}

func TestStopText(t *testing.T) {
	s := Stop{Index: 1, Title: "Paisagem", Description: "Óleo."}
	if s.Label() != "2. Paisagem" {
		t.Errorf("Label = %q", s.Label())
	}
	if s.SpokenText() != "Paisagem. Óleo." {
		t.Errorf("SpokenText = %q", s.SpokenText())
	}
	if (Stop{}).Label() != "1. Paragem" {
		t.Errorf("untitled label = %q", (Stop{}).Label())
	}
}
