package viewport

import (
	"errors"
	"testing"

	"github.com/hyperjump/tfexplorer/internal/camera"
)

func f(v float64) *float64 { return &v }

func raw(x, y, z float64) *camera.RawVec3 {
	return &camera.RawVec3{X: f(x), Y: f(y), Z: f(z)}
}

func collapsed() camera.RawPose {
	return camera.RawPose{Eye: raw(0, 0, 0), Center: raw(0, 0, 0)}
}

func newGuard() *Guard {
	return NewGuard(camera.NewSanitizer(camera.MinDistance), camera.DefaultPose())
}

func TestGuard_acceptsValidPose(t *testing.T) {
	g := newGuard()
	d := g.Observe(camera.RawPose{Eye: raw(2, 2, 2), Center: raw(0, 0, 0), Up: raw(0, 0, 1)})
	if d.Action != ActionAccept {
		t.Fatalf("action = %s", d.Action)
	}
	if got := g.Fallback(); got.Eye != (camera.Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("last known good not stored: %+v", got)
	}
}

func TestGuard_ignoresInvalidPose(t *testing.T) {
	g := newGuard()
	d := g.Observe(camera.RawPose{Eye: &camera.RawVec3{X: f(1)}, Center: raw(0, 0, 0)})
	if d.Action != ActionIgnore || d.Reason != ReasonInvalid {
		t.Errorf("got %+v", d)
	}
	if g.State().LastKnownGood != nil {
		t.Error("invalid pose must not be remembered")
	}
}

func TestGuard_singleCorrectionInFlight(t *testing.T) {
	g := newGuard()
	d := g.Observe(collapsed())
	if d.Action != ActionCorrect || d.Pose == nil {
		t.Fatalf("expected correction, got %+v", d)
	}
	d2 := g.Observe(camera.RawPose{Eye: raw(5, 5, 5), Center: raw(0, 0, 0)})
	if d2.Action != ActionIgnore || d2.Reason != ReasonInFlight {
		t.Errorf("second event while in flight: %+v", d2)
	}
	applied, err := g.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if applied != *d.Pose {
		t.Errorf("completed pose %+v, want %+v", applied, *d.Pose)
	}
	if g.State().InFlight {
		t.Error("in flight should be cleared")
	}
	if _, err := g.Complete(); !errors.Is(err, ErrNoCorrection) {
		t.Errorf("expected ErrNoCorrection, got %v", err)
	}
}

func TestGuard_duplicateCorrectionIgnored(t *testing.T) {
	g := newGuard()
	first := g.Observe(collapsed())
	if first.Action != ActionCorrect {
		t.Fatal(first)
	}
	if _, err := g.Complete(); err != nil {
		t.Fatal(err)
	}
	// Reset the fallback to the default so the same correction is computed again.
	g.Remember(camera.DefaultPose())
	d := g.Observe(collapsed())
	if d.Action != ActionIgnore || d.Reason != ReasonDuplicate {
		t.Errorf("got %+v", d)
	}
	// An accepted pose clears the signature.
	if d := g.Observe(camera.RawPose{Eye: raw(1, 1, 1), Center: raw(0, 0, 0)}); d.Action != ActionAccept {
		t.Fatalf("got %+v", d)
	}
	g.Remember(camera.DefaultPose())
	if d := g.Observe(collapsed()); d.Action != ActionCorrect {
		t.Errorf("after accept the same correction should be allowed, got %+v", d)
	}
}

func TestGuard_correctionUsesLastKnownGood(t *testing.T) {
	g := newGuard()
	g.Observe(camera.RawPose{Eye: raw(0, -3, 0), Center: raw(0, 0, 0)})
	d := g.Observe(collapsed())
	if d.Action != ActionCorrect {
		t.Fatal(d)
	}
	if d.Pose.Eye.Y >= 0 || d.Pose.Eye.X != 0 {
		t.Errorf("correction should follow last known good direction, got %+v", d.Pose.Eye)
	}
}

func TestGuard_Reset(t *testing.T) {
	g := newGuard()
	g.Observe(collapsed())
	g.Reset()
	st := g.State()
	if st.InFlight || st.LastKnownGood != nil {
		t.Errorf("state after reset: %+v", st)
	}
	if g.Fallback() != camera.DefaultPose() {
		t.Error("fallback should be the default after reset")
	}
}
