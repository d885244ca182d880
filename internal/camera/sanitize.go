package camera

import (
	"errors"
	"math"
)

const (
	// MinDistance is the smallest eye-to-center distance accepted without correction.
	// It only catches eye == center collapse and never interferes with close zoom.
	MinDistance = 1e-6
	// degenerateDirection is the length below which center->eye has no usable direction.
	degenerateDirection = 1e-8
	maxNudges           = 80
)

// ErrDegenerateFallback reports a fallback pose whose eye is too close to its center
// to supply a pull-out direction.
var ErrDegenerateFallback = errors.New("fallback pose eye must be away from its center")

// Result is the outcome of Sanitize. Pose is nil when Valid is false.
type Result struct {
	Pose    *Pose `json:"pose"`
	Changed bool  `json:"changed"`
	Valid   bool  `json:"valid"`
}

// Sanitizer repairs degenerate camera poses. It holds no per-call state.
type Sanitizer struct {
	minDistance float64
}

// NewSanitizer returns a sanitizer with the given minimum distance; non-positive or
// non-finite values select MinDistance.
func NewSanitizer(minDistance float64) *Sanitizer {
	if !(minDistance > 0) || math.IsInf(minDistance, 0) {
		minDistance = MinDistance
	}
	return &Sanitizer{minDistance: minDistance}
}

// MinDistance returns the configured minimum eye-to-center distance.
func (s *Sanitizer) MinDistance() float64 {
	return s.minDistance
}

// CheckFallback reports whether fallback can serve as a Sanitize fallback: it must be
// finite and its eye at least the minimum distance from its center.
func (s *Sanitizer) CheckFallback(fallback Pose) error {
	if d := fallback.Distance(); math.IsNaN(d) || math.IsInf(d, 0) || d < s.minDistance {
		return ErrDegenerateFallback
	}
	return nil
}

// Sanitize validates candidate using MinDistance. See Sanitizer.Sanitize.
func Sanitize(candidate RawPose, fallback Pose) Result {
	return NewSanitizer(MinDistance).Sanitize(candidate, fallback)
}

// Sanitize validates candidate and corrects an eye that collapsed onto center.
//
// Missing or non-finite eye/center components make the pose invalid. Up components
// are filled from fallback one axis at a time. A corrected eye is moved to the minimum
// distance along center->eye, or along the fallback's center->eye when the candidate
// direction is itself degenerate. fallback must pass CheckFallback.
// Neither argument is modified.
func (s *Sanitizer) Sanitize(candidate RawPose, fallback Pose) Result {
	eye, ok := candidate.Eye.complete()
	if !ok {
		return Result{}
	}
	center, ok := candidate.Center.complete()
	if !ok {
		return Result{}
	}
	pose := Pose{Eye: eye, Center: center, Up: candidate.Up.fill(fallback.Up)}

	dist := pose.Distance()
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return Result{}
	}
	if dist >= s.minDistance {
		return Result{Pose: &pose, Valid: true}
	}

	pose.Eye = s.pullOut(eye, center, fallback)
	return Result{Pose: &pose, Changed: true, Valid: true}
}

// pullOut places the eye exactly minDistance from center. Rounding near large
// coordinates can leave the first attempt short, so the step is nudged outward until
// a re-check would accept it.
func (s *Sanitizer) pullOut(eye, center Vec3, fallback Pose) Vec3 {
	dir := eye.Sub(center)
	length := dir.Length()
	if length < degenerateDirection {
		dir = fallback.Eye.Sub(fallback.Center)
		length = dir.Length()
		if length == 0 {
			length = 1
		}
	}
	dir = dir.Scale(1 / length)
	if dir.Length() == 0 {
		return center
	}

	step := s.minDistance
	bump := s.minDistance * 1e-12
	out := center.Add(dir.Scale(step))
	for i := 0; i < maxNudges && out.Sub(center).Length() < s.minDistance; i++ {
		step += bump
		bump *= 2
		out = center.Add(dir.Scale(step))
	}
	return out
}
