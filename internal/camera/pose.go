// Package camera validates 3D viewport camera poses and repairs degenerate ones.
package camera

import (
	"fmt"
	"math"
	"strings"
)

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the Euclidean length of v. Only a genuinely unbounded length is
// +Inf; squares of large components do not overflow.
func (v Vec3) Length() float64 {
	return math.Hypot(math.Hypot(v.X, v.Y), v.Z)
}

// Pose is a complete camera pose.
type Pose struct {
	Eye    Vec3 `json:"eye" yaml:"eye"`
	Center Vec3 `json:"center" yaml:"center"`
	Up     Vec3 `json:"up" yaml:"up"`
}

// Distance returns the eye-to-center distance.
func (p Pose) Distance() float64 {
	return p.Eye.Sub(p.Center).Length()
}

// Raw converts a complete pose back into the partial form accepted by Sanitize.
func (p Pose) Raw() RawPose {
	return RawPose{Eye: p.Eye.raw(), Center: p.Center.raw(), Up: p.Up.raw()}
}

func (v Vec3) raw() *RawVec3 {
	x, y, z := v.X, v.Y, v.Z
	return &RawVec3{X: &x, Y: &y, Z: &z}
}

// DefaultPose is the fallback used before any pose has been accepted.
func DefaultPose() Pose {
	return Pose{
		Eye:    Vec3{1.5, 1.5, 1.5},
		Center: Vec3{0, 0, 0},
		Up:     Vec3{0, 0, 1},
	}
}

// RawVec3 is a possibly partial vector as reported by a charting surface.
// A nil component is missing.
type RawVec3 struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

// RawPose is a possibly partial camera pose.
type RawPose struct {
	Eye    *RawVec3 `json:"eye,omitempty"`
	Center *RawVec3 `json:"center,omitempty"`
	Up     *RawVec3 `json:"up,omitempty"`
}

func finite(f *float64) bool {
	return f != nil && !math.IsNaN(*f) && !math.IsInf(*f, 0)
}

// complete returns the vector when all three components are present and finite.
func (r *RawVec3) complete() (Vec3, bool) {
	if r == nil || !finite(r.X) || !finite(r.Y) || !finite(r.Z) {
		return Vec3{}, false
	}
	return Vec3{*r.X, *r.Y, *r.Z}, true
}

// fill takes each finite component of r and the matching fallback component otherwise.
func (r *RawVec3) fill(fallback Vec3) Vec3 {
	out := fallback
	if r == nil {
		return out
	}
	if finite(r.X) {
		out.X = *r.X
	}
	if finite(r.Y) {
		out.Y = *r.Y
	}
	if finite(r.Z) {
		out.Z = *r.Z
	}
	return out
}

// Signature renders a pose with six decimals per component. Two poses with the same
// signature are treated as the same correction.
func Signature(p Pose) string {
	parts := make([]string, 0, 9)
	for _, v := range []Vec3{p.Eye, p.Center, p.Up} {
		parts = append(parts,
			fmt.Sprintf("%.6f", v.X),
			fmt.Sprintf("%.6f", v.Y),
			fmt.Sprintf("%.6f", v.Z))
	}
	return strings.Join(parts, ",")
}
