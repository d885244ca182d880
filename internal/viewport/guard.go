// Package viewport serializes camera corrections for interactive 3D views.
//
// Charting surfaces emit a stream of relayout events while the user drags or zooms.
// A Guard decides per event whether to ignore it, accept it as the new last known good
// pose, or issue a correction, and it allows at most one correction in flight.
package viewport

import (
	"errors"
	"sync"

	"github.com/hyperjump/tfexplorer/internal/camera"
)

// ErrNoCorrection is returned by Complete when no correction is in flight.
var ErrNoCorrection = errors.New("no correction in flight")

// Action is the outcome of observing one relayout event.
type Action string

const (
	// ActionIgnore means the event must not change the view.
	ActionIgnore Action = "ignore"
	// ActionAccept means the pose was valid and has become the last known good pose.
	ActionAccept Action = "accept"
	// ActionCorrect means the caller must apply Decision.Pose and then call Complete.
	ActionCorrect Action = "correct"
)

// Reasons attached to ignored events.
const (
	ReasonInFlight  = "correction_in_flight"
	ReasonInvalid   = "invalid_pose"
	ReasonDuplicate = "duplicate_correction"
)

// Decision is returned by Observe.
type Decision struct {
	Action Action       `json:"action"`
	Reason string       `json:"reason,omitempty"`
	Pose   *camera.Pose `json:"pose,omitempty"`
}

// State is a snapshot of a guard.
type State struct {
	LastKnownGood *camera.Pose `json:"last_known_good"`
	InFlight      bool         `json:"in_flight"`
}

// Guard tracks the camera state of a single viewport.
type Guard struct {
	mu            sync.Mutex
	sanitizer     *camera.Sanitizer
	defaultPose   camera.Pose
	lastKnownGood *camera.Pose
	lastSig       string
	inFlight      bool
	pending       *camera.Pose
}

// NewGuard returns a guard that falls back to defaultPose until a pose is accepted.
func NewGuard(sanitizer *camera.Sanitizer, defaultPose camera.Pose) *Guard {
	if sanitizer == nil {
		sanitizer = camera.NewSanitizer(camera.MinDistance)
	}
	return &Guard{sanitizer: sanitizer, defaultPose: defaultPose}
}

// Fallback returns the pose used to repair the next event.
func (g *Guard) Fallback() camera.Pose {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fallback()
}

func (g *Guard) fallback() camera.Pose {
	if g.lastKnownGood != nil {
		return *g.lastKnownGood
	}
	return g.defaultPose
}

// Observe processes one relayout event.
func (g *Guard) Observe(candidate camera.RawPose) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		return Decision{Action: ActionIgnore, Reason: ReasonInFlight}
	}
	res := g.sanitizer.Sanitize(candidate, g.fallback())
	if !res.Valid {
		return Decision{Action: ActionIgnore, Reason: ReasonInvalid}
	}
	if !res.Changed {
		accepted := *res.Pose
		g.lastKnownGood = &accepted
		g.lastSig = ""
		return Decision{Action: ActionAccept, Pose: res.Pose}
	}
	sig := camera.Signature(*res.Pose)
	if sig == g.lastSig {
		return Decision{Action: ActionIgnore, Reason: ReasonDuplicate}
	}
	g.inFlight = true
	g.lastSig = sig
	pending := *res.Pose
	g.pending = &pending
	return Decision{Action: ActionCorrect, Pose: res.Pose}
}

// Complete records that the in-flight correction was applied to the view.
func (g *Guard) Complete() (camera.Pose, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inFlight {
		return camera.Pose{}, ErrNoCorrection
	}
	g.lastKnownGood = g.pending
	g.pending = nil
	g.inFlight = false
	return *g.lastKnownGood, nil
}

// Remember stores pose as the last known good pose without sanitizing it.
func (g *Guard) Remember(pose camera.Pose) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastKnownGood = &pose
}

// Reset clears all state, as when the plot is rebuilt.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastKnownGood = nil
	g.lastSig = ""
	g.inFlight = false
	g.pending = nil
}

// State returns a snapshot of the guard.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := State{InFlight: g.inFlight}
	if g.lastKnownGood != nil {
		p := *g.lastKnownGood
		st.LastKnownGood = &p
	}
	return st
}
