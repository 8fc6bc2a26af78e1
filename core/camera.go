package core

import (
	"math"

	"github.com/signalsfoundry/asteroid-defense/model"
)

const (
	// CameraSmoothing is the per-second approach rate k in k·Δt.
	CameraSmoothing = 4.0
	// FollowTolerance is how close earth_zoom must get before it locks on.
	FollowTolerance = 0.1
)

// Default camera framing of the whole system.
var (
	GlobalCameraPosition = model.Vec3{X: 0, Y: 35, Z: 70}
	GlobalCameraTarget   = model.Vec3{}
)

// view offsets relative to the tracked entity.
var (
	earthZoomOffset      = model.Vec3{X: 2, Y: 2, Z: 5}
	asteroidOffset       = model.Vec3{X: 2, Y: 1, Z: 2}
	measureLaunchOffset  = model.Vec3{X: 1, Y: 1, Z: 2}
	measureTransitOffset = model.Vec3{X: 1, Y: 0.5, Z: 1}
	measureTargetOffset  = model.Vec3{X: 1, Y: 1, Z: 2}
)

// CameraInputs are the live positions the camera may track.
type CameraInputs struct {
	Earth    model.Vec3
	Asteroid model.Vec3
	Vehicle  model.Vec3
	Mars     model.Vec3
}

// CameraRig steers the camera towards the requested view. It only reads
// the positions it is handed.
type CameraRig struct {
	pose          model.CameraPose
	view          model.CameraView
	followEnabled bool
}

// NewCameraRig starts the camera at the global framing.
func NewCameraRig() *CameraRig {
	return &CameraRig{
		pose: model.CameraPose{Position: GlobalCameraPosition, Target: GlobalCameraTarget},
		view: model.ViewGlobal,
	}
}

// Pose returns the current camera position and look-at target.
func (c *CameraRig) Pose() model.CameraPose { return c.pose }

// View returns the requested view.
func (c *CameraRig) View() model.CameraView { return c.view }

// FollowEnabled reports whether earth_zoom has locked on to Earth.
func (c *CameraRig) FollowEnabled() bool { return c.followEnabled }

// SetView requests a new view. Switching views drops the follow latch.
func (c *CameraRig) SetView(v model.CameraView) {
	c.view = v
	c.followEnabled = false
}

// DesiredPose returns where view wants the camera to be.
func DesiredPose(view model.CameraView, in CameraInputs) model.CameraPose {
	switch view {
	case model.ViewEarthZoom:
		return model.CameraPose{Position: in.Earth.Add(earthZoomOffset), Target: in.Earth}
	case model.ViewAsteroid:
		return model.CameraPose{Position: in.Asteroid.Add(asteroidOffset), Target: in.Asteroid}
	case model.ViewMeasureLaunch:
		return model.CameraPose{Position: in.Earth.Add(measureLaunchOffset), Target: in.Earth}
	case model.ViewMeasureTransit:
		return model.CameraPose{Position: in.Vehicle.Add(measureTransitOffset), Target: in.Vehicle}
	case model.ViewMeasureIntercept:
		return model.CameraPose{Position: in.Asteroid.Add(measureTargetOffset), Target: in.Asteroid}
	case model.ViewMeasureArrivalMars:
		return model.CameraPose{Position: in.Mars.Add(measureTargetOffset), Target: in.Mars}
	default:
		return model.CameraPose{Position: GlobalCameraPosition, Target: GlobalCameraTarget}
	}
}

// SmoothingFactor returns the lerp fraction for a frame of realDelta
// seconds, clamped to [0, 1] so the camera never overshoots.
func SmoothingFactor(realDelta float64) float64 {
	f := CameraSmoothing * realDelta
	if !(f > 0) {
		return 0
	}
	return math.Min(f, 1)
}

// Update moves the camera one frame towards the current view. The look-at
// target snaps to the tracked entity; only the position is smoothed.
func (c *CameraRig) Update(in CameraInputs, realDelta float64) model.CameraPose {
	desired := DesiredPose(c.view, in)

	if c.view == model.ViewEarthZoom && c.followEnabled {
		c.pose = desired
		return c.pose
	}

	c.pose.Position = c.pose.Position.Lerp(desired.Position, SmoothingFactor(realDelta))
	c.pose.Target = desired.Target

	if c.view == model.ViewEarthZoom && c.pose.Position.DistanceTo(desired.Position) < FollowTolerance {
		c.followEnabled = true
	}
	return c.pose
}
