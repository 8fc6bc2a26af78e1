package core

import (
	"testing"

	"github.com/signalsfoundry/asteroid-defense/model"
)

func cameraInputs() CameraInputs {
	return CameraInputs{
		Earth:    model.Vec3{X: 10},
		Asteroid: model.Vec3{X: 30, Y: 5, Z: -30},
		Vehicle:  model.Vec3{X: 12, Y: 1},
		Mars:     model.Vec3{X: -15},
	}
}

func TestCameraRig_FixedPointIsIdempotent(t *testing.T) {
	in := cameraInputs()
	c := NewCameraRig()
	c.SetView(model.ViewAsteroid)
	c.pose = DesiredPose(model.ViewAsteroid, in)

	before := c.pose
	after := c.Update(in, 0.016)
	if after != before {
		t.Fatalf("camera at its desired pose moved: %+v -> %+v", before, after)
	}
}

func TestCameraRig_NoOvershoot(t *testing.T) {
	in := cameraInputs()
	c := NewCameraRig()
	c.SetView(model.ViewMeasureIntercept)
	desired := DesiredPose(model.ViewMeasureIntercept, in)

	// a frame long enough to push k·Δt past 1 lands exactly on target.
	pose := c.Update(in, 5)
	if pose.Position != desired.Position {
		t.Fatalf("position = %+v, want %+v", pose.Position, desired.Position)
	}

	c = NewCameraRig()
	c.SetView(model.ViewMeasureIntercept)
	prev := c.Pose().Position.DistanceTo(desired.Position)
	for i := 0; i < 50; i++ {
		d := c.Update(in, 0.016).Position.DistanceTo(desired.Position)
		if d > prev {
			t.Fatalf("frame %d: distance grew %v -> %v", i, prev, d)
		}
		prev = d
	}
}

func TestCameraRig_TargetSnaps(t *testing.T) {
	in := cameraInputs()
	c := NewCameraRig()
	c.SetView(model.ViewMeasureTransit)
	pose := c.Update(in, 0.016)
	if pose.Target != in.Vehicle {
		t.Fatalf("target = %+v, want vehicle %+v", pose.Target, in.Vehicle)
	}
}

func TestCameraRig_EarthZoomLatches(t *testing.T) {
	in := cameraInputs()
	c := NewCameraRig()
	c.SetView(model.ViewEarthZoom)

	for i := 0; i < 600 && !c.FollowEnabled(); i++ {
		c.Update(in, 0.016)
	}
	if !c.FollowEnabled() {
		t.Fatalf("earth_zoom never locked on")
	}

	// once locked, the camera tracks Earth rigidly.
	in.Earth = model.Vec3{X: 9, Z: 3}
	pose := c.Update(in, 0.016)
	want := DesiredPose(model.ViewEarthZoom, in)
	if pose != want {
		t.Fatalf("locked pose = %+v, want %+v", pose, want)
	}

	c.SetView(model.ViewGlobal)
	if c.FollowEnabled() {
		t.Fatalf("switching views should drop the follow latch")
	}
	c.SetView(model.ViewEarthZoom)
	if c.FollowEnabled() {
		t.Fatalf("returning to earth_zoom should start unlatched")
	}
}

func TestCameraRig_OtherViewsNeverLatch(t *testing.T) {
	in := cameraInputs()
	c := NewCameraRig()
	c.SetView(model.ViewAsteroid)
	c.Update(in, 10)
	if c.FollowEnabled() {
		t.Fatalf("only earth_zoom latches")
	}
}

func TestSmoothingFactor(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{-1, 0},
		{0.1, 0.4},
		{0.25, 1},
		{3, 1},
	}
	for _, tc := range cases {
		if got := SmoothingFactor(tc.in); got != tc.want {
			t.Fatalf("SmoothingFactor(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDesiredPose_Global(t *testing.T) {
	p := DesiredPose(model.ViewGlobal, cameraInputs())
	if p.Position != GlobalCameraPosition || p.Target != GlobalCameraTarget {
		t.Fatalf("global pose = %+v", p)
	}
}
