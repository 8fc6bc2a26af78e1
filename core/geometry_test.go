package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/asteroid-defense/model"
)

func TestMoveTowards_StepsWithoutOvershoot(t *testing.T) {
	from := model.Vec3{X: 0, Y: 0, Z: 0}
	target := model.Vec3{X: 10, Y: 0, Z: 0}

	pos, arrived := MoveTowards(from, target, 4)
	if arrived {
		t.Fatalf("expected not arrived after partial step")
	}
	if pos != (model.Vec3{X: 4}) {
		t.Fatalf("MoveTowards() = %+v, want {4 0 0}", pos)
	}

	pos, arrived = MoveTowards(pos, target, 100)
	if !arrived || pos != target {
		t.Fatalf("expected snap to target, got %+v arrived=%v", pos, arrived)
	}
}

func TestMoveTowards_ZeroStepStaysPut(t *testing.T) {
	from := model.Vec3{X: 1, Y: 2, Z: 3}
	pos, arrived := MoveTowards(from, model.Vec3{X: 5}, 0)
	if arrived || pos != from {
		t.Fatalf("zero step moved to %+v (arrived=%v)", pos, arrived)
	}
}

func TestMoveAway_IncreasesDistance(t *testing.T) {
	origin := model.Vec3{X: 10}
	from := origin.Add(LaunchOffset)

	next := MoveAway(from, origin, 0.5)
	if got := next.DistanceTo(origin); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("distance after MoveAway = %v, want 1.0", got)
	}
	if next.X != origin.X || next.Z != origin.Z {
		t.Fatalf("MoveAway changed direction: %+v", next)
	}
}

func TestCircleOffset_Radius(t *testing.T) {
	center := model.Vec3{X: 3, Y: 1, Z: -2}
	for _, angle := range []float64{0, 1, math.Pi, 5} {
		p := CircleOffset(center, 1, angle)
		if got := p.DistanceTo(center); math.Abs(got-1) > 1e-12 {
			t.Fatalf("angle %v: radius = %v, want 1", angle, got)
		}
		if p.Y != center.Y {
			t.Fatalf("angle %v: y changed to %v", angle, p.Y)
		}
	}
}

func TestSceneToKm(t *testing.T) {
	if got := SceneToKm(EarthOrbitSU); math.Abs(got-AstronomicalUnitKm) > 1e-3 {
		t.Fatalf("SceneToKm(earth orbit) = %v, want 1 AU", got)
	}
}
