package core

import (
	"math"

	"github.com/signalsfoundry/asteroid-defense/model"
)

// All engine distances are scene units. Earth's orbit radius is 10 scene
// units and stands for 1 AU.
const (
	AstronomicalUnitKm = 149597870.7
	EarthOrbitSU       = 10.0
	SceneUnitKm        = AstronomicalUnitKm / EarthOrbitSU
)

// SceneToKm converts a scene distance to kilometres.
func SceneToKm(d float64) float64 {
	return d * SceneUnitKm
}

// MoveTowards steps from towards target by at most step. It reports true
// when the remaining distance was covered, in which case the returned
// position is exactly target.
func MoveTowards(from, target model.Vec3, step float64) (model.Vec3, bool) {
	remaining := from.DistanceTo(target)
	if step >= remaining {
		return target, true
	}
	if step <= 0 {
		return from, false
	}
	dir := target.Sub(from).Normalized()
	return from.Add(dir.Scale(step)), false
}

// MoveAway steps from directly away from origin by step. A point sitting on
// origin does not move.
func MoveAway(from, origin model.Vec3, step float64) model.Vec3 {
	if step <= 0 {
		return from
	}
	dir := from.Sub(origin).Normalized()
	return from.Add(dir.Scale(step))
}

// CircleOffset returns a point on a horizontal circle of the given radius
// around center.
func CircleOffset(center model.Vec3, radius, angle float64) model.Vec3 {
	return model.Vec3{
		X: center.X + math.Cos(angle)*radius,
		Y: center.Y,
		Z: center.Z + math.Sin(angle)*radius,
	}
}
