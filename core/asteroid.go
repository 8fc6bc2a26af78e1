package core

import (
	"github.com/signalsfoundry/asteroid-defense/model"
)

// Approach tuning, in scene units and simulated seconds.
const (
	AsteroidSpeed           = 0.4
	ImminentCrashDistance   = 3.0
	EarthCollisionRadius    = 0.3
	AsteroidCollisionRadius = 0.3
	DeviationDistance       = 100.0

	// MinTractorMassKg is the absolute floor for a successful deviation.
	MinTractorMassKg = 100000.0
	// TractorMassRatio is the minimum tractor/asteroid mass ratio.
	TractorMassRatio = 0.001
)

// AsteroidStart is where the asteroid enters the scene and respawns.
var AsteroidStart = model.Vec3{X: 30, Y: 5, Z: -30}

// TractorStatus is the part of an active tractor mission the resolver
// needs. It is passed by value each tick.
type TractorStatus struct {
	MissionID string
	Phase     model.Phase
	MassKg    float64
}

// ApproachEvents reports what happened to the asteroid during one tick.
type ApproachEvents struct {
	DistanceToEarth float64

	// Deviated fires on the tick the tractor succeeds.
	Deviated bool
	// TractorInsufficient fires once when a tractor reaches orbit but is
	// too light.
	TractorInsufficient bool
	// ImminentCrash fires once per approach pass.
	ImminentCrash bool
	// NearMiss fires when the asteroid grazes Earth and is sent back to
	// its start position.
	NearMiss bool
}

// ApproachResolver advances the asteroid towards Earth and resolves
// deviation attempts.
type ApproachResolver struct {
	Start             model.Vec3
	Speed             float64
	CrashWarning      float64
	CollisionDistance float64
	DeviationOffset   model.Vec3
}

// NewApproachResolver returns a resolver with the default tuning.
func NewApproachResolver() *ApproachResolver {
	return &ApproachResolver{
		Start:             AsteroidStart,
		Speed:             AsteroidSpeed,
		CrashWarning:      ImminentCrashDistance,
		CollisionDistance: EarthCollisionRadius + AsteroidCollisionRadius,
		DeviationOffset:   model.Vec3{X: 1, Y: 0, Z: 1}.Normalized().Scale(DeviationDistance),
	}
}

// NewAsteroid places a fresh asteroid for spec at the start position.
func (r *ApproachResolver) NewAsteroid(spec model.AsteroidSpec) *model.Asteroid {
	return &model.Asteroid{
		Spec:     spec,
		Position: r.Start,
		MassKg:   CappedMass(spec.DiameterKm),
		State:    model.Approaching,
	}
}

// Respawn sends an approaching asteroid back to its start position and
// re-arms the imminent-crash warning. A deviated asteroid is left alone.
func (r *ApproachResolver) Respawn(a *model.Asteroid) {
	if a.Deviated() {
		return
	}
	a.Position = r.Start
	a.CrashWarned = false
}

// DeviationSucceeds reports whether a tractor of tractorMass can pull an
// asteroid of asteroidMass off course. It is monotonic in tractorMass.
func DeviationSucceeds(tractorMass, asteroidMass float64) bool {
	return tractorMass >= MinTractorMassKg && tractorMass >= asteroidMass*TractorMassRatio
}

// DeviationThreshold returns the smallest tractor mass that succeeds.
func DeviationThreshold(asteroidMass float64) float64 {
	if t := asteroidMass * TractorMassRatio; t > MinTractorMassKg {
		return t
	}
	return MinTractorMassKg
}

// Step advances a by one tick. earth is Earth's position this tick and
// simDelta the simulated seconds elapsed. tractor is nil when no tractor
// mission is active.
func (r *ApproachResolver) Step(a *model.Asteroid, earth model.Vec3, simDelta float64, tractor *TractorStatus) ApproachEvents {
	var ev ApproachEvents
	ev.DistanceToEarth = a.Position.DistanceTo(earth)
	if a.Deviated() {
		return ev
	}

	if tractor != nil && tractor.Phase == model.PhaseOrbiting && a.EvaluatedMission != tractor.MissionID {
		a.EvaluatedMission = tractor.MissionID
		if DeviationSucceeds(tractor.MassKg, a.MassKg) {
			a.Position = a.Position.Add(r.DeviationOffset)
			a.State = model.Deviated
			ev.Deviated = true
			ev.DistanceToEarth = a.Position.DistanceTo(earth)
			return ev
		}
		ev.TractorInsufficient = true
	}

	if ev.DistanceToEarth < r.CrashWarning && !a.CrashWarned {
		a.CrashWarned = true
		ev.ImminentCrash = true
	}

	if ev.DistanceToEarth < r.CollisionDistance {
		r.Respawn(a)
		ev.NearMiss = true
		return ev
	}

	a.Position, _ = MoveTowards(a.Position, earth, r.Speed*simDelta)
	return ev
}
