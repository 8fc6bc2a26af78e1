package core

import (
	"github.com/signalsfoundry/asteroid-defense/model"
)

// Vehicle tuning, in scene units and simulated seconds.
const (
	VehicleSpeed         = AsteroidSpeed * 1.5
	LaunchSpeedFactor    = 0.25
	LaunchEscapeDistance = 3.0
	TerminalOrbitRadius  = 1.0
	TerminalOrbitSpeed   = 1.0 // radians per simulated second
)

// LaunchOffset is where a vehicle appears relative to Earth.
var LaunchOffset = model.Vec3{X: 0, Y: 0.5, Z: 0}

// VehicleInputs is the read-only snapshot a vehicle steers by.
type VehicleInputs struct {
	Earth    model.Vec3
	Mars     model.Vec3
	Asteroid model.Vec3
	SimDelta float64
	Elapsed  float64
}

// PhaseTransition reports a vehicle moving to its next phase.
type PhaseTransition struct {
	MissionID string
	Vehicle   model.VehicleType
	From      model.Phase
	To        model.Phase
}

// VehicleStep is the outcome of one vehicle tick.
type VehicleStep struct {
	Transition *PhaseTransition
	// RespawnAsteroid is set when a missile reaches the asteroid.
	RespawnAsteroid bool
}

// NewMissionVehicle places a vehicle of type vt next to Earth in the
// launching phase.
func NewMissionVehicle(missionID string, vt model.VehicleType, massKg float64, earth model.Vec3) *model.MissionVehicle {
	v := &model.MissionVehicle{
		MissionID: missionID,
		Type:      vt,
		Phase:     model.PhaseLaunching,
		Position:  earth.Add(LaunchOffset),
	}
	if vt == model.VehicleTractor {
		v.MassKg = massKg
	}
	return v
}

// VehicleTarget returns the body a vehicle of type vt heads for.
func VehicleTarget(vt model.VehicleType, in VehicleInputs) model.Vec3 {
	if vt == model.VehicleStarship {
		return in.Mars
	}
	return in.Asteroid
}

// StepVehicle advances v by one tick. Phases only move forward:
// launching, in_transit, then the type's terminal phase.
func StepVehicle(v *model.MissionVehicle, in VehicleInputs) VehicleStep {
	var out VehicleStep
	switch v.Phase {
	case model.PhaseLaunching:
		step := VehicleSpeed * LaunchSpeedFactor * in.SimDelta
		v.Position = MoveAway(v.Position, in.Earth, step)
		if v.Position.DistanceTo(in.Earth) > LaunchEscapeDistance {
			out.Transition = advance(v, model.PhaseInTransit)
		}

	case model.PhaseInTransit:
		target := VehicleTarget(v.Type, in)
		pos, arrived := MoveTowards(v.Position, target, VehicleSpeed*in.SimDelta)
		v.Position = pos
		if arrived {
			out.Transition = advance(v, v.Type.TerminalPhase())
			out.RespawnAsteroid = v.Type == model.VehicleMissile
		}

	default:
		target := VehicleTarget(v.Type, in)
		v.Position = CircleOffset(target, TerminalOrbitRadius, in.Elapsed*TerminalOrbitSpeed)
	}
	return out
}

func advance(v *model.MissionVehicle, to model.Phase) *PhaseTransition {
	t := &PhaseTransition{
		MissionID: v.MissionID,
		Vehicle:   v.Type,
		From:      v.Phase,
		To:        to,
	}
	v.Phase = to
	return t
}
