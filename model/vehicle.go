package model

import "fmt"

// VehicleType identifies a mitigation measure.
type VehicleType int

const (
	VehicleUnknown VehicleType = iota
	VehicleTractor
	VehicleMissile
	VehicleStarship
)

func (t VehicleType) String() string {
	switch t {
	case VehicleTractor:
		return "tractor"
	case VehicleMissile:
		return "missile"
	case VehicleStarship:
		return "starship"
	default:
		return "unknown"
	}
}

// ParseVehicleType maps a measure name to its VehicleType.
func ParseVehicleType(s string) (VehicleType, error) {
	switch s {
	case "tractor":
		return VehicleTractor, nil
	case "missile":
		return VehicleMissile, nil
	case "starship":
		return VehicleStarship, nil
	default:
		return VehicleUnknown, fmt.Errorf("unknown vehicle type %q", s)
	}
}

// Phase is a mission vehicle's lifecycle phase. Phases only move forward.
type Phase int

const (
	PhaseLaunching Phase = iota
	PhaseInTransit
	PhaseOrbiting  // tractor terminal phase
	PhaseIntercept // missile terminal phase
	PhaseArrival   // starship terminal phase
)

func (p Phase) String() string {
	switch p {
	case PhaseLaunching:
		return "launching"
	case PhaseInTransit:
		return "in_transit"
	case PhaseOrbiting:
		return "orbiting"
	case PhaseIntercept:
		return "intercept"
	case PhaseArrival:
		return "arrival"
	default:
		return "unknown"
	}
}

// Terminal reports whether p is a steady-state phase.
func (p Phase) Terminal() bool {
	return p >= PhaseOrbiting
}

// Rank orders phases: launching < in_transit < terminal.
func (p Phase) Rank() int {
	if p.Terminal() {
		return 2
	}
	return int(p)
}

// TerminalPhase returns the steady-state phase reached by a vehicle type.
func (t VehicleType) TerminalPhase() Phase {
	switch t {
	case VehicleMissile:
		return PhaseIntercept
	case VehicleStarship:
		return PhaseArrival
	default:
		return PhaseOrbiting
	}
}

// MissionVehicle is the active mitigation vehicle. MassKg is only
// meaningful for tractors.
type MissionVehicle struct {
	MissionID string
	Type      VehicleType
	Phase     Phase
	Position  Vec3
	MassKg    float64
}

// HasMass reports whether the vehicle carries a user-chosen mass.
func (v *MissionVehicle) HasMass() bool {
	return v != nil && v.Type == VehicleTractor
}
