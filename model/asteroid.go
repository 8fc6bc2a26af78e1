package model

// ApproachState is the asteroid resolver's state.
type ApproachState int

const (
	Approaching ApproachState = iota
	Deviated
)

func (s ApproachState) String() string {
	switch s {
	case Approaching:
		return "approaching"
	case Deviated:
		return "deviated"
	default:
		return "unknown"
	}
}

// AsteroidSpec is the parsed physical description of the selected
// catalog record, after defaults have been applied.
type AsteroidSpec struct {
	Name        string
	DiameterKm  float64
	VelocityKmS float64
}

// Asteroid is the session's single incoming body.
type Asteroid struct {
	Spec     AsteroidSpec
	Position Vec3
	MassKg   float64 // density-derived, capped
	State    ApproachState

	// CrashWarned latches the imminent-crash event for the current
	// approach pass.
	CrashWarned bool

	// EvaluatedMission is the tractor mission whose deviation attempt
	// has already been resolved.
	EvaluatedMission string
}

// Deviated reports whether the asteroid has left its approach trajectory.
func (a Asteroid) Deviated() bool {
	return a.State == Deviated
}
