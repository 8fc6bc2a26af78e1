package model

// OrbitingBody is a celestial body on a circular orbit around the Sun.
// Bodies are immutable once the solar system is built; positions are
// always derived from simulated time.
type OrbitingBody struct {
	Name         string  `json:"name"`
	Distance     float64 `json:"distance"`      // orbit radius, scene units
	AngularSpeed float64 `json:"angular_speed"` // radians per simulated second
	PhaseOffset  float64 `json:"phase_offset"`  // radians, [0, 2π)
	Radius       float64 `json:"radius"`        // visual radius, scene units
}

// Well-known body names published to dependents every tick.
const (
	BodySun   = "sun"
	BodyEarth = "earth"
	BodyMars  = "mars"
)

// BodyPosition pairs a body name with its position at a given tick.
type BodyPosition struct {
	Name     string
	Position Vec3
}
