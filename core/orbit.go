package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/signalsfoundry/asteroid-defense/model"
)

// ErrInvalidBody indicates a body definition that cannot orbit.
var ErrInvalidBody = errors.New("invalid orbiting body")

// SunRadius is the visual radius of the Sun at the origin.
const SunRadius = 1.0

// defaultBodies is the solar system table without phase offsets.
var defaultBodies = []model.OrbitingBody{
	{Name: "mercury", Distance: 4, AngularSpeed: 0.04, Radius: 0.15},
	{Name: "venus", Distance: 7, AngularSpeed: 0.03, Radius: 0.25},
	{Name: model.BodyEarth, Distance: 10, AngularSpeed: 0.025, Radius: 0.3},
	{Name: model.BodyMars, Distance: 14, AngularSpeed: 0.02, Radius: 0.2},
	{Name: "jupiter", Distance: 20, AngularSpeed: 0.01, Radius: 0.75},
	{Name: "saturn", Distance: 28, AngularSpeed: 0.0075, Radius: 0.6},
	{Name: "uranus", Distance: 35, AngularSpeed: 0.005, Radius: 0.4},
	{Name: "neptune", Distance: 42, AngularSpeed: 0.004, Radius: 0.35},
}

// SolarSystem is the immutable body table of a session.
type SolarSystem struct {
	Seed   uint64
	Bodies []model.OrbitingBody
}

// NewSolarSystem assigns each default body a phase offset drawn once from a
// source seeded with seed, so a run can be replayed exactly.
func NewSolarSystem(seed uint64) *SolarSystem {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	bodies := make([]model.OrbitingBody, len(defaultBodies))
	for i, b := range defaultBodies {
		b.PhaseOffset = rng.Float64() * 2 * math.Pi
		bodies[i] = b
	}
	return &SolarSystem{Seed: seed, Bodies: bodies}
}

// NewSolarSystemFromBodies validates and wraps an explicit body table.
func NewSolarSystemFromBodies(bodies []model.OrbitingBody) (*SolarSystem, error) {
	seen := make(map[string]struct{}, len(bodies))
	for _, b := range bodies {
		if err := ValidateBody(b); err != nil {
			return nil, err
		}
		if _, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate body %q", ErrInvalidBody, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	out := make([]model.OrbitingBody, len(bodies))
	copy(out, bodies)
	return &SolarSystem{Bodies: out}, nil
}

// ValidateBody checks the invariants of a single body.
func ValidateBody(b model.OrbitingBody) error {
	if b.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBody)
	}
	if !(b.Distance > 0) || math.IsInf(b.Distance, 0) {
		return fmt.Errorf("%w: %q distance must be positive, got %v", ErrInvalidBody, b.Name, b.Distance)
	}
	if math.IsNaN(b.AngularSpeed) || math.IsInf(b.AngularSpeed, 0) {
		return fmt.Errorf("%w: %q angular speed must be finite", ErrInvalidBody, b.Name)
	}
	if !(b.PhaseOffset >= 0 && b.PhaseOffset < 2*math.Pi) {
		return fmt.Errorf("%w: %q phase offset %v outside [0, 2π)", ErrInvalidBody, b.Name, b.PhaseOffset)
	}
	return nil
}

// PhaseOffsets returns each body's phase offset keyed by name.
func (s *SolarSystem) PhaseOffsets() map[string]float64 {
	out := make(map[string]float64, len(s.Bodies))
	for _, b := range s.Bodies {
		out[b.Name] = b.PhaseOffset
	}
	return out
}

// Body looks up a body by name.
func (s *SolarSystem) Body(name string) (model.OrbitingBody, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return model.OrbitingBody{}, false
}

// BodyPosition returns where b sits at simulated time t.
func BodyPosition(b model.OrbitingBody, t float64) model.Vec3 {
	angle := b.AngularSpeed*t + b.PhaseOffset
	return model.Vec3{
		X: b.Distance * math.Cos(angle),
		Y: 0,
		Z: b.Distance * math.Sin(angle),
	}
}

// Positions returns the position of every body at simulated time t, in
// table order.
func Positions(bodies []model.OrbitingBody, t float64) []model.BodyPosition {
	out := make([]model.BodyPosition, len(bodies))
	for i, b := range bodies {
		out[i] = model.BodyPosition{Name: b.Name, Position: BodyPosition(b, t)}
	}
	return out
}

// positionOf finds a named body in a computed position list.
func positionOf(positions []model.BodyPosition, name string) (model.Vec3, bool) {
	for _, p := range positions {
		if p.Name == name {
			return p.Position, true
		}
	}
	return model.Vec3{}, false
}
