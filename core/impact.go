package core

import (
	"math"

	"github.com/signalsfoundry/asteroid-defense/model"
)

const (
	// AsteroidDensity is the assumed bulk density, kg/m³.
	AsteroidDensity = 2000.0

	// MaxAsteroidMassKg caps the simulated mass used by the tractor check.
	MaxAsteroidMassKg = 1e8

	// JoulesPerMegaton is the energy of one megaton of TNT.
	JoulesPerMegaton = 4.184e15

	// DefaultDiameterKm and DefaultVelocityKmS replace missing or
	// unparseable catalog values.
	DefaultDiameterKm  = 0.3
	DefaultVelocityKmS = 15.0
)

// EstimateMass returns the uncapped mass of a spherical body of the given
// diameter at AsteroidDensity.
func EstimateMass(diameterKm float64) float64 {
	if !(diameterKm > 0) {
		return 0
	}
	radiusM := diameterKm * 1000 / 2
	volume := 4.0 / 3.0 * math.Pi * radiusM * radiusM * radiusM
	return volume * AsteroidDensity
}

// CappedMass returns EstimateMass bounded by MaxAsteroidMassKg.
func CappedMass(diameterKm float64) float64 {
	return math.Min(EstimateMass(diameterKm), MaxAsteroidMassKg)
}

// Consequences estimates the effects of an impact. It is total: inputs
// that are not strictly positive yield the zero value.
func Consequences(diameterKm, velocityKmS float64) model.ImpactConsequences {
	if !(diameterKm > 0) || !(velocityKmS > 0) || math.IsInf(diameterKm, 0) || math.IsInf(velocityKmS, 0) {
		return model.ImpactConsequences{}
	}

	mass := EstimateMass(diameterKm)
	v := velocityKmS * 1000
	energyJ := 0.5 * mass * v * v
	megatons := energyJ / JoulesPerMegaton

	crater := int64(math.Round(1.2 * math.Pow(megatons, 1/3.4)))
	return model.ImpactConsequences{
		EnergyMegatons: int64(math.Round(megatons)),
		CraterKm:       crater,
		EjectaKm:       5 * crater,
		BlastKm:        int64(math.Round(5 * math.Pow(megatons, 0.4))),
	}
}
