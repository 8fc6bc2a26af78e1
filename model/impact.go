package model

// ImpactConsequences is a derived snapshot of an impact's effects.
// All values are rounded to whole units.
type ImpactConsequences struct {
	EnergyMegatons int64
	CraterKm       int64
	EjectaKm       int64
	BlastKm        int64
}
