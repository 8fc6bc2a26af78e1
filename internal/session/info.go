package session

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/signalsfoundry/asteroid-defense/catalog"
	"github.com/signalsfoundry/asteroid-defense/core"
	"github.com/signalsfoundry/asteroid-defense/model"
)

// AsteroidInfo is the information card for the session's asteroid.
type AsteroidInfo struct {
	Name          string
	Status        string
	Size          string
	Velocity      string
	CloseApproach string
	MissDistance  string

	DiameterKm   float64
	VelocityKmS  float64
	MassKg       float64
	Mass         string
	Energy       string
	Consequences model.ImpactConsequences
}

func buildInfo(sel catalog.Selection, report core.ImpactReport) AsteroidInfo {
	status := "Non-Hazardous"
	if sel.Hazardous() {
		status = "Hazardous"
	}
	return AsteroidInfo{
		Name:          sel.Spec.Name,
		Status:        status,
		Size:          sel.Field(catalog.KeySize),
		Velocity:      sel.Field(catalog.KeyVelocity),
		CloseApproach: sel.Field(catalog.KeyDate),
		MissDistance:  sel.Field(catalog.KeyMissDistance),
		DiameterKm:    report.Spec.DiameterKm,
		VelocityKmS:   report.Spec.VelocityKmS,
		MassKg:        report.MassKg,
		Mass:          humanize.Comma(int64(math.Round(report.MassKg))) + " kg",
		Energy:        humanize.Comma(report.Consequences.EnergyMegatons) + " megatons",
		Consequences:  report.Consequences,
	}
}
