// Package catalog talks to the near-earth-object catalog and turns the
// user's selection into the asteroid a simulation session starts from.
package catalog

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/signalsfoundry/asteroid-defense/model"
)

// Handoff keys. The formatted keys are what the selection screen shows;
// the raw keys carry full-precision values when the record came straight
// from the catalog.
const (
	KeyName          = "name"
	KeySize          = "size"
	KeyMagnitude     = "density"
	KeyComposition   = "composition"
	KeyVelocity      = "velocity"
	KeyMissDistance  = "missDistance"
	KeyDate          = "date"
	KeyDiameterMaxKm = "diameter_max_km"
	KeyVelocityKmS   = "velocity_km_s"
)

// Risk labels shown for a record.
const (
	LabelHazardous    = "Potentially Hazardous"
	LabelNonHazardous = "Non-hazardous"
	notAvailable      = "N/A"
)

// DefaultAsteroidName names the fallback asteroid.
const DefaultAsteroidName = "Simulated Asteroid"

// DefaultHandoff is the selection used when none was handed over.
func DefaultHandoff() map[string]string {
	return map[string]string{
		KeyName:         DefaultAsteroidName,
		KeySize:         "0.2 - 0.5 km",
		KeyComposition:  "Hazardous",
		KeyVelocity:     "15.00 km/s",
		KeyMissDistance: "25,000,000 km",
		KeyDate:         "2025-10-26",
	}
}

// FormatSize renders a diameter range, e.g. "0.20 - 0.50 km".
func FormatSize(minKm, maxKm float64) string {
	return fmt.Sprintf("%.2f - %.2f km", minKm, maxKm)
}

// FormatVelocity renders a speed, e.g. "15.00 km/s".
func FormatVelocity(kmS float64) string {
	return fmt.Sprintf("%.2f km/s", kmS)
}

// FormatDistance renders a whole-kilometre distance with thousands
// separators, e.g. "25,000,000 km".
func FormatDistance(km float64) string {
	return humanize.Comma(int64(math.Round(km))) + " km"
}

// FormatMagnitude renders the absolute magnitude or "N/A".
func FormatMagnitude(h *float64) string {
	if h == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f mag", *h)
}

// RiskLabel returns the hazard label for a record.
func RiskLabel(hazardous bool) string {
	if hazardous {
		return LabelHazardous
	}
	return LabelNonHazardous
}

// HandoffFromRecord builds the session handoff map for a selected record.
func HandoffFromRecord(r model.Record) map[string]string {
	return map[string]string{
		KeyName:          r.Name,
		KeySize:          FormatSize(r.DiameterMinKm, r.DiameterMaxKm),
		KeyMagnitude:     FormatMagnitude(r.AbsoluteMagnitude),
		KeyComposition:   RiskLabel(r.IsHazardous),
		KeyVelocity:      FormatVelocity(r.VelocityKmS),
		KeyMissDistance:  FormatDistance(r.MissDistanceKm),
		KeyDate:          r.CloseApproachDate,
		KeyDiameterMaxKm: formatFloat(r.DiameterMaxKm),
		KeyVelocityKmS:   formatFloat(r.VelocityKmS),
	}
}
