package core

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/asteroid-defense/model"
)

// RotationModel reports how far a body has spun about its own axis at a
// given story date, in radians.
type RotationModel interface {
	Angle(date time.Time) float64
}

// StaticRotation never spins.
type StaticRotation struct{}

// Angle for static rotation is always zero.
func (StaticRotation) Angle(time.Time) float64 { return 0 }

// SiderealRotation spins a body like Earth, using Greenwich mean sidereal
// time for the story date so the day side faces the Sun at local noon.
type SiderealRotation struct{}

// Angle returns GMST in radians for date.
func (SiderealRotation) Angle(date time.Time) float64 {
	date = date.UTC()
	year, month, day := date.Date()
	hour, min, sec := date.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	return satellite.ThetaG_JD(jd)
}

// NewRotationModel picks the rotation model for a body name.
func NewRotationModel(body string) RotationModel {
	if body == model.BodyEarth {
		return SiderealRotation{}
	}
	return StaticRotation{}
}
