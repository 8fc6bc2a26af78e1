package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/asteroid-defense/model"
)

func TestSiderealRotation_Range(t *testing.T) {
	r := NewRotationModel(model.BodyEarth)
	for h := 0; h < 48; h += 5 {
		a := r.Angle(engineStart.Add(time.Duration(h) * time.Hour))
		if a < 0 || a >= 2*math.Pi {
			t.Fatalf("hour %d: angle %v outside [0, 2π)", h, a)
		}
	}
}

func TestSiderealRotation_Rate(t *testing.T) {
	r := SiderealRotation{}
	a0 := r.Angle(engineStart)
	a1 := r.Angle(engineStart.Add(time.Hour))

	got := math.Mod(a1-a0+2*math.Pi, 2*math.Pi)
	want := 2 * math.Pi * 1.00273790934 / 24
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("hourly spin = %v rad, want %v", got, want)
	}
}

func TestNewRotationModel_OtherBodiesStatic(t *testing.T) {
	if a := NewRotationModel(model.BodyMars).Angle(engineStart); a != 0 {
		t.Fatalf("mars angle = %v, want 0", a)
	}
}
