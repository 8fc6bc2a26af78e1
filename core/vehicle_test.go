package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/asteroid-defense/model"
)

func vehicleInputs() VehicleInputs {
	return VehicleInputs{
		Earth:    model.Vec3{X: 10},
		Mars:     model.Vec3{X: -15},
		Asteroid: model.Vec3{X: 20, Z: -10},
		SimDelta: 0.1,
	}
}

// drive steps v until it reaches want or gives up.
func drive(t *testing.T, v *model.MissionVehicle, in VehicleInputs, want model.Phase) []PhaseTransition {
	t.Helper()
	var seen []PhaseTransition
	for i := 0; i < 100000 && v.Phase != want; i++ {
		in.Elapsed += in.SimDelta
		step := StepVehicle(v, in)
		if step.Transition != nil {
			seen = append(seen, *step.Transition)
		}
	}
	if v.Phase != want {
		t.Fatalf("vehicle stuck in %s, want %s", v.Phase, want)
	}
	return seen
}

func TestNewMissionVehicle(t *testing.T) {
	earth := model.Vec3{X: 10}
	v := NewMissionVehicle("m1", model.VehicleTractor, 5000, earth)
	if v.Phase != model.PhaseLaunching {
		t.Fatalf("phase = %s, want launching", v.Phase)
	}
	if v.Position != earth.Add(LaunchOffset) {
		t.Fatalf("position = %+v", v.Position)
	}
	if v.MassKg != 5000 || !v.HasMass() {
		t.Fatalf("tractor mass not recorded: %+v", v)
	}

	m := NewMissionVehicle("m2", model.VehicleMissile, 5000, earth)
	if m.MassKg != 0 || m.HasMass() {
		t.Fatalf("missile should not carry mass: %+v", m)
	}
}

func TestStepVehicle_PhasesMoveForward(t *testing.T) {
	for _, vt := range []model.VehicleType{model.VehicleTractor, model.VehicleMissile, model.VehicleStarship} {
		in := vehicleInputs()
		v := NewMissionVehicle("m", vt, 1000, in.Earth)
		seen := drive(t, v, in, vt.TerminalPhase())

		if len(seen) != 2 {
			t.Fatalf("%s: transitions = %+v, want 2", vt, seen)
		}
		if seen[0].From != model.PhaseLaunching || seen[0].To != model.PhaseInTransit {
			t.Fatalf("%s: first transition %+v", vt, seen[0])
		}
		if seen[1].From != model.PhaseInTransit || seen[1].To != vt.TerminalPhase() {
			t.Fatalf("%s: second transition %+v", vt, seen[1])
		}
		for _, tr := range seen {
			if tr.To.Rank() <= tr.From.Rank() {
				t.Fatalf("%s: transition went backwards: %+v", vt, tr)
			}
		}
	}
}

func TestStepVehicle_LaunchEscapesEarth(t *testing.T) {
	in := vehicleInputs()
	v := NewMissionVehicle("m", model.VehicleTractor, 1000, in.Earth)
	drive(t, v, in, model.PhaseInTransit)
	if d := v.Position.DistanceTo(in.Earth); d <= LaunchEscapeDistance {
		t.Fatalf("left launch phase at distance %v", d)
	}
}

func TestStepVehicle_ArrivalSnapsToTarget(t *testing.T) {
	in := vehicleInputs()
	v := &model.MissionVehicle{MissionID: "m", Type: model.VehicleStarship, Phase: model.PhaseInTransit, Position: in.Mars.Add(model.Vec3{X: 0.01})}

	step := StepVehicle(v, in)
	if step.Transition == nil || step.Transition.To != model.PhaseArrival {
		t.Fatalf("expected arrival, got %+v", step.Transition)
	}
	if v.Position != in.Mars {
		t.Fatalf("starship did not snap to Mars: %+v", v.Position)
	}
	if step.RespawnAsteroid {
		t.Fatalf("starship arrival must not respawn the asteroid")
	}
}

func TestStepVehicle_MissileRespawnsAsteroid(t *testing.T) {
	in := vehicleInputs()
	v := &model.MissionVehicle{MissionID: "m", Type: model.VehicleMissile, Phase: model.PhaseInTransit, Position: in.Asteroid}

	step := StepVehicle(v, in)
	if !step.RespawnAsteroid {
		t.Fatalf("missile intercept should request a respawn")
	}
	if v.Phase != model.PhaseIntercept {
		t.Fatalf("phase = %s, want intercept", v.Phase)
	}
}

func TestStepVehicle_TerminalOrbit(t *testing.T) {
	in := vehicleInputs()
	v := &model.MissionVehicle{MissionID: "m", Type: model.VehicleTractor, Phase: model.PhaseOrbiting}

	for _, elapsed := range []float64{0, 1, 2.5, 10} {
		in.Elapsed = elapsed
		if step := StepVehicle(v, in); step.Transition != nil {
			t.Fatalf("terminal phase transitioned: %+v", step.Transition)
		}
		if d := v.Position.DistanceTo(in.Asteroid); math.Abs(d-TerminalOrbitRadius) > 1e-9 {
			t.Fatalf("elapsed %v: orbit radius = %v", elapsed, d)
		}
	}
}

func TestVehicleTarget(t *testing.T) {
	in := vehicleInputs()
	if VehicleTarget(model.VehicleStarship, in) != in.Mars {
		t.Fatalf("starship should target Mars")
	}
	if VehicleTarget(model.VehicleTractor, in) != in.Asteroid || VehicleTarget(model.VehicleMissile, in) != in.Asteroid {
		t.Fatalf("tractor and missile should target the asteroid")
	}
}
