package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/asteroid-defense/model"
	"github.com/signalsfoundry/asteroid-defense/timectrl"
)

var (
	// ErrMissionActive indicates a measure was selected while another
	// mission is still running.
	ErrMissionActive = errors.New("a mission is already active")
	// ErrNoMission indicates a mission command with no active mission.
	ErrNoMission = errors.New("no active mission")
	// ErrUnknownVehicle indicates an unsupported vehicle type.
	ErrUnknownVehicle = errors.New("unknown vehicle type")
)

// Tractor mass bounds, kg.
const (
	MinSelectableTractorMassKg = 1000.0
	MaxSelectableTractorMassKg = 1000000.0
	DefaultTractorMassKg       = 10000.0
)

// EventType classifies one-shot engine events.
type EventType int

const (
	EventImminentCrash EventType = iota
	EventAsteroidDeviated
	EventTractorInsufficient
	EventNearMiss
	EventMissionLaunched
	EventPhaseChanged
	EventMissionEnded
	EventEndScreen
)

func (t EventType) String() string {
	switch t {
	case EventImminentCrash:
		return "imminent_crash"
	case EventAsteroidDeviated:
		return "asteroid_deviated"
	case EventTractorInsufficient:
		return "tractor_insufficient"
	case EventNearMiss:
		return "near_miss"
	case EventMissionLaunched:
		return "mission_launched"
	case EventPhaseChanged:
		return "phase_changed"
	case EventMissionEnded:
		return "mission_ended"
	case EventEndScreen:
		return "end_screen"
	default:
		return "unknown"
	}
}

// Event is a one-shot notification carried by a single Frame.
type Event struct {
	Type       EventType
	MissionID  string
	Vehicle    model.VehicleType
	Transition *PhaseTransition
	Message    string
}

// AsteroidSnapshot is the asteroid as seen at the end of a tick.
type AsteroidSnapshot struct {
	Name            string
	Position        model.Vec3
	State           model.ApproachState
	MassKg          float64
	DistanceToEarth float64 // scene units
	DistanceKm      float64
}

// ImpactReport bundles the asteroid's description with its impact
// consequences.
type ImpactReport struct {
	Spec         model.AsteroidSpec
	MassKg       float64
	Consequences model.ImpactConsequences
}

// Frame is the value snapshot produced by one tick. It shares no memory
// with engine state.
type Frame struct {
	Tick        uint64
	RealDelta   float64
	SimDelta    float64
	Elapsed     float64
	TimeScale   float64
	Date        time.Time
	DisplayDate string

	Sun           model.Vec3
	Bodies        []model.BodyPosition
	Earth         model.Vec3
	Mars          model.Vec3
	EarthRotation float64

	Asteroid AsteroidSnapshot
	Vehicle  *model.MissionVehicle

	Camera        model.CameraPose
	View          model.CameraView
	FollowEnabled bool

	Report *ImpactReport
	Events []Event
}

// HasEvent reports whether the frame carries an event of type t.
func (f Frame) HasEvent(t EventType) bool {
	for _, ev := range f.Events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// EngineOption customises Engine construction.
type EngineOption func(*Engine)

// WithSolarSystem replaces the seeded default body table.
func WithSolarSystem(s *SolarSystem) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.system = s
		}
	}
}

// WithStartDate sets the story calendar origin.
func WithStartDate(t time.Time) EngineOption {
	return func(e *Engine) {
		e.baseDate = t
	}
}

// WithIDGenerator replaces the mission ID source.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithApproachResolver replaces the default approach tuning.
func WithApproachResolver(r *ApproachResolver) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// Engine owns all session simulation state and advances it one frame at a
// time. It is single-threaded: callers serialize Tick and commands.
type Engine struct {
	clock     *timectrl.SimClock
	system    *SolarSystem
	resolver  *ApproachResolver
	asteroid  *model.Asteroid
	vehicle   *model.MissionVehicle
	camera    *CameraRig
	earthSpin RotationModel
	baseDate  time.Time

	tractorMass     float64
	tick            uint64
	pending         []Event
	reportRequested bool
	newID           func() string

	tickListeners []func(Frame)
}

// NewEngine builds an engine for spec. seed fixes the planets' phase
// offsets unless WithSolarSystem is supplied.
func NewEngine(spec model.AsteroidSpec, seed uint64, opts ...EngineOption) *Engine {
	e := &Engine{
		clock:       timectrl.NewSimClock(),
		system:      NewSolarSystem(seed),
		resolver:    NewApproachResolver(),
		camera:      NewCameraRig(),
		earthSpin:   NewRotationModel(model.BodyEarth),
		baseDate:    time.Now().UTC(),
		tractorMass: DefaultTractorMassKg,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.asteroid = e.resolver.NewAsteroid(spec)
	return e
}

// RegisterTickListener adds a callback invoked with every produced frame.
func (e *Engine) RegisterTickListener(fn func(Frame)) {
	e.tickListeners = append(e.tickListeners, fn)
}

// Clock exposes the simulation clock for read access.
func (e *Engine) Clock() *timectrl.SimClock { return e.clock }

// SolarSystem returns the session's body table.
func (e *Engine) SolarSystem() *SolarSystem { return e.system }

// Asteroid returns a copy of the asteroid state.
func (e *Engine) Asteroid() model.Asteroid { return *e.asteroid }

// Vehicle returns a copy of the active vehicle, or nil.
func (e *Engine) Vehicle() *model.MissionVehicle {
	if e.vehicle == nil {
		return nil
	}
	v := *e.vehicle
	return &v
}

// View returns the requested camera view.
func (e *Engine) View() model.CameraView { return e.camera.View() }

// TractorMass returns the mass the next tractor will launch with.
func (e *Engine) TractorMass() float64 { return e.tractorMass }

// Report computes the impact consequences of the session's asteroid.
func (e *Engine) Report() ImpactReport {
	spec := e.asteroid.Spec
	return ImpactReport{
		Spec:         spec,
		MassKg:       EstimateMass(spec.DiameterKm),
		Consequences: Consequences(spec.DiameterKm, spec.VelocityKmS),
	}
}

// ---- Commands, applied between ticks ----

// SelectMeasure launches a vehicle of type vt from Earth, framing the
// launch at normal speed. Tractors carry the mass set by SetTractorMass.
func (e *Engine) SelectMeasure(vt model.VehicleType) (string, error) {
	switch vt {
	case model.VehicleTractor, model.VehicleMissile, model.VehicleStarship:
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownVehicle, vt)
	}
	if e.vehicle != nil {
		return "", ErrMissionActive
	}

	earth := e.bodyPosition(model.BodyEarth)
	id := e.newID()
	e.vehicle = NewMissionVehicle(id, vt, e.tractorMass, earth)
	e.camera.SetView(model.ViewMeasureLaunch)
	e.clock.SetTimeScale(1)
	e.pending = append(e.pending, Event{Type: EventMissionLaunched, MissionID: id, Vehicle: vt})
	return id, nil
}

// SetTractorMass sets the next tractor's mass, clamped to the selectable
// range. It does not affect a tractor already in flight.
func (e *Engine) SetTractorMass(kg float64) {
	if math.IsNaN(kg) {
		return
	}
	e.tractorMass = math.Max(MinSelectableTractorMassKg, math.Min(kg, MaxSelectableTractorMassKg))
}

// Accelerate doubles the time scale.
func (e *Engine) Accelerate() { e.clock.Accelerate() }

// Reduce halves the time scale.
func (e *Engine) Reduce() { e.clock.Reduce() }

// TogglePause stops or resumes simulated time.
func (e *Engine) TogglePause() { e.clock.TogglePause() }

// SetTimeScale forces the time scale; 0 pauses.
func (e *Engine) SetTimeScale(v float64) { e.clock.SetTimeScale(v) }

// SetView requests a camera view.
func (e *Engine) SetView(v model.CameraView) { e.camera.SetView(v) }

// EndMission clears the active vehicle and returns to the global view at
// normal speed in one step.
func (e *Engine) EndMission() error {
	if e.vehicle == nil {
		return ErrNoMission
	}
	ended := e.vehicle
	e.vehicle = nil
	e.clock.SetTimeScale(1)
	e.camera.SetView(model.ViewGlobal)
	e.pending = append(e.pending, Event{Type: EventMissionEnded, MissionID: ended.MissionID, Vehicle: ended.Type})
	return nil
}

// RequestInfo attaches an impact report to the next frame.
func (e *Engine) RequestInfo() { e.reportRequested = true }

// ---- Tick ----

// Tick advances the simulation by one frame of realDelta seconds: clock,
// orbits, asteroid, vehicle, camera, in that order.
func (e *Engine) Tick(realDelta float64) Frame {
	e.tick++
	events := e.pending
	e.pending = nil

	// 1) clock
	simDelta := e.clock.Advance(realDelta)
	elapsed := e.clock.Elapsed()

	// 2) orbits
	bodies := Positions(e.system.Bodies, elapsed)
	earth, _ := positionOf(bodies, model.BodyEarth)
	mars, _ := positionOf(bodies, model.BodyMars)

	// 3) asteroid
	var tractor *TractorStatus
	if e.vehicle != nil && e.vehicle.Type == model.VehicleTractor {
		tractor = &TractorStatus{
			MissionID: e.vehicle.MissionID,
			Phase:     e.vehicle.Phase,
			MassKg:    e.vehicle.MassKg,
		}
	}
	approach := e.resolver.Step(e.asteroid, earth, simDelta, tractor)
	events = append(events, approachEvents(approach, tractor)...)

	// 4) vehicle
	var vehiclePos model.Vec3
	if e.vehicle != nil {
		step := StepVehicle(e.vehicle, VehicleInputs{
			Earth:    earth,
			Mars:     mars,
			Asteroid: e.asteroid.Position,
			SimDelta: simDelta,
			Elapsed:  elapsed,
		})
		if step.Transition != nil {
			events = append(events, Event{
				Type:       EventPhaseChanged,
				MissionID:  step.Transition.MissionID,
				Vehicle:    step.Transition.Vehicle,
				Transition: step.Transition,
			})
		}
		if step.RespawnAsteroid {
			e.resolver.Respawn(e.asteroid)
		}
		vehiclePos = e.vehicle.Position
	}

	// 5) camera
	pose := e.camera.Update(CameraInputs{
		Earth:    earth,
		Asteroid: e.asteroid.Position,
		Vehicle:  vehiclePos,
		Mars:     mars,
	}, realDelta)

	date := e.clock.DisplayDate(e.baseDate)
	frame := Frame{
		Tick:          e.tick,
		RealDelta:     realDelta,
		SimDelta:      simDelta,
		Elapsed:       elapsed,
		TimeScale:     e.clock.TimeScale(),
		Date:          date,
		DisplayDate:   date.Format(timectrl.DisplayLayout),
		Bodies:        bodies,
		Earth:         earth,
		Mars:          mars,
		EarthRotation: e.earthSpin.Angle(date),
		Asteroid:      e.asteroidSnapshot(earth),
		Vehicle:       e.Vehicle(),
		Camera:        pose,
		View:          e.camera.View(),
		FollowEnabled: e.camera.FollowEnabled(),
		Events:        events,
	}
	if e.reportRequested {
		e.reportRequested = false
		report := e.Report()
		frame.Report = &report
	}

	for _, fn := range e.tickListeners {
		fn(frame)
	}
	return frame
}

// Run advances the engine by ticks frames of realDelta seconds each.
func (e *Engine) Run(ticks int, realDelta float64) Frame {
	var last Frame
	for i := 0; i < ticks; i++ {
		last = e.Tick(realDelta)
	}
	return last
}

func (e *Engine) bodyPosition(name string) model.Vec3 {
	if b, ok := e.system.Body(name); ok {
		return BodyPosition(b, e.clock.Elapsed())
	}
	return model.Vec3{}
}

func (e *Engine) asteroidSnapshot(earth model.Vec3) AsteroidSnapshot {
	d := e.asteroid.Position.DistanceTo(earth)
	return AsteroidSnapshot{
		Name:            e.asteroid.Spec.Name,
		Position:        e.asteroid.Position,
		State:           e.asteroid.State,
		MassKg:          e.asteroid.MassKg,
		DistanceToEarth: d,
		DistanceKm:      SceneToKm(d),
	}
}

func approachEvents(a ApproachEvents, tractor *TractorStatus) []Event {
	var out []Event
	missionID := ""
	if tractor != nil {
		missionID = tractor.MissionID
	}
	if a.Deviated {
		out = append(out, Event{Type: EventAsteroidDeviated, MissionID: missionID, Vehicle: model.VehicleTractor})
	}
	if a.TractorInsufficient {
		out = append(out, Event{Type: EventTractorInsufficient, MissionID: missionID, Vehicle: model.VehicleTractor})
	}
	if a.ImminentCrash {
		out = append(out, Event{Type: EventImminentCrash})
	}
	if a.NearMiss {
		out = append(out, Event{Type: EventNearMiss})
	}
	return out
}
