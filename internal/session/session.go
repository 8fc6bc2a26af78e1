// Package session drives one interactive simulation session: the story
// intro, the mission director that reframes the camera as a vehicle
// progresses, the imminent-crash flow and the delayed outcome screens.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/asteroid-defense/catalog"
	"github.com/signalsfoundry/asteroid-defense/core"
	"github.com/signalsfoundry/asteroid-defense/internal/logging"
	"github.com/signalsfoundry/asteroid-defense/internal/observability"
	"github.com/signalsfoundry/asteroid-defense/model"
)

var (
	// ErrControlsLocked indicates a sandbox command issued before the story
	// intro has finished.
	ErrControlsLocked = errors.New("controls are locked until the introduction ends")
	// ErrNoCrash indicates a report request with no crash warning showing.
	ErrNoCrash = errors.New("no crash warning to report on")
)

const (
	// DefaultOutcomeDelay is the real time between a decisive mission
	// event and its end screen.
	DefaultOutcomeDelay = 10 * time.Second
	// TransitTimeScale speeds up the cruise between launch and target.
	TransitTimeScale = 4
)

// End screen messages.
const (
	MessageEvacuated = "Earth has been evacuated! Humanity is safe on Mars."
	MessageDestroyed = "The nuclear missile has destroyed the asteroid! Earth is saved."
	MessageDeviated  = "Congratulations! The gravity tractor has successfully deviated the asteroid. Earth is safe!"
)

// MetricsRecorder receives per-frame and per-command measurements.
type MetricsRecorder interface {
	RecordTick(d time.Duration, timeScale, elapsed, distance float64)
	RecordEvent(event string)
	RecordPhaseTransition(vehicle, phase string)
	RecordCommand(command, result string)
}

// CrashSite is the impact marker on the world map, in percent of the map
// width and height.
type CrashSite struct {
	Name string
	X, Y float64
}

// CrashAlert describes the imminent impact shown to the user.
type CrashAlert struct {
	Site         CrashSite
	Consequences model.ImpactConsequences
	Date         string
}

// Frame is a core frame plus the session overlays.
type Frame struct {
	core.Frame

	SessionID        string
	Story            int
	ControlsUnlocked bool
	MeasuresOpen     bool

	// Crash is set while the crash warning or the report is showing.
	Crash        *CrashAlert
	CrashWarning bool
	ReportOpen   bool

	EndScreen string
	Info      *AsteroidInfo
}

// Option customises Session construction.
type Option func(*Session)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer replaces the tracer used for command spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithOutcomeDelay sets the delay before an end screen appears.
func WithOutcomeDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.outcomeDelay = d
		}
	}
}

// WithSkipStory starts the session with the introduction finished.
func WithSkipStory() Option {
	return func(s *Session) {
		s.story = ControlsUnlockStep
	}
}

// WithSessionID fixes the session ID instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

type outcome struct {
	message   string
	remaining float64 // real seconds
}

// Session wraps an Engine with the interactive session flow. All methods
// are safe for concurrent use; commands and ticks are serialized.
type Session struct {
	mu sync.Mutex

	id        string
	engine    *core.Engine
	selection catalog.Selection

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
	rng     *rand.Rand

	outcomeDelay time.Duration

	story        int
	measuresOpen bool
	crash        *CrashAlert
	crashWarning bool
	reportOpen   bool
	endScreen    string
	pending      *outcome
}

// New starts a session around engine for the given selection.
func New(engine *core.Engine, sel catalog.Selection, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		engine:       engine,
		selection:    sel,
		log:          logging.Noop(),
		tracer:       observability.Tracer(),
		outcomeDelay: DefaultOutcomeDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	seed := engine.SolarSystem().Seed
	s.rng = rand.New(rand.NewPCG(seed, seed^0x5deece66d))
	s.log = s.log.With(logging.String("session_id", s.id))
	engine.SetView(StoryView(s.story))

	ctx := logging.ContextWithSessionID(context.Background(), s.id)
	for _, field := range sel.Defaulted {
		s.log.Warn(ctx, "asteroid input defaulted", logging.String("field", field))
	}
	s.log.Info(ctx, "session started",
		logging.String("asteroid", sel.Spec.Name),
		logging.Float64("diameter_km", sel.Spec.DiameterKm),
		logging.Float64("velocity_km_s", sel.Spec.VelocityKmS),
	)
	return s
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Engine exposes the wrapped engine. Callers must not drive it directly
// while the session is running.
func (s *Session) Engine() *core.Engine { return s.engine }

// Selection returns the asteroid selection the session started from.
func (s *Session) Selection() catalog.Selection { return s.selection }

// Tick advances the engine by realDelta seconds and applies the session
// flow to the produced frame.
func (s *Session) Tick(realDelta float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	cf := s.engine.Tick(realDelta)

	for _, ev := range cf.Events {
		s.handleEvent(ev, cf)
	}
	if ev, ok := s.advanceOutcome(realDelta); ok {
		cf.Events = append(cf.Events, ev)
	}

	if s.metrics != nil {
		s.metrics.RecordTick(time.Since(start), cf.TimeScale, cf.Elapsed, cf.Asteroid.DistanceToEarth)
		for _, ev := range cf.Events {
			s.metrics.RecordEvent(ev.Type.String())
		}
	}
	return s.frameLocked(cf)
}

func (s *Session) frameLocked(cf core.Frame) Frame {
	f := Frame{
		Frame:            cf,
		SessionID:        s.id,
		Story:            s.story,
		ControlsUnlocked: s.story >= ControlsUnlockStep,
		MeasuresOpen:     s.measuresOpen,
		CrashWarning:     s.crashWarning,
		ReportOpen:       s.reportOpen,
		EndScreen:        s.endScreen,
	}
	if s.crash != nil {
		c := *s.crash
		f.Crash = &c
	}
	if cf.Report != nil {
		info := buildInfo(s.selection, *cf.Report)
		f.Info = &info
	}
	return f
}

// handleEvent applies the director policy and the crash flow.
func (s *Session) handleEvent(ev core.Event, cf core.Frame) {
	ctx := logging.ContextWithSessionID(context.Background(), s.id)
	switch ev.Type {
	case core.EventPhaseChanged:
		if ev.Transition == nil {
			return
		}
		s.direct(ev.Transition)
		if s.metrics != nil {
			s.metrics.RecordPhaseTransition(ev.Transition.Vehicle.String(), ev.Transition.To.String())
		}
		s.log.Info(ctx, "mission phase changed",
			logging.String("mission_id", ev.MissionID),
			logging.String("vehicle", ev.Vehicle.String()),
			logging.String("from", ev.Transition.From.String()),
			logging.String("to", ev.Transition.To.String()),
		)

	case core.EventAsteroidDeviated:
		s.schedule(MessageDeviated)
		s.log.Info(ctx, "asteroid deviated", logging.String("mission_id", ev.MissionID))

	case core.EventTractorInsufficient:
		report := s.engine.Report()
		s.log.Warn(ctx, "tractor mass insufficient to deviate asteroid",
			logging.String("mission_id", ev.MissionID),
			logging.Float64("tractor_mass_kg", vehicleMass(cf.Vehicle)),
			logging.Float64("asteroid_mass_kg", cf.Asteroid.MassKg),
			logging.Float64("required_kg", core.DeviationThreshold(cf.Asteroid.MassKg)),
			logging.Float64("estimated_mass_kg", report.MassKg),
		)

	case core.EventImminentCrash:
		s.imminentCrash(ctx, cf)

	case core.EventNearMiss:
		s.log.Debug(ctx, "asteroid grazed earth and re-approaches")
	}
}

// direct reframes the camera and resets the time scale as a vehicle
// advances. Arrival and intercept schedule the matching end screen.
func (s *Session) direct(t *core.PhaseTransition) {
	switch t.To {
	case model.PhaseInTransit:
		s.engine.SetView(model.ViewMeasureTransit)
		s.engine.SetTimeScale(TransitTimeScale)
	case model.PhaseOrbiting:
		s.engine.SetView(model.ViewMeasureIntercept)
		s.engine.SetTimeScale(1)
	case model.PhaseIntercept:
		s.engine.SetView(model.ViewMeasureIntercept)
		s.engine.SetTimeScale(1)
		s.schedule(MessageDestroyed)
	case model.PhaseArrival:
		s.engine.SetView(model.ViewMeasureArrivalMars)
		s.engine.SetTimeScale(1)
		s.schedule(MessageEvacuated)
	}
}

func (s *Session) imminentCrash(ctx context.Context, cf core.Frame) {
	if s.crashWarning || s.reportOpen {
		return
	}
	if cf.Vehicle != nil && cf.Vehicle.Type == model.VehicleMissile {
		return
	}
	report := s.engine.Report()
	s.crash = &CrashAlert{
		Site: CrashSite{
			Name: "Impact Zone",
			X:    10 + s.rng.Float64()*80,
			Y:    10 + s.rng.Float64()*80,
		},
		Consequences: report.Consequences,
		Date:         cf.DisplayDate,
	}
	s.crashWarning = true
	s.engine.SetTimeScale(0)
	s.log.Warn(ctx, "imminent crash",
		logging.Float64("distance_km", cf.Asteroid.DistanceKm),
		logging.Any("energy_megatons", report.Consequences.EnergyMegatons),
		logging.Float64("site_x", s.crash.Site.X),
		logging.Float64("site_y", s.crash.Site.Y),
	)
}

func (s *Session) schedule(message string) {
	s.pending = &outcome{message: message, remaining: s.outcomeDelay.Seconds()}
}

func (s *Session) advanceOutcome(realDelta float64) (core.Event, bool) {
	if s.pending == nil {
		return core.Event{}, false
	}
	if realDelta > 0 {
		s.pending.remaining -= realDelta
	}
	if s.pending.remaining > 0 {
		return core.Event{}, false
	}
	s.endScreen = s.pending.message
	s.pending = nil
	return core.Event{Type: core.EventEndScreen, Message: s.endScreen}, true
}

func vehicleMass(v *model.MissionVehicle) float64 {
	if v == nil {
		return 0
	}
	return v.MassKg
}

// command runs fn under the session lock inside a span, and records its
// result.
func (s *Session) command(ctx context.Context, name string, fn func() error, attrs ...attribute.KeyValue) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.ContextWithSessionID(ctx, s.id)
	ctx, span := s.tracer.Start(ctx, "session."+name,
		trace.WithAttributes(append(attrs, attribute.String("session.id", s.id))...))
	defer span.End()

	s.mu.Lock()
	err := fn()
	s.mu.Unlock()

	result := "ok"
	if err != nil {
		result = errorClass(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.WithSessionLogger(ctx, s.log).Debug(ctx, "command rejected",
			logging.String("command", name), logging.Err(err))
	}
	if s.metrics != nil {
		s.metrics.RecordCommand(name, result)
	}
	return err
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrControlsLocked):
		return "locked"
	case errors.Is(err, ErrNoCrash):
		return "no_crash"
	case errors.Is(err, core.ErrMissionActive):
		return "mission_active"
	case errors.Is(err, core.ErrNoMission):
		return "no_mission"
	case errors.Is(err, core.ErrUnknownVehicle):
		return "unknown_vehicle"
	default:
		return "error"
	}
}

func (s *Session) requireControls() error {
	if s.story < ControlsUnlockStep {
		return fmt.Errorf("%w: story step %d", ErrControlsLocked, s.story)
	}
	return nil
}
