package session

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/asteroid-defense/internal/logging"
	"github.com/signalsfoundry/asteroid-defense/model"
)

// Next advances the introduction. On the last step it opens the measures
// panel instead.
func (s *Session) Next(ctx context.Context) error {
	return s.command(ctx, "next", func() error {
		if s.story >= ControlsUnlockStep {
			s.measuresOpen = true
			return nil
		}
		s.story++
		if s.engine.Vehicle() == nil {
			s.engine.SetView(StoryView(s.story))
		}
		return nil
	})
}

// Previous steps the introduction back. It does nothing once the sandbox
// has opened.
func (s *Session) Previous(ctx context.Context) error {
	return s.command(ctx, "previous", func() error {
		if s.story > 0 && s.story < ControlsUnlockStep {
			s.story--
			s.engine.SetView(StoryView(s.story))
		}
		return nil
	})
}

// Accelerate doubles the time scale.
func (s *Session) Accelerate(ctx context.Context) error {
	return s.command(ctx, "accelerate", func() error {
		if err := s.requireControls(); err != nil {
			return err
		}
		s.engine.Accelerate()
		return nil
	})
}

// Reduce halves the time scale.
func (s *Session) Reduce(ctx context.Context) error {
	return s.command(ctx, "reduce", func() error {
		if err := s.requireControls(); err != nil {
			return err
		}
		s.engine.Reduce()
		return nil
	})
}

// TogglePause stops or resumes simulated time.
func (s *Session) TogglePause(ctx context.Context) error {
	return s.command(ctx, "toggle_pause", func() error {
		if err := s.requireControls(); err != nil {
			return err
		}
		s.engine.TogglePause()
		return nil
	})
}

// SetView switches to a free camera view.
func (s *Session) SetView(ctx context.Context, v model.CameraView) error {
	return s.command(ctx, "set_view", func() error {
		if err := s.requireControls(); err != nil {
			return err
		}
		s.engine.SetView(v)
		return nil
	}, attribute.String("view", v.String()))
}

// SetTractorMass sets the mass of the next gravity tractor.
func (s *Session) SetTractorMass(ctx context.Context, kg float64) error {
	return s.command(ctx, "set_tractor_mass", func() error {
		s.engine.SetTractorMass(kg)
		return nil
	}, attribute.Float64("mass_kg", kg))
}

// SelectMeasure launches a mitigation vehicle. It closes the measures
// panel and dismisses a crash warning.
func (s *Session) SelectMeasure(ctx context.Context, vt model.VehicleType) (string, error) {
	var id string
	err := s.command(ctx, "select_measure", func() error {
		if err := s.requireControls(); err != nil {
			return err
		}
		missionID, err := s.engine.SelectMeasure(vt)
		if err != nil {
			return err
		}
		id = missionID
		s.measuresOpen = false
		s.crashWarning = false
		s.crash = nil
		s.log.Info(ctx, "mission launched",
			logging.String("mission_id", id),
			logging.String("vehicle", vt.String()),
			logging.Float64("tractor_mass_kg", s.engine.TractorMass()),
		)
		return nil
	}, attribute.String("vehicle", vt.String()))
	return id, err
}

// LaunchTractor sets the tractor mass and launches it in one step.
func (s *Session) LaunchTractor(ctx context.Context, kg float64) (string, error) {
	if err := s.SetTractorMass(ctx, kg); err != nil {
		return "", err
	}
	return s.SelectMeasure(ctx, model.VehicleTractor)
}

// EndMission aborts the active mission and cancels its pending outcome.
func (s *Session) EndMission(ctx context.Context) error {
	return s.command(ctx, "end_mission", func() error {
		if err := s.engine.EndMission(); err != nil {
			return err
		}
		s.pending = nil
		return nil
	})
}

// RequestInfo attaches the asteroid information card to the next frame.
func (s *Session) RequestInfo(ctx context.Context) error {
	return s.command(ctx, "request_info", func() error {
		s.engine.RequestInfo()
		return nil
	})
}

// GoToReport swaps the crash warning for the full impact report.
func (s *Session) GoToReport(ctx context.Context) error {
	return s.command(ctx, "go_to_report", func() error {
		if s.crash == nil || !s.crashWarning {
			return ErrNoCrash
		}
		s.crashWarning = false
		s.reportOpen = true
		return nil
	})
}

// CloseReport closes the impact report and resets the sandbox: mission
// cleared, normal speed, global view.
func (s *Session) CloseReport(ctx context.Context) error {
	return s.command(ctx, "close_report", func() error {
		if !s.reportOpen {
			return ErrNoCrash
		}
		s.reportOpen = false
		s.crash = nil
		s.resetSandbox()
		return nil
	})
}

// BackToMenu dismisses the end screen and resets the sandbox.
func (s *Session) BackToMenu(ctx context.Context) error {
	return s.command(ctx, "back_to_menu", func() error {
		s.endScreen = ""
		s.resetSandbox()
		return nil
	})
}

func (s *Session) resetSandbox() {
	if s.engine.Vehicle() != nil {
		_ = s.engine.EndMission()
	}
	s.pending = nil
	s.story = ControlsUnlockStep
	s.engine.SetView(model.ViewGlobal)
	s.engine.SetTimeScale(1)
}

// Status is a point-in-time view of the session overlays.
type Status struct {
	Story        int
	MeasuresOpen bool
	CrashWarning bool
	ReportOpen   bool
	EndScreen    string
	Vehicle      *model.MissionVehicle
	View         model.CameraView
	TimeScale    float64
	Paused       bool
	Pending      bool
}

// Status reports the current session state without ticking.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Story:        s.story,
		MeasuresOpen: s.measuresOpen,
		CrashWarning: s.crashWarning,
		ReportOpen:   s.reportOpen,
		EndScreen:    s.endScreen,
		Vehicle:      s.engine.Vehicle(),
		View:         s.engine.View(),
		TimeScale:    s.engine.Clock().TimeScale(),
		Paused:       s.engine.Clock().Paused(),
		Pending:      s.pending != nil,
	}
}
