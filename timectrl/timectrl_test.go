package timectrl

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSimClockAdvanceMonotonic(t *testing.T) {
	scales := []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64}
	deltas := []float64{0, 0.001, 0.016, 1, 10, -1, math.NaN(), math.Inf(1)}

	for _, scale := range scales {
		c := NewSimClock()
		c.SetTimeScale(scale)
		for _, d := range deltas {
			before := c.Elapsed()
			c.Advance(d)
			if after := c.Elapsed(); after < before {
				t.Fatalf("scale=%v delta=%v: elapsed went from %v to %v", scale, d, before, after)
			}
			if math.IsNaN(c.Elapsed()) || math.IsInf(c.Elapsed(), 0) {
				t.Fatalf("scale=%v delta=%v: elapsed not finite: %v", scale, d, c.Elapsed())
			}
		}
	}
}

func TestSimClockAdvanceScalesDelta(t *testing.T) {
	c := NewSimClock()
	c.SetTimeScale(4)
	if got := c.Advance(0.5); got != 2 {
		t.Fatalf("Advance(0.5) at scale 4 = %v, want 2", got)
	}
	if got := c.Elapsed(); got != 2 {
		t.Fatalf("Elapsed() = %v, want 2", got)
	}
}

func TestSimClockPausedDoesNotAdvance(t *testing.T) {
	c := NewSimClock()
	c.TogglePause()
	if got := c.Advance(1); got != 0 {
		t.Fatalf("Advance while paused = %v, want 0", got)
	}
}

func TestSimClockAccelerateReduceRoundTrip(t *testing.T) {
	for _, scale := range []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32} {
		c := NewSimClock()
		c.SetTimeScale(scale)
		c.Accelerate()
		c.Reduce()
		if got := c.TimeScale(); math.Abs(got-scale) > 1e-12 {
			t.Fatalf("accelerate+reduce from %v = %v", scale, got)
		}
	}
}

func TestSimClockClampsAtBoundaries(t *testing.T) {
	c := NewSimClock()
	c.SetTimeScale(MaxTimeScale)
	c.Accelerate()
	if got := c.TimeScale(); got != MaxTimeScale {
		t.Fatalf("Accelerate at ceiling = %v, want %v", got, MaxTimeScale)
	}

	c.SetTimeScale(MinTimeScale)
	c.Reduce()
	if got := c.TimeScale(); got != MinTimeScale {
		t.Fatalf("Reduce at floor = %v, want %v", got, MinTimeScale)
	}

	c.SetTimeScale(1000)
	if got := c.TimeScale(); got != MaxTimeScale {
		t.Fatalf("SetTimeScale(1000) = %v, want %v", got, MaxTimeScale)
	}
	c.SetTimeScale(0.01)
	if got := c.TimeScale(); got != MinTimeScale {
		t.Fatalf("SetTimeScale(0.01) = %v, want %v", got, MinTimeScale)
	}
}

func TestSimClockTogglePauseTwiceRestores(t *testing.T) {
	for _, scale := range []float64{0.25, 1, 3, 64} {
		c := NewSimClock()
		c.SetTimeScale(scale)
		want := c.TimeScale()
		c.TogglePause()
		if !c.Paused() {
			t.Fatalf("expected paused after first toggle")
		}
		c.TogglePause()
		if got := c.TimeScale(); got != want {
			t.Fatalf("toggle twice from %v = %v", want, got)
		}
	}
}

func TestSimClockResumeAfterForcedPause(t *testing.T) {
	c := NewSimClock()
	c.SetTimeScale(8)
	c.SetTimeScale(0)
	if got := c.ResumeScale(); got != 8 {
		t.Fatalf("ResumeScale() = %v, want 8", got)
	}
	c.TogglePause()
	if got := c.TimeScale(); got != 8 {
		t.Fatalf("resume after forced pause = %v, want 8", got)
	}
}

func TestSimClockSetTimeScaleIgnoresNaN(t *testing.T) {
	c := NewSimClock()
	c.SetTimeScale(4)
	c.SetTimeScale(math.NaN())
	if c.Paused() || c.TimeScale() != 4 {
		t.Fatalf("NaN changed the clock: paused=%v scale=%v", c.Paused(), c.TimeScale())
	}

	c.SetTimeScale(0)
	c.SetTimeScale(math.NaN())
	if !c.Paused() || c.ResumeScale() != 4 {
		t.Fatalf("NaN changed a paused clock: paused=%v resume=%v", c.Paused(), c.ResumeScale())
	}
}

func TestSimClockAdjustWhilePaused(t *testing.T) {
	c := NewSimClock()
	c.SetTimeScale(2)
	c.TogglePause()
	c.Accelerate()
	if !c.Paused() {
		t.Fatalf("Accelerate must not unpause")
	}
	c.TogglePause()
	if got := c.TimeScale(); got != 4 {
		t.Fatalf("resume after accelerate-while-paused = %v, want 4", got)
	}
}

func TestSimClockDisplayDate(t *testing.T) {
	base := time.Date(2025, time.October, 26, 0, 0, 0, 0, time.UTC)
	c := NewSimClock()
	c.Advance(2) // 2 simulated seconds -> 12 story hours

	want := base.Add(12 * time.Hour)
	if got := c.DisplayDate(base); !got.Equal(want) {
		t.Fatalf("DisplayDate() = %v, want %v", got, want)
	}
	if got := c.FormatDisplayDate(base); got != "2025-10-26 - 12:00:00" {
		t.Fatalf("FormatDisplayDate() = %q", got)
	}
}

func TestFrameLoopAcceleratedSteps(t *testing.T) {
	fl := NewFrameLoop(10*time.Millisecond, Accelerated)

	var total float64
	frames := 0
	fl.AddListener(func(dt float64) {
		total += dt
		frames++
	})

	if got := fl.Run(context.Background(), 100*time.Millisecond); got != 10 {
		t.Fatalf("Run() frames = %d, want 10", got)
	}
	if frames != 10 {
		t.Fatalf("listener frames = %d, want 10", frames)
	}
	if math.Abs(total-0.1) > 1e-9 {
		t.Fatalf("total delta = %v, want 0.1", total)
	}
}

func TestFrameLoopStopsOnCancel(t *testing.T) {
	fl := NewFrameLoop(time.Millisecond, RealTime)
	ctx, cancel := context.WithCancel(context.Background())

	fl.AddListener(func(float64) { cancel() })

	done := fl.Start(ctx, 0)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("frame loop did not stop after cancel")
	}
}
