package timectrl

import (
	"math"
	"time"
)

const (
	// MinTimeScale and MaxTimeScale bound the non-zero time scale.
	MinTimeScale = 0.25
	MaxTimeScale = 64.0

	// DefaultTimeScale is the resume value when nothing was recorded.
	DefaultTimeScale = 1.0

	// StoryHoursPerSimSecond maps simulated seconds to story time for
	// the display calendar.
	StoryHoursPerSimSecond = 6.0

	// DisplayLayout formats the display date.
	DisplayLayout = "2006-01-02 - 15:04:05"
)

// SimClock accumulates simulated time. It is owned by a single engine and
// is not safe for concurrent use.
type SimClock struct {
	elapsed   float64
	timeScale float64

	// pausedFrom holds the scale to restore on resume while paused.
	pausedFrom *float64
}

// NewSimClock returns a running clock at the default time scale.
func NewSimClock() *SimClock {
	return &SimClock{timeScale: DefaultTimeScale}
}

// Elapsed returns the accumulated simulated seconds.
func (c *SimClock) Elapsed() float64 {
	return c.elapsed
}

// TimeScale returns the current multiplier; 0 means paused.
func (c *SimClock) TimeScale() float64 {
	return c.timeScale
}

// Paused reports whether the clock is stopped.
func (c *SimClock) Paused() bool {
	return c.timeScale == 0
}

// Advance adds realDelta × timeScale to the elapsed time and returns the
// simulated delta. Negative or non-finite deltas advance nothing.
func (c *SimClock) Advance(realDelta float64) float64 {
	if realDelta <= 0 || math.IsNaN(realDelta) || math.IsInf(realDelta, 0) {
		return 0
	}
	simDelta := realDelta * c.timeScale
	c.elapsed += simDelta
	return simDelta
}

// Accelerate doubles the time scale up to MaxTimeScale. While paused it
// raises the resume value instead.
func (c *SimClock) Accelerate() {
	if c.pausedFrom != nil {
		v := math.Min(*c.pausedFrom*2, MaxTimeScale)
		c.pausedFrom = &v
		return
	}
	c.timeScale = math.Min(c.timeScale*2, MaxTimeScale)
}

// Reduce halves the time scale down to MinTimeScale. While paused it
// lowers the resume value instead.
func (c *SimClock) Reduce() {
	if c.pausedFrom != nil {
		v := math.Max(*c.pausedFrom/2, MinTimeScale)
		c.pausedFrom = &v
		return
	}
	c.timeScale = math.Max(c.timeScale/2, MinTimeScale)
}

// TogglePause stops a running clock or resumes a stopped one at the
// scale it was stopped from.
func (c *SimClock) TogglePause() {
	if c.timeScale == 0 {
		c.resume()
		return
	}
	c.pause()
}

// SetTimeScale forces a time scale. Zero pauses, NaN is ignored and other
// values are clamped to [MinTimeScale, MaxTimeScale].
func (c *SimClock) SetTimeScale(v float64) {
	if math.IsNaN(v) {
		return
	}
	if v == 0 {
		if c.timeScale != 0 {
			c.pause()
		}
		return
	}
	c.pausedFrom = nil
	c.timeScale = clampScale(v)
}

// ResumeScale returns the scale a paused clock would resume at.
func (c *SimClock) ResumeScale() float64 {
	if c.pausedFrom != nil {
		return *c.pausedFrom
	}
	if c.timeScale == 0 {
		return DefaultTimeScale
	}
	return c.timeScale
}

func (c *SimClock) pause() {
	v := c.timeScale
	c.pausedFrom = &v
	c.timeScale = 0
}

func (c *SimClock) resume() {
	v := DefaultTimeScale
	if c.pausedFrom != nil && *c.pausedFrom != 0 {
		v = *c.pausedFrom
	}
	c.pausedFrom = nil
	c.timeScale = v
}

// DisplayDate maps elapsed simulated time onto the story calendar that
// starts at base.
func (c *SimClock) DisplayDate(base time.Time) time.Time {
	hours := c.elapsed * StoryHoursPerSimSecond
	return base.Add(time.Duration(hours * float64(time.Hour)))
}

// FormatDisplayDate renders the story calendar date for display.
func (c *SimClock) FormatDisplayDate(base time.Time) string {
	return c.DisplayDate(base).Format(DisplayLayout)
}

func clampScale(v float64) float64 {
	if v < MinTimeScale {
		return MinTimeScale
	}
	if v > MaxTimeScale {
		return MaxTimeScale
	}
	return v
}
