package timectrl

import (
	"context"
	"time"
)

// Mode describes how the FrameLoop measures frame time.
type Mode int

const (
	// RealTime fires on a wall-clock ticker and reports the measured delta.
	RealTime Mode = iota
	// Accelerated runs as quickly as the loop can, stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// FrameLoop drives frames and notifies registered listeners with the
// frame's real elapsed seconds. Listeners run sequentially on the loop
// goroutine, so a frame fully completes before the next one starts.
type FrameLoop struct {
	Tick time.Duration
	Mode Mode

	// now is swappable for tests.
	now func() time.Time

	listeners []func(realDelta float64)
}

// NewFrameLoop constructs a loop.
func NewFrameLoop(tick time.Duration, mode Mode) *FrameLoop {
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}
	return &FrameLoop{
		Tick: tick,
		Mode: mode,
		now:  time.Now,
	}
}

// AddListener registers a callback invoked on every frame.
func (fl *FrameLoop) AddListener(fn func(realDelta float64)) {
	fl.listeners = append(fl.listeners, fn)
}

// Start runs the loop for the specified real (or, when accelerated,
// stepped) duration in a separate goroutine. It returns a channel that is
// closed when the loop finishes. A zero duration runs until ctx is done.
func (fl *FrameLoop) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fl.Run(ctx, duration)
	}()
	return done
}

// Run drives frames on the calling goroutine until duration is covered or
// ctx is cancelled. It returns the number of frames delivered.
func (fl *FrameLoop) Run(ctx context.Context, duration time.Duration) int {
	if fl.Mode == Accelerated {
		return fl.runAccelerated(ctx, duration)
	}
	return fl.runRealTime(ctx, duration)
}

func (fl *FrameLoop) runAccelerated(ctx context.Context, duration time.Duration) int {
	step := fl.Tick.Seconds()
	elapsed := time.Duration(0)
	frames := 0
	for {
		if duration > 0 && elapsed >= duration {
			return frames
		}
		if ctx.Err() != nil {
			return frames
		}
		fl.emit(step)
		elapsed += fl.Tick
		frames++
	}
}

func (fl *FrameLoop) runRealTime(ctx context.Context, duration time.Duration) int {
	ticker := time.NewTicker(fl.Tick)
	defer ticker.Stop()

	start := fl.now()
	last := start
	frames := 0
	for {
		if duration > 0 && last.Sub(start) >= duration {
			return frames
		}
		select {
		case <-ctx.Done():
			return frames
		case <-ticker.C:
		}
		now := fl.now()
		delta := now.Sub(last).Seconds()
		last = now
		fl.emit(delta)
		frames++
	}
}

func (fl *FrameLoop) emit(realDelta float64) {
	for _, fn := range fl.listeners {
		fn(realDelta)
	}
}
