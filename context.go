package shadergraph

import "time"

// FrameContext carries per-frame inputs read by evaluation and input handling.
// It is produced once per frame, before any read, by the frame loop owner.
type FrameContext struct {
	// Seconds is the value pushed by time nodes.
	Seconds float32
	// EmulateThreeButtonMouse lets modifier+left-drag act as the middle button.
	EmulateThreeButtonMouse bool
}

// Clock samples a monotonic clock at whole millisecond resolution.
type Clock struct {
	start time.Time
	// EmulateThreeButtonMouse is copied into every produced FrameContext.
	EmulateThreeButtonMouse bool
}

// NewClock returns a clock whose zero is the moment of the call.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Tick samples the clock and returns the context for the next frame.
func (c *Clock) Tick() FrameContext {
	ms := time.Since(c.start).Milliseconds()
	return FrameContext{
		Seconds:                 0.001 * float32(ms),
		EmulateThreeButtonMouse: c.EmulateThreeButtonMouse,
	}
}
