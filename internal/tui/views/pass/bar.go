package pass

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

const fps = 60

// FrameInterval is the animation step for Bar.
const FrameInterval = time.Second / fps

// Bar is a progress fill that springs toward its target percentage instead of
// jumping, so exchanges and synced diamonds visibly "pour" into the pass.
type Bar struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
}

// NewBar returns a settled bar at 0%.
func NewBar() Bar {
	return Bar{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
}

// SetTarget sets the percentage (0..100) to animate toward.
func (b *Bar) SetTarget(pct int) {
	b.target = math.Max(0, math.Min(100, float64(pct)))
}

// Snap jumps straight to the target.
func (b *Bar) Snap() {
	b.pos, b.vel = b.target, 0
}

// Step advances one frame and reports whether the bar is still moving.
func (b *Bar) Step() bool {
	b.pos, b.vel = b.spring.Update(b.pos, b.vel, b.target)
	if b.Settled() {
		b.Snap()
		return false
	}
	return true
}

// Settled reports whether the bar has reached its target.
func (b Bar) Settled() bool {
	return math.Abs(b.pos-b.target) < 0.05 && math.Abs(b.vel) < 0.05
}

// Fill is the number of filled cells out of width.
func (b Bar) Fill(width int) int {
	fill := int(math.Round(b.pos / 100 * float64(width)))
	return max(0, min(width, fill))
}
