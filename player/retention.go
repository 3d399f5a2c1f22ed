package player

// Retention remembers the horizontal speed lost against a wall for a few
// frames, so that pushing on into the wall restores it. The zero value is
// idle.
type Retention struct {
	value float32
	ttl   int
}

// Armed reports whether a speed is being retained.
func (r Retention) Armed() bool { return r.ttl > 0 }

// Value returns the retained speed.
func (r Retention) Value() float32 { return r.value }

// TTL returns the frames left before the retained speed is dropped.
func (r Retention) TTL() int { return r.ttl }

// Arm starts retaining v for frames frames. An armed retention keeps its
// original value.
func (r *Retention) Arm(v float32, frames int) {
	if r.Armed() || frames <= 0 {
		return
	}
	r.value, r.ttl = v, frames
}

// Clear returns to idle.
func (r *Retention) Clear() {
	*r = Retention{}
}

// Tick counts one frame down.
func (r *Retention) Tick() {
	if r.ttl > 0 {
		r.ttl--
	}
	if r.ttl == 0 {
		r.value = 0
	}
}
