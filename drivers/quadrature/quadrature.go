// Package quadrature tracks a two-phase rotary encoder from an interrupt
// context. The edge handler does pure integer work against atomic cells, so
// the main context can read or retarget the position at any time without
// masking interrupts and without torn reads.
package quadrature

import "sync/atomic"

// Config selects the encoder's electrical flavour.
type Config struct {
	// HighRes handles 4-counts-per-detent encoders by applying a second
	// increment whenever the phase-agreement bit flips.
	HighRes bool
	// Reverse flips the sign of every step.
	Reverse bool
}

// Decoder holds the shared position cell and the ISR-private phase bits.
//
// pos/min/max/step are the only state shared between the interrupt and the
// main context; all of them are word-sized atomics. prevA/prevB/agree are
// touched exclusively by Edge and need no guarding.
type Decoder struct {
	pos  atomic.Int32 // scaled by 1<<shift
	min  atomic.Int32
	max  atomic.Int32
	step atomic.Int32 // sign-adjusted for Reverse

	shift   uint8
	highRes bool
	reverse bool

	prevA, prevB bool
	agree        bool // last observed (a == b)
}

// New returns a decoder; call Prime with the pins' current levels before
// enabling the edge interrupt.
func New(cfg Config) *Decoder {
	d := &Decoder{highRes: cfg.HighRes, reverse: cfg.Reverse}
	if cfg.HighRes {
		d.shift = 1
	}
	return d
}

// Prime seeds the phase-tracking bits from the current pin levels.
func (d *Decoder) Prime(a, b bool) {
	d.prevA, d.prevB = a, b
	d.agree = a == b
}

// SetRange retargets what the encoder means: it resets the bounds, the step
// size and the position (clamped into [min,max]). This is the only way the
// main context mutates the shared cells.
func (d *Decoder) SetRange(min, max, step, initial int) {
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	if d.reverse {
		step = -step
	}
	d.min.Store(int32(min) << d.shift)
	d.max.Store(int32(max) << d.shift)
	d.step.Store(int32(step))
	d.pos.Store(int32(initial) << d.shift)
}

// Read returns the descaled position.
func (d *Decoder) Read() int {
	return int(d.pos.Load() >> d.shift)
}

// Edge is the interrupt handler: call it on every phase-change event with
// the freshly sampled pin levels. Integer arithmetic only; never blocks.
func (d *Decoder) Edge(a, b bool) {
	if a == d.prevA {
		return
	}
	d.prevA = a
	if b == d.prevB {
		return
	}
	d.prevB = b

	delta := d.step.Load()
	if a != b {
		delta = -delta
	}
	d.addClamped(delta)
	if d.highRes && (a == b) != d.agree {
		d.addClamped(delta)
	}
	d.agree = a == b
}

// addClamped applies delta to the position, clamped into [min,max], via a
// CAS loop so a concurrent SetRange never produces a torn update.
func (d *Decoder) addClamped(delta int32) {
	lo := d.min.Load()
	hi := d.max.Load()
	for {
		old := d.pos.Load()
		next := old + delta
		if next < lo {
			next = lo
		}
		if next > hi {
			next = hi
		}
		if d.pos.CompareAndSwap(old, next) {
			return
		}
	}
}
