package thermostat

import "github.com/chewxy/math32"

// PID is a discrete-time controller with derivative-on-input and an
// integral term clamped to the output limits, so it cannot wind up past
// what the actuator can deliver.
type PID struct {
	kp, ki, kd float32 // working gains, pre-scaled by the sample time

	outMin, outMax float32
	sampleMs       uint32

	iTerm     float32
	lastInput float32
	lastMs    uint32
	primed    bool
	output    float32
}

// NewPID builds a controller with the given output range. Gains are unset
// until the first SetTunings call.
func NewPID(outMin, outMax float32, sampleMs uint32) *PID {
	return &PID{outMin: outMin, outMax: outMax, sampleMs: sampleMs}
}

// SetTunings folds the sample interval into the integral and derivative
// gains, so Compute works on per-sample deltas.
func (p *PID) SetTunings(kp, ki, kd float32) {
	if kp < 0 || ki < 0 || kd < 0 {
		return
	}
	sec := float32(p.sampleMs) / 1000
	p.kp = kp
	p.ki = ki * sec
	p.kd = kd / sec
}

// Reset drops the accumulated state. The next Compute primes without
// producing a derivative kick.
func (p *PID) Reset() {
	p.iTerm = 0
	p.primed = false
	p.output = 0
}

// Compute advances the controller if a full sample interval has elapsed,
// and returns the held output either way. Derivative acts on the input,
// not the error, so setpoint steps do not spike the output.
func (p *PID) Compute(input, setpoint float32, nowMs uint32) float32 {
	if !p.primed {
		p.primed = true
		p.lastInput = input
		p.lastMs = nowMs
		p.iTerm = math32.Max(p.outMin, math32.Min(p.output, p.outMax))
		return p.output
	}
	if nowMs-p.lastMs < p.sampleMs {
		return p.output
	}

	err := setpoint - input
	p.iTerm += p.ki * err
	p.iTerm = math32.Max(p.outMin, math32.Min(p.iTerm, p.outMax))
	dInput := input - p.lastInput

	out := p.kp*err + p.iTerm - p.kd*dInput
	p.output = math32.Max(p.outMin, math32.Min(out, p.outMax))

	p.lastInput = input
	p.lastMs = nowMs
	return p.output
}
