// Package thermostat turns a setpoint and a temperature estimate into a
// heater duty. Two strategies share the safety gates: a stepped bang-bang
// ladder, and a gain-scheduled PID for tips with more thermal mass.
package thermostat

import (
	"github.com/chewxy/math32"

	"ironcode-go/types"
	"ironcode-go/x/mathx"
)

// PID sample interval.
const sampleMs = 100

// Gain schedule: within this gap of the setpoint the conservative set is
// active, beyond it the aggressive one.
const scheduleGapC = 30

// Tuning sets from bench characterization of the stock handle.
var (
	aggressive   = [3]float32{11, 0.5, 1}
	conservative = [3]float32{11, 3, 5}
)

// Inputs is one control tick's worth of readings.
type Inputs struct {
	Setpoint   uint16  // resolved for the current mode; 0 parks the heater
	Current    float32 // temperature estimate
	VinMilliV  uint32  // supply rail
	PIDEnabled bool
	NowMs      uint32
}

// Controller holds the strategy state and the reached-target latch.
type Controller struct {
	pid   *PID
	worky bool
}

func New() *Controller {
	return &Controller{pid: NewPID(0, 255, sampleMs)}
}

// Duty computes the heater duty for one tick. The gates run first: a
// reading past the fault ceiling means a broken or missing sensor, and a
// sagging supply means the handle is unplugged or the rail is overloaded.
// Either forces the heater off regardless of strategy.
func (c *Controller) Duty(in Inputs) uint8 {
	// The rail must strictly exceed the floor before heating resumes.
	if in.Current > float32(types.FaultTemp) || in.VinMilliV <= types.MinSupplyMilliV {
		c.pid.Reset()
		return 0
	}
	if in.Setpoint == 0 {
		c.pid.Reset()
		return 0
	}
	if in.PIDEnabled {
		return c.pidDuty(in)
	}
	c.pid.Reset()
	return ladderDuty(float32(in.Setpoint) - in.Current)
}

func (c *Controller) pidDuty(in Inputs) uint8 {
	if math32.Abs(float32(in.Setpoint)-in.Current) < scheduleGapC {
		c.pid.SetTunings(conservative[0], conservative[1], conservative[2])
	} else {
		c.pid.SetTunings(aggressive[0], aggressive[1], aggressive[2])
	}
	out := c.pid.Compute(in.Current, float32(in.Setpoint), in.NowMs)
	return uint8(mathx.Clamp(out, 0, 255))
}

// ladderDuty maps the remaining gap onto fixed power steps. Negative gaps
// (overshoot) fall through to zero; the handle only heats.
func ladderDuty(gap float32) uint8 {
	switch {
	case gap > 50:
		return 255
	case gap > 25:
		return 128
	case gap > 5:
		return 32
	case gap > 0.5:
		return 8
	default:
		return 0
	}
}

// Arm re-primes the reached-target latch, after a setpoint change or a
// boost transition, so the next arrival fires one notification.
func (c *Controller) Arm() { c.worky = false }

// AtTarget reports true exactly once when the shown temperature first
// comes within the working gap of the setpoint since the last Arm.
func (c *Controller) AtTarget(shown, setpoint uint16) bool {
	if c.worky {
		return false
	}
	if mathx.AbsDiff(shown, setpoint) < types.WorkyGap {
		c.worky = true
		return true
	}
	return false
}

// Worky reports whether the target has been reached since the last Arm.
func (c *Controller) Worky() bool { return c.worky }
