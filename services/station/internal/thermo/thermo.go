// Package thermo turns denoised ADC readings into tip temperature
// estimates, applies cold-junction compensation, and smooths the value
// shown to the user without touching the control input.
package thermo

import (
	"github.com/chewxy/math32"

	"ironcode-go/types"
	"ironcode-go/x/mathx"
)

// Strategy selects how raw readings become temperatures. Product
// configuration may switch between them; both stay selectable.
type Strategy uint8

const (
	// StrategyLinearFixed is the active strategy: a fixed linear fit plus
	// cold-junction compensation.
	StrategyLinearFixed Strategy = iota
	// StrategyPiecewiseCalibrated interpolates over the selected tip's
	// three calibration points.
	StrategyPiecewiseCalibrated
)

// Linear fit constants for StrategyLinearFixed.
const (
	linearGain   float32 = 0.836
	linearOffset float32 = 8.91
	cjReferenceC float32 = 25
)

// smoothingFactor is the exponential smoothing weight for the raw reading.
// 1 means the raw sample fully replaces the previous value each tick
// (smoothing currently disabled; 0.05 was the tuned value).
const smoothingFactor float32 = 1

// Raw ADC breakpoints for the piecewise strategy.
const (
	rawBreak0 uint16 = 200
	rawBreak1 uint16 = 280
	rawBreak2 uint16 = 360
	ambientC  uint16 = 21 // lower anchor for the first segment
)

// Estimator carries the smoothed raw reading and the display state.
type Estimator struct {
	strategy Strategy
	raw      float32
	current  float32
	shown    uint16
	primed   bool
}

func New(strategy Strategy) *Estimator {
	return &Estimator{strategy: strategy}
}

// Reset restarts the raw smoothing from sample, e.g. after a tip change.
func (e *Estimator) Reset(sample uint16) {
	e.raw = float32(sample)
	e.primed = true
}

// Update folds in a fresh denoised sample and returns the new estimate.
// cal supplies the calibration points for the piecewise strategy.
func (e *Estimator) Update(sample uint16, coldJunctionC float32, cal *types.TipProfile) float32 {
	if !e.primed {
		e.Reset(sample)
	} else {
		e.raw += (float32(sample) - e.raw) * smoothingFactor
	}

	switch e.strategy {
	case StrategyPiecewiseCalibrated:
		e.current = piecewise(uint16(e.raw), cal)
	default:
		e.current = e.raw*linearGain + linearOffset + (coldJunctionC - cjReferenceC)
	}
	return e.current
}

// Current returns the last estimate (the control input).
func (e *Estimator) Current() float32 { return e.current }

// Raw returns the smoothed raw reading, rounded down.
func (e *Estimator) Raw() uint16 { return uint16(e.raw) }

// piecewise maps a raw reading through the tip's calibration points. The
// top segment extrapolates past the last breakpoint so an open sensor still
// reads implausibly high and trips the fault override.
func piecewise(raw uint16, cal *types.TipProfile) float32 {
	switch {
	case raw < rawBreak0:
		return float32(mathx.MapU16(raw, 0, rawBreak0, ambientC, cal.Cal[0]))
	case raw < rawBreak1:
		return float32(mathx.MapU16(raw, rawBreak0, rawBreak1, cal.Cal[0], cal.Cal[1]))
	default:
		span := int32(cal.Cal[2]) - int32(cal.Cal[1])
		return float32(int32(cal.Cal[1]) + (int32(raw)-int32(rawBreak1))*span/int32(rawBreak2-rawBreak1))
	}
}

// Shown damps the displayed value near the setpoint: it snaps to the
// estimate when diverging by more than 5 or when tracking a stale setpoint,
// and snaps exactly onto the setpoint within 1.
func (e *Estimator) Shown(setpoint uint16) uint16 {
	if e.shown != setpoint || math32.Abs(float32(e.shown)-e.current) > 5 {
		c := e.current
		if c < 0 {
			c = 0
		}
		e.shown = uint16(c)
	}
	if math32.Abs(float32(e.shown)-float32(setpoint)) <= 1 {
		e.shown = setpoint
	}
	return e.shown
}

// ---- Auxiliary channel conversions ----

// ColdJunctionC converts the denoised cold-junction reading to °C.
func ColdJunctionC(mean uint16) float32 {
	return float32(mean)*0.9 - 113.836
}

// ChipTempC converts the raw 32-sample accumulator of the internal
// temperature channel to °C.
func ChipTempC(sum uint32) float32 {
	return (float32(sum>>2) - 2594) / 9.76
}

// VccMilliV derives the supply rail from the bandgap-against-Vcc reading.
func VccMilliV(mean uint16) uint32 {
	if mean == 0 {
		return 0
	}
	return 1125300 / uint32(mean) // 1.1 * 1023 * 1000
}

// VinMilliV converts the input-voltage divider reading, scaled by the
// measured Vcc. 179.474 = 1023 * R13 / (R12 + R13).
func VinMilliV(mean uint16, vccMilliV uint32) uint32 {
	return uint32(float32(mean) * float32(vccMilliV) / 179.474)
}
