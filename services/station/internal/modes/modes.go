// Package modes derives the operating mode from presence sensing, button
// events and timers. It is pure state-machine logic: no sampling, no
// actuation, millisecond timestamps supplied by the caller.
package modes

import (
	"ironcode-go/types"
	"ironcode-go/x/timex"
)

// Button press shorter than this toggles boost; holding past it requests
// the setup flow.
const longPressMs = 500

// Inputs is everything the machine consumes on one tick.
type Inputs struct {
	Presence uint16 // denoised reed-channel reading
	Button   bool   // debounced switch level
	NowMs    uint32
}

// Events are edge-triggered outputs of one Update call.
type Events struct {
	SetupRequest bool // long press: suspend control, hand over to the menu flow
	BoostStarted bool
	BoostEnded   bool // expiry or toggle-off; re-arms the reached-target notify
	ButtonDown   bool // press edge, for feedback
}

// Machine holds mode state across ticks.
type Machine struct {
	tipPresent bool
	inStand    bool
	forcedOff  bool // no-tip bucket
	timedOff   bool // power-off timer expired

	boost        bool // boost latch, survives sleep
	boostStartMs uint32

	calibrating bool

	prevButton   bool
	pressActive  bool
	pressStartMs uint32
	setupFired   bool

	sleepSpan    bool
	sleepSinceMs uint32
}

func New() *Machine {
	return &Machine{tipPresent: true}
}

// Update advances the machine one tick.
func (m *Machine) Update(in Inputs, set *types.Settings) Events {
	var ev Events

	// ---- Button ----
	if in.Button && !m.prevButton {
		m.pressActive = true
		m.pressStartMs = in.NowMs
		m.setupFired = false
		ev.ButtonDown = true
	}
	if m.pressActive && in.Button && !m.setupFired &&
		timex.SinceMs(in.NowMs, m.pressStartMs) >= longPressMs {
		// Fires at the threshold even while still held, like the
		// blocking original.
		m.setupFired = true
		ev.SetupRequest = true
	}
	if !in.Button && m.prevButton && m.pressActive {
		m.pressActive = false
		if !m.setupFired {
			if m.boost {
				m.boost = false
				ev.BoostEnded = true
			} else {
				m.boost = true
				m.boostStartMs = in.NowMs
				ev.BoostStarted = true
			}
		}
	}
	m.prevButton = in.Button

	// ---- Boost expiry ----
	if m.boost && set.BoostSeconds > 0 &&
		timex.SinceMs(in.NowMs, m.boostStartMs) >= uint32(set.BoostSeconds)*1000 {
		m.boost = false
		ev.BoostEnded = true
	}

	// ---- Presence bucketing ----
	switch {
	case in.Presence < types.PresenceStand:
		m.tipPresent = true
		m.inStand = true
		m.forcedOff = false
	case in.Presence < types.PresenceHand:
		m.tipPresent = true
		m.inStand = false
		m.forcedOff = false
	default:
		m.tipPresent = false
		m.inStand = true
		m.forcedOff = true
	}

	// ---- Power-off timer: continuous sleep drains into Off ----
	if m.inStand && !m.forcedOff {
		if !m.sleepSpan {
			m.sleepSpan = true
			m.sleepSinceMs = in.NowMs
		} else if set.OffMinutes > 0 &&
			timex.SinceMs(in.NowMs, m.sleepSinceMs) >= uint32(set.OffMinutes)*60_000 {
			m.timedOff = true
		}
	} else {
		m.sleepSpan = false
		m.timedOff = false
	}

	return ev
}

// Mode derives the current mode. Priority: calibration, off, sleep, boost.
func (m *Machine) Mode() types.Mode {
	switch {
	case m.calibrating:
		return types.ModeCalibration
	case m.forcedOff || m.timedOff:
		return types.ModeOff
	case m.inStand:
		return types.ModeSleep
	case m.boost:
		return types.ModeBoost
	default:
		return types.ModeNormal
	}
}

// TipPresent reports the presence flag from the last Update.
func (m *Machine) TipPresent() bool { return m.tipPresent }

// Setpoint resolves the active setpoint for the current mode.
func (m *Machine) Setpoint(userTemp uint16, set *types.Settings) uint16 {
	switch m.Mode() {
	case types.ModeOff:
		return 0
	case types.ModeSleep:
		return set.SleepTemp
	case types.ModeBoost:
		return userTemp + uint16(set.BoostTemp)
	default:
		return userTemp
	}
}

// SetCalibration is the UI flow's hook: while on, the mode reads
// Calibration and normal mode logic is bypassed, but control keeps running
// at whatever setpoint the flow selects.
func (m *Machine) SetCalibration(on bool) { m.calibrating = on }
