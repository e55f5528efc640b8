package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ironcode-go/types"
)

// inHand is a mid-bucket presence reading (soldering in progress).
const inHand = 100

func machineWith(set types.Settings) (*Machine, *types.Settings) {
	m := New()
	s := set
	return m, &s
}

func TestPresenceBuckets(t *testing.T) {
	cases := []struct {
		presence uint16
		mode     types.Mode
		present  bool
	}{
		{0, types.ModeSleep, true},
		{31, types.ModeSleep, true},
		{32, types.ModeNormal, true},
		{191, types.ModeNormal, true},
		{192, types.ModeOff, false},
		{1023, types.ModeOff, false},
	}
	for _, tc := range cases {
		m, set := machineWith(types.DefaultSettings())
		m.Update(Inputs{Presence: tc.presence, NowMs: 1000}, set)
		assert.Equal(t, tc.mode, m.Mode(), "presence %d", tc.presence)
		assert.Equal(t, tc.present, m.TipPresent(), "presence %d", tc.presence)
	}
}

func TestShortPressTogglesBoost(t *testing.T) {
	m, set := machineWith(types.DefaultSettings())
	m.Update(Inputs{Presence: inHand, NowMs: 0}, set)

	ev := m.Update(Inputs{Presence: inHand, Button: true, NowMs: 100}, set)
	assert.True(t, ev.ButtonDown)
	assert.Equal(t, types.ModeNormal, m.Mode(), "boost latches on release, not press")

	ev = m.Update(Inputs{Presence: inHand, Button: false, NowMs: 300}, set)
	assert.True(t, ev.BoostStarted)
	assert.Equal(t, types.ModeBoost, m.Mode())

	// Second short press toggles back.
	m.Update(Inputs{Presence: inHand, Button: true, NowMs: 1000}, set)
	ev = m.Update(Inputs{Presence: inHand, Button: false, NowMs: 1200}, set)
	assert.True(t, ev.BoostEnded)
	assert.Equal(t, types.ModeNormal, m.Mode())
}

func TestLongPressRequestsSetupOnce(t *testing.T) {
	m, set := machineWith(types.DefaultSettings())
	m.Update(Inputs{Presence: inHand, Button: true, NowMs: 0}, set)

	ev := m.Update(Inputs{Presence: inHand, Button: true, NowMs: 499}, set)
	assert.False(t, ev.SetupRequest)

	ev = m.Update(Inputs{Presence: inHand, Button: true, NowMs: 500}, set)
	assert.True(t, ev.SetupRequest)

	// Still held: no repeat, and the release must not toggle boost.
	ev = m.Update(Inputs{Presence: inHand, Button: true, NowMs: 900}, set)
	assert.False(t, ev.SetupRequest)
	ev = m.Update(Inputs{Presence: inHand, Button: false, NowMs: 1000}, set)
	assert.False(t, ev.BoostStarted)
	assert.Equal(t, types.ModeNormal, m.Mode())
}

func TestLongPressAcrossCounterWrap(t *testing.T) {
	m, set := machineWith(types.DefaultSettings())
	start := uint32(0xFFFF_FF00) // 256 ms before the millisecond counter wraps
	m.Update(Inputs{Presence: inHand, Button: true, NowMs: start}, set)

	ev := m.Update(Inputs{Presence: inHand, Button: true, NowMs: 100}, set) // held 356 ms
	assert.False(t, ev.SetupRequest)

	ev = m.Update(Inputs{Presence: inHand, Button: true, NowMs: 244}, set) // held 500 ms
	assert.True(t, ev.SetupRequest)
}

func TestBoostExpiresAtConfiguredSeconds(t *testing.T) {
	set := types.DefaultSettings() // 40 s
	m, sp := machineWith(set)
	m.Update(Inputs{Presence: inHand, Button: true, NowMs: 0}, sp)
	m.Update(Inputs{Presence: inHand, NowMs: 100}, sp)
	assert.Equal(t, types.ModeBoost, m.Mode())

	ev := m.Update(Inputs{Presence: inHand, NowMs: 39_100}, sp)
	assert.False(t, ev.BoostEnded)
	assert.Equal(t, types.ModeBoost, m.Mode(), "one tick short of expiry")

	ev = m.Update(Inputs{Presence: inHand, NowMs: 40_100}, sp)
	assert.True(t, ev.BoostEnded)
	assert.Equal(t, types.ModeNormal, m.Mode())
}

func TestSleepOverridesBoost(t *testing.T) {
	m, set := machineWith(types.DefaultSettings())
	m.Update(Inputs{Presence: inHand, Button: true, NowMs: 0}, set)
	m.Update(Inputs{Presence: inHand, NowMs: 100}, set)
	assert.Equal(t, types.ModeBoost, m.Mode())

	// Into the stand: sleep wins; the latch stays, so picking the iron
	// back up resumes boost (until the timer ends it).
	m.Update(Inputs{Presence: 10, NowMs: 200}, set)
	assert.Equal(t, types.ModeSleep, m.Mode())
	m.Update(Inputs{Presence: inHand, NowMs: 300}, set)
	assert.Equal(t, types.ModeBoost, m.Mode())
}

func TestPowerOffTimer(t *testing.T) {
	set := types.DefaultSettings()
	set.OffMinutes = 2
	m, sp := machineWith(set)

	m.Update(Inputs{Presence: 10, NowMs: 0}, sp)
	m.Update(Inputs{Presence: 10, NowMs: 119_999}, sp)
	assert.Equal(t, types.ModeSleep, m.Mode())

	m.Update(Inputs{Presence: 10, NowMs: 120_000}, sp)
	assert.Equal(t, types.ModeOff, m.Mode())

	// Picking the iron up clears the timed-off state and restarts the span.
	m.Update(Inputs{Presence: inHand, NowMs: 121_000}, sp)
	assert.Equal(t, types.ModeNormal, m.Mode())
	m.Update(Inputs{Presence: 10, NowMs: 122_000}, sp)
	assert.Equal(t, types.ModeSleep, m.Mode())
}

func TestPowerOffTimerDisabled(t *testing.T) {
	set := types.DefaultSettings()
	set.OffMinutes = 0
	m, sp := machineWith(set)
	m.Update(Inputs{Presence: 10, NowMs: 0}, sp)
	m.Update(Inputs{Presence: 10, NowMs: 100 * 60_000}, sp)
	assert.Equal(t, types.ModeSleep, m.Mode())
}

func TestSetpointPerMode(t *testing.T) {
	set := types.DefaultSettings() // sleep 150, boost +50
	m, sp := machineWith(set)

	m.Update(Inputs{Presence: 1023, NowMs: 0}, sp)
	assert.Equal(t, uint16(0), m.Setpoint(320, sp))

	m.Update(Inputs{Presence: 10, NowMs: 100}, sp)
	assert.Equal(t, uint16(150), m.Setpoint(320, sp))

	m.Update(Inputs{Presence: inHand, NowMs: 200}, sp)
	assert.Equal(t, uint16(320), m.Setpoint(320, sp))

	m.Update(Inputs{Presence: inHand, Button: true, NowMs: 300}, sp)
	m.Update(Inputs{Presence: inHand, NowMs: 400}, sp)
	assert.Equal(t, uint16(370), m.Setpoint(320, sp))
}

func TestCalibrationOverlaysMode(t *testing.T) {
	m, set := machineWith(types.DefaultSettings())
	m.Update(Inputs{Presence: inHand, NowMs: 0}, set)

	m.SetCalibration(true)
	assert.Equal(t, types.ModeCalibration, m.Mode())
	m.Update(Inputs{Presence: 10, NowMs: 100}, set)
	assert.Equal(t, types.ModeCalibration, m.Mode())

	m.SetCalibration(false)
	assert.Equal(t, types.ModeSleep, m.Mode())
}
