package types

// Factory defaults. These mirror the board's recommended soldering range
// and seed both a fresh persistence medium and every newly added tip.
const (
	TempMin     uint16 = 150 // lowest selectable setpoint, °C
	TempMax     uint16 = 400 // highest selectable setpoint, °C
	TempDefault uint16 = 320
	TempSleep   uint16 = 150
	TempBoost   uint8  = 50 // boost increment
	TempStep           = 10 // encoder detent step, °C

	// Default calibration points: temperature at ADC 200/280/360 plus the
	// chip temperature the defaults were taken at.
	CalTemp200 uint16 = 216
	CalTemp280 uint16 = 308
	CalTemp360 uint16 = 390
	CalChip    uint16 = 30

	TipCapacity    = 8
	DefaultTipName = "WMRT"

	// Timers (0 disables).
	Time2Sleep  uint8 = 5  // minutes
	Time2Off    uint8 = 15 // minutes
	TimeOfBoost uint8 = 40 // seconds
)

// Sensing and safety thresholds.
const (
	SettleMicros = 950 // OpAmp settle time after the heater is parked off

	PresenceStand uint16 = 32  // below: iron resting in the stand
	PresenceHand  uint16 = 192 // below: iron in hand; at or above: no tip

	FaultTemp uint16 = 500 // shown temperature above this means open sensor

	MinSupplyMilliV uint32 = 11000 // heater stays off at or below this

	WorkyGap = 5 // |setpoint-current| below this counts as at-target
)

// DefaultSettings returns the factory settings block.
func DefaultSettings() Settings {
	return Settings{
		DefaultTemp:    TempDefault,
		SleepTemp:      TempSleep,
		BoostTemp:      TempBoost,
		SleepMinutes:   Time2Sleep,
		OffMinutes:     Time2Off,
		BoostSeconds:   TimeOfBoost,
		MainScreen:     1,
		PIDEnabled:     false,
		BeepEnabled:    true,
		ScreenFlip:     false,
		EncoderReverse: false,
	}
}

// DefaultTip returns a profile seeded with the factory calibration.
func DefaultTip() TipProfile {
	var p TipProfile
	p.SetName(DefaultTipName)
	p.Cal = [4]uint16{CalTemp200, CalTemp280, CalTemp360, CalChip}
	return p
}
