package types

// ---- Operating modes ----

// Mode is the station's operating mode, derived each tick from presence
// sensing, button events and timers.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeSleep
	ModeOff
	ModeBoost
	ModeCalibration
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSleep:
		return "sleep"
	case ModeOff:
		return "off"
	case ModeBoost:
		return "boost"
	case ModeCalibration:
		return "calibration"
	default:
		return "unknown"
	}
}

// ---- Tip profiles ----

// TipNameLen is the fixed capacity of a tip name, terminator included.
const TipNameLen = 6

// TipProfile holds one tip's calibration record. Cal[0..2] are the measured
// temperatures at ADC readings 200/280/360; Cal[3] is the chip temperature
// at calibration time.
type TipProfile struct {
	Name [TipNameLen]byte
	Cal  [4]uint16
}

// NameString returns the name up to the NUL terminator.
func (p *TipProfile) NameString() string {
	for i, b := range p.Name {
		if b == 0 {
			return string(p.Name[:i])
		}
	}
	return string(p.Name[:])
}

// SetName stores s truncated to the fixed capacity, NUL-terminated.
func (p *TipProfile) SetName(s string) {
	p.Name = [TipNameLen]byte{}
	n := len(s)
	if n > TipNameLen-1 {
		n = TipNameLen - 1
	}
	copy(p.Name[:n], s[:n])
}

// ---- User settings ----

// Settings are the persisted user preferences. Loaded once at boot and
// written back only through the explicit commit boundary (Store.Persist).
type Settings struct {
	DefaultTemp uint16 // start setpoint, °C
	SleepTemp   uint16 // setpoint while resting in the stand, °C
	BoostTemp   uint8  // increment added to the setpoint in boost mode, °C

	SleepMinutes uint8 // minutes before sleep entry (0 = disabled)
	OffMinutes   uint8 // minutes of continuous sleep before power-off (0 = disabled)
	BoostSeconds uint8 // boost auto-expiry (0 = boost never expires)

	MainScreen     uint8 // display-mode flag (0 big numbers, 1 more info)
	PIDEnabled     bool  // control strategy: PID vs direct ladder
	BeepEnabled    bool
	ScreenFlip     bool
	EncoderReverse bool
}

// ---- Runtime snapshot (retained on station/state) ----

// Snapshot is the read-only per-tick view handed to display/telemetry
// collaborators. Integer °C and millivolts to suit TinyGo targets.
type Snapshot struct {
	Mode       Mode
	Setpoint   uint16 // active setpoint after mode adjustment, °C
	UserTemp   uint16 // encoder-selected working temperature, °C
	ShownTemp  uint16 // display-smoothed estimate, °C
	RawADC     uint16 // denoised tip-sensor reading
	Duty       uint8  // heater duty actually applied (0..255)
	Worky      bool   // |setpoint-current| < 5
	TipPresent bool
	TipName    string
	VinMilliV  uint32
	VccMilliV  uint32
	TSms       int64
}

// NotifyEvent is published on station/notify whenever the core requests a
// single abstract feedback signal. The buzzer collaborator decides what to
// do with it.
type NotifyEvent struct {
	Reason string // "worky", "boost_end", "button", "fault"
}

// ---- Control payloads (station/control/<verb>) ----

type SetpointSet struct{ Temp uint16 }

// SettingsUpdate replaces the full settings block. The caller (menu flow)
// batches edits and commits once.
type SettingsUpdate struct{ Settings Settings }

type TipAdd struct{ Name string }
type TipRename struct{ Name string }
type TipSelect struct{ Index uint8 }

// TipCalibrate carries the three candidate reference temperatures in
// ascending target order. Validation happens in the store.
type TipCalibrate struct{ Points [3]uint16 }

// Generic replies.
type OKReply struct {
	OK bool `json:"ok"`
}
type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
