//go:build rp2040 || rp2350

// Board resource factory for the RP2-based controller board.
package platform

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/at24cx"

	"ironcode-go/drivers/analog"
	"ironcode-go/services/station/internal/halcore"
)

// Pin map for the controller board.
const (
	pinTipSense = machine.ADC0 // GP26, OpAmp output
	pinPresence = machine.ADC1 // GP27, handle reed divider
	pinVinSense = machine.ADC2 // GP28, input voltage divider

	pinHeater = machine.GP15 // MOSFET gate, PWM slice 7 channel B

	pinEncoderA = machine.GP10
	pinEncoderB = machine.GP11
	pinButton   = machine.GP12 // encoder switch, active low
)

// The heater PWM runs above the audible band.
const heaterPWMPeriodNs = 40_000 // 25 kHz

// pwmCtrl matches the machine PWM slice handles without naming their
// unexported concrete type.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Board configures the peripherals and returns the resource bundle.
func Board() halcore.Resources {
	machine.InitADC()
	machine.ADC{Pin: pinTipSense}.Configure(machine.ADCConfig{})
	machine.ADC{Pin: pinPresence}.Configure(machine.ADCConfig{})
	machine.ADC{Pin: pinVinSense}.Configure(machine.ADCConfig{})

	var slice pwmCtrl = machine.PWM7
	_ = slice.Configure(machine.PWMConfig{Period: heaterPWMPeriodNs})
	pinHeater.Configure(machine.PinConfig{Mode: machine.PinPWM})
	ch, _ := slice.Channel(pinHeater)
	heater := &rp2Heater{ctrl: slice, ch: ch, top: slice.Top()}
	heater.SetDuty(0)

	pinButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinEncoderA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinEncoderB.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	_ = machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	eeprom := at24cx.New(machine.I2C0)
	eeprom.Configure(at24cx.Config{})

	return halcore.Resources{
		Conv:   &rp2Converter{},
		Wait:   time.Sleep,
		Heater: heater,
		Button: &rp2Button{},
		Clock:  newRP2Clock(),
		Medium: &eepromMedium{dev: &eeprom},
		AttachEncoder: func(edge func(a, b bool)) (bool, bool) {
			// One interrupt source is enough: the handler re-reads both
			// phases, and the decoder ignores incomplete transitions.
			_ = pinEncoderA.SetInterrupt(machine.PinToggle, func(machine.Pin) {
				edge(pinEncoderA.Get(), pinEncoderB.Get())
			})
			return pinEncoderA.Get(), pinEncoderB.Get()
		},
	}
}

// ---- ADC ----

// rp2Converter maps the logical channels onto the board's ADC inputs.
// Readings are reduced to 10-bit so the shared conversion constants hold.
// The cold-junction and chip channels have no dedicated inputs here; both
// are synthesized from the die temperature sensor, and the Vcc channel
// reports the fixed 3.3 V rail.
type rp2Converter struct {
	sel analog.Channel
}

func (c *rp2Converter) Select(ch analog.Channel, _ analog.Ref) { c.sel = ch }

func (c *rp2Converter) Convert() uint16 {
	switch c.sel {
	case analog.ChanTip:
		return machine.ADC{Pin: pinTipSense}.Get() >> 6
	case analog.ChanPresence:
		return machine.ADC{Pin: pinPresence}.Get() >> 6
	case analog.ChanVin:
		return machine.ADC{Pin: pinVinSense}.Get() >> 6
	case analog.ChanColdJ:
		// Inverse of the cold-junction conversion: raw = (T + 113.836) / 0.9.
		t := float32(machine.ReadTemperature()) / 1000
		return uint16((t + 113.836) / 0.9)
	case analog.ChanChip:
		// Inverse of the chip conversion over a 32-sample burst.
		t := float32(machine.ReadTemperature()) / 1000
		return uint16((t*9.76 + 2594) / 8)
	default: // ChanVcc
		return 341 // 1125300 / 3300 mV
	}
}

// ---- Heater PWM ----

type rp2Heater struct {
	ctrl pwmCtrl
	ch   uint8
	top  uint32
}

func (h *rp2Heater) SetDuty(d uint8) {
	h.ctrl.Set(h.ch, uint32(d)*h.top/255)
}

// ---- Button ----

type rp2Button struct{}

func (rp2Button) Pressed() bool { return !pinButton.Get() }

// ---- Clock ----

type rp2Clock struct{ start time.Time }

func newRP2Clock() *rp2Clock { return &rp2Clock{start: time.Now()} }

func (c *rp2Clock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

// ---- Persistence ----

// eepromMedium adapts the external AT24C EEPROM. The part needs its write
// cycle time between byte writes; the store's wear guard keeps those rare.
type eepromMedium struct {
	dev *at24cx.Device
}

func (m *eepromMedium) ReadByte(addr int) byte {
	b, _ := m.dev.ReadByte(uint16(addr))
	return b
}

func (m *eepromMedium) WriteByte(addr int, b byte) {
	_ = m.dev.WriteByte(uint16(addr), b)
	time.Sleep(5 * time.Millisecond)
}

func (m *eepromMedium) Size() int { return 256 }
