// Package halcore declares the hardware collaborators the control core
// consumes. Platform packages provide real (rp2040) and fake (host)
// implementations behind build tags.
package halcore

import (
	"time"

	"ironcode-go/drivers/analog"
)

// Heater drives the MOSFET PWM. 0 is off, 255 is full power; polarity
// handling (N vs P channel) lives behind this interface.
type Heater interface {
	SetDuty(d uint8)
}

// Button reads the debounced encoder switch level.
type Button interface {
	Pressed() bool
}

// Clock is a free-running millisecond counter; it wraps, and all consumers
// take unsigned deltas.
type Clock interface {
	Millis() uint32
}

// Medium is the byte-addressable persistence device behind the settings/tip
// record. Writes are expected to be slow and wear-limited; the store layer
// only issues them for bytes that changed.
type Medium interface {
	ReadByte(addr int) byte
	WriteByte(addr int, b byte)
	Size() int
}

// Resources bundles everything the station needs from the board.
type Resources struct {
	Conv   analog.Converter
	Wait   func(time.Duration) // low-power wait primitive
	Heater Heater
	Button Button
	Clock  Clock
	Medium Medium

	// AttachEncoder registers the phase-edge interrupt handler and returns
	// the pins' current levels for priming the decoder.
	AttachEncoder func(edge func(a, b bool)) (a, b bool)
}
