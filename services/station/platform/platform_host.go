//go:build !rp2040 && !rp2350

// Host-side resource factory: everything the control core touches is backed
// by in-memory fakes, so the simulator and tests run without hardware.
package platform

import (
	"sync"
	"time"

	"ironcode-go/drivers/analog"
	"ironcode-go/services/station/internal/halcore"
)

// SimConverter implements analog.Converter with per-channel scripted values.
// Safe for concurrent Set while the control loop samples.
type SimConverter struct {
	mu   sync.Mutex
	sel  analog.Channel
	vals map[analog.Channel]uint16
}

func NewSimConverter() *SimConverter {
	return &SimConverter{vals: map[analog.Channel]uint16{
		analog.ChanTip:      60, // cold tip
		analog.ChanPresence: 100,
		analog.ChanColdJ:    154,
		analog.ChanVin:      600,
		analog.ChanVcc:      224,
		analog.ChanChip:     360,
	}}
}

func (c *SimConverter) Select(ch analog.Channel, _ analog.Ref) {
	c.mu.Lock()
	c.sel = ch
	c.mu.Unlock()
}

func (c *SimConverter) Convert() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vals[c.sel]
}

// Set scripts the next readings of one channel.
func (c *SimConverter) Set(ch analog.Channel, v uint16) {
	c.mu.Lock()
	c.vals[ch] = v
	c.mu.Unlock()
}

// Get returns the current scripted value of one channel.
func (c *SimConverter) Get(ch analog.Channel) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vals[ch]
}

// SimHeater records the last duty so the simulator can model heating.
type SimHeater struct {
	mu   sync.Mutex
	duty uint8
}

func (h *SimHeater) SetDuty(d uint8) {
	h.mu.Lock()
	h.duty = d
	h.mu.Unlock()
}

func (h *SimHeater) Duty() uint8 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duty
}

// SimButton is a settable switch level.
type SimButton struct {
	mu    sync.Mutex
	level bool
}

func (b *SimButton) Press()   { b.mu.Lock(); b.level = true; b.mu.Unlock() }
func (b *SimButton) Release() { b.mu.Lock(); b.level = false; b.mu.Unlock() }
func (b *SimButton) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}

// SimClock wraps the wall clock into the wrapping millisecond counter the
// core expects.
type SimClock struct{ start time.Time }

func NewSimClock() *SimClock { return &SimClock{start: time.Now()} }

func (c *SimClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

// SimMedium is a RAM persistence device.
type SimMedium struct {
	mu   sync.Mutex
	data [512]byte
}

func (m *SimMedium) ReadByte(addr int) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[addr]
}

func (m *SimMedium) WriteByte(addr int, b byte) {
	m.mu.Lock()
	m.data[addr] = b
	m.mu.Unlock()
}

func (m *SimMedium) Size() int { return len(m.data) }

// SimEncoder feeds phase edges into the attached handler, emulating detents.
type SimEncoder struct {
	mu   sync.Mutex
	edge func(a, b bool)
	a, b bool
}

func (e *SimEncoder) attach(edge func(a, b bool)) (bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edge = edge
	return e.a, e.b
}

// Turn emulates detents: positive clockwise, negative counter-clockwise.
func (e *SimEncoder) Turn(detents int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.edge == nil {
		return
	}
	cw := detents > 0
	n := detents
	if n < 0 {
		n = -n
	}
	for i := 0; i < n; i++ {
		// A counted event needs both phases to change; its direction is
		// the phase relation afterwards. Realign with a lone A edge first
		// (ignored by the decoder), then flip both.
		if (e.a == e.b) != cw {
			e.a = !e.a
			e.edge(e.a, e.b)
		}
		e.a, e.b = !e.a, !e.b
		e.edge(e.a, e.b)
	}
}

// SimBoard bundles the host fakes behind one handle.
type SimBoard struct {
	Conv    *SimConverter
	Heater  *SimHeater
	Button  *SimButton
	Clock   *SimClock
	Medium  *SimMedium
	Encoder *SimEncoder
}

func NewSimBoard() *SimBoard {
	return &SimBoard{
		Conv:    NewSimConverter(),
		Heater:  &SimHeater{},
		Button:  &SimButton{},
		Clock:   NewSimClock(),
		Medium:  &SimMedium{},
		Encoder: &SimEncoder{},
	}
}

// Resources assembles the halcore view over the fakes.
func (b *SimBoard) Resources() halcore.Resources {
	return halcore.Resources{
		Conv:          b.Conv,
		Wait:          time.Sleep,
		Heater:        b.Heater,
		Button:        b.Button,
		Clock:         b.Clock,
		Medium:        b.Medium,
		AttachEncoder: b.Encoder.attach,
	}
}
