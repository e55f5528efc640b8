package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinygo.org/x/drivers/ssd1306"

	"ironcode-go/bus"
	"ironcode-go/services/station"
	"ironcode-go/types"
)

func TestRowsNormal(t *testing.T) {
	rows := Rows(types.Snapshot{
		Mode:       types.ModeNormal,
		TipName:    "WMRT",
		TipPresent: true,
		ShownTemp:  318,
		Setpoint:   320,
		Worky:      true,
		Duty:       51,
		VinMilliV:  16791,
	})
	assert.Equal(t, "WMRT      normal", rows[0])
	assert.Equal(t, "tip 318C", rows[1])
	assert.Equal(t, "set 320C  ok", rows[2])
	assert.Equal(t, "in 16.7V  pwr 20%", rows[3])
}

func TestRowsNoTip(t *testing.T) {
	rows := Rows(types.Snapshot{Mode: types.ModeOff, TipName: "WMRT", TipPresent: false})
	assert.Equal(t, "no tip", rows[1])
}

func TestRowsOff(t *testing.T) {
	rows := Rows(types.Snapshot{Mode: types.ModeOff, TipName: "WMRT", TipPresent: true})
	assert.Equal(t, "off", rows[1])
}

// fakeScreen captures the rendered rows.
type fakeScreen struct {
	mu      sync.Mutex
	rows    [4]string
	flushes int
}

func (s *fakeScreen) Clear() {
	s.mu.Lock()
	s.rows = [4]string{}
	s.mu.Unlock()
}

func (s *fakeScreen) WriteLine(row int, text string) {
	s.mu.Lock()
	s.rows[row] = text
	s.mu.Unlock()
}

func (s *fakeScreen) Flush() {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
}

func (s *fakeScreen) snapshot() ([4]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.flushes
}

func TestRunRendersRetainedSnapshot(t *testing.T) {
	b := bus.NewBus(8)
	core := b.NewConnection("core")
	core.Publish(core.NewMessage(station.TopicState, types.Snapshot{
		Mode:       types.ModeSleep,
		TipName:    "WMRP",
		TipPresent: true,
		ShownTemp:  150,
		Setpoint:   150,
	}, true))

	screen := &fakeScreen{}
	ctx, cancel := context.WithCancel(context.Background())
	go Run(ctx, b.NewConnection("display"), screen)

	require.Eventually(t, func() bool { _, n := screen.snapshot(); return n > 0 },
		time.Second, 5*time.Millisecond)
	cancel()
	rows, _ := screen.snapshot()
	assert.Equal(t, "WMRP      sleep", rows[0])
	assert.Equal(t, "tip 150C", rows[1])
}

// recordingI2C counts transactions so the panel binding can be exercised
// without hardware.
type recordingI2C struct{ tx int }

func (r *recordingI2C) Tx(uint16, []byte, []byte) error {
	r.tx++
	return nil
}

func TestOLEDBindingDrivesPanel(t *testing.T) {
	bus := &recordingI2C{}
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{Width: 128, Height: 64, Address: 0x3C})

	o := NewOLED(dev)
	o.Clear()
	o.WriteLine(0, "WMRT")
	o.Flush()
	assert.Greater(t, bus.tx, 0, "flush must reach the panel")
}
