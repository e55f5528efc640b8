package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironcode-go/errcode"
	"ironcode-go/types"
)

// memMedium is a RAM persistence fake that counts writes, so tests can
// assert the wear guard.
type memMedium struct {
	data   [512]byte
	writes int
}

func (m *memMedium) ReadByte(addr int) byte     { return m.data[addr] }
func (m *memMedium) WriteByte(addr int, b byte) { m.data[addr] = b; m.writes++ }
func (m *memMedium) Size() int                  { return len(m.data) }

func newLoaded(t *testing.T) (*Store, *memMedium) {
	t.Helper()
	m := &memMedium{}
	s := New(m)
	s.Load() // blank medium: writes defaults
	return s, m
}

func TestLoadBlankMediumWritesDefaults(t *testing.T) {
	s, m := newLoaded(t)

	assert.Equal(t, 1, s.TipCount())
	assert.Equal(t, "WMRT", s.TipName(0))
	assert.Equal(t, types.DefaultSettings(), s.Settings)
	assert.Greater(t, m.writes, 0, "defaults must be persisted")

	// The identifier is now in place.
	assert.Equal(t, byte(Ident>>8), m.data[0])
	assert.Equal(t, byte(Ident&0xFF), m.data[1])
}

func TestAddTipCapacity(t *testing.T) {
	s, _ := newLoaded(t)
	for i := s.TipCount(); i < types.TipCapacity; i++ {
		require.NoError(t, s.AddTip(fmt.Sprintf("T%d", i)))
	}
	require.Equal(t, types.TipCapacity, s.TipCount())

	err := s.AddTip("NINTH")
	assert.Equal(t, errcode.TipStoreFull, err)
	assert.Equal(t, types.TipCapacity, s.TipCount())
}

func TestAddTipSeedsDefaultsAndSelects(t *testing.T) {
	s, _ := newLoaded(t)
	require.NoError(t, s.AddTip("WMRP"))

	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, "WMRP", s.CurrentTip().NameString())
	assert.Equal(t, [4]uint16{216, 308, 390, 30}, s.CurrentTip().Cal)
}

func TestDeleteLastProfileRejected(t *testing.T) {
	s, _ := newLoaded(t)
	err := s.DeleteTip()
	assert.Equal(t, errcode.LastTip, err)
	assert.Equal(t, 1, s.TipCount())
}

func TestDeleteCompactsLeftward(t *testing.T) {
	s, _ := newLoaded(t)
	require.NoError(t, s.AddTip("B"))
	require.NoError(t, s.AddTip("C"))
	require.NoError(t, s.SelectTip(1)) // "B"

	require.NoError(t, s.DeleteTip())
	assert.Equal(t, 2, s.TipCount())
	// Selection stays at the same index, now holding the former follower.
	assert.Equal(t, 1, s.CurrentIndex())
	assert.Equal(t, "C", s.CurrentTip().NameString())
}

func TestDeleteAtEndMovesSelectionBack(t *testing.T) {
	s, _ := newLoaded(t)
	require.NoError(t, s.AddTip("B"))

	// Selection is on the last index after AddTip.
	require.NoError(t, s.DeleteTip())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, "WMRT", s.CurrentTip().NameString())
}

func TestCalibrateValidation(t *testing.T) {
	s, _ := newLoaded(t)
	before := *s.CurrentTip()

	assert.Equal(t, errcode.InvalidCalibration, s.Calibrate([3]uint16{216, 220, 390}, 28))
	assert.Equal(t, errcode.InvalidCalibration, s.Calibrate([3]uint16{216, 308, 315}, 28))
	// Descending candidates whose first point sits near the u16 ceiling
	// must not wrap the gap check into acceptance.
	assert.Equal(t, errcode.InvalidCalibration, s.Calibrate([3]uint16{65530, 30, 50}, 28))
	assert.Equal(t, errcode.InvalidCalibration, s.Calibrate([3]uint16{100, 65530, 40}, 28))
	assert.Equal(t, before, *s.CurrentTip(), "rejected candidates must not touch the profile")

	require.NoError(t, s.Calibrate([3]uint16{216, 308, 390}, 28))
	assert.Equal(t, [4]uint16{216, 308, 390, 28}, s.CurrentTip().Cal)
}

func TestRenameTruncates(t *testing.T) {
	s, _ := newLoaded(t)
	s.RenameTip("LONGNAME")
	assert.Equal(t, "LONGN", s.CurrentTip().NameString())
}

func TestPersistRoundTrip(t *testing.T) {
	s, m := newLoaded(t)

	set := s.Settings
	set.DefaultTemp = 350
	set.SleepTemp = 120
	set.BoostTemp = 60
	set.OffMinutes = 20
	set.PIDEnabled = true
	set.EncoderReverse = true
	s.UpdateSettings(set)
	require.NoError(t, s.AddTip("WMRP"))
	require.NoError(t, s.Calibrate([3]uint16{220, 310, 395}, 31))
	s.Persist()

	fresh := New(m)
	fresh.Load()
	assert.Equal(t, set, fresh.Settings)
	assert.Equal(t, 2, fresh.TipCount())
	assert.Equal(t, 1, fresh.CurrentIndex())
	assert.Equal(t, "WMRP", fresh.CurrentTip().NameString())
	assert.Equal(t, [4]uint16{220, 310, 395, 31}, fresh.CurrentTip().Cal)
	assert.Equal(t, "WMRT", fresh.TipName(0))
}

func TestPersistIsWearGuarded(t *testing.T) {
	s, m := newLoaded(t)
	s.Persist()
	writes := m.writes
	s.Persist()
	assert.Equal(t, writes, m.writes, "unchanged record must cost zero writes")
}

func TestLoadIdentMismatchResets(t *testing.T) {
	m := &memMedium{}
	m.data[0] = 0xAB // garbage identifier
	m.data[1] = 0xCD

	s := New(m)
	s.Load()
	assert.Equal(t, types.DefaultSettings(), s.Settings)
	assert.Equal(t, 1, s.TipCount())
	assert.Equal(t, "WMRT", s.TipName(0))
	assert.Equal(t, byte(Ident>>8), m.data[0])
}
