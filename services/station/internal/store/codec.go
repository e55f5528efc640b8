package store

import "ironcode-go/types"

// Ident marks a medium written by this firmware. A mismatch on load means
// the medium is blank or foreign, and defaults are written back.
const Ident uint16 = 0xE76C

// Fixed record offsets (big-endian where multi-byte).
const (
	offIdent       = 0
	offDefaultTemp = 2
	offSleepTemp   = 4
	offBoostTemp   = 6
	offSleepMin    = 7
	offOffMin      = 8
	offBoostSec    = 9
	offMainScreen  = 10
	offPIDEnabled  = 11
	offBeep        = 12
	offScreenFlip  = 13
	offECReverse   = 14
	offCurrentTip  = 15
	offTipCount    = 16
	offTips        = 17

	tipRecordLen = types.TipNameLen + 4*2
)

// Load reads the record. On an identifier mismatch the store resets to
// defaults and immediately persists them, so the medium is valid from then
// on. Counts and indices are clamped back into their invariants in case the
// medium was written by a newer, larger layout.
func (s *Store) Load() {
	ident := uint16(s.medium.ReadByte(offIdent))<<8 | uint16(s.medium.ReadByte(offIdent+1))
	if ident != Ident {
		s.reset()
		s.Persist()
		return
	}

	s.Settings.DefaultTemp = s.readU16(offDefaultTemp)
	s.Settings.SleepTemp = s.readU16(offSleepTemp)
	s.Settings.BoostTemp = s.medium.ReadByte(offBoostTemp)
	s.Settings.SleepMinutes = s.medium.ReadByte(offSleepMin)
	s.Settings.OffMinutes = s.medium.ReadByte(offOffMin)
	s.Settings.BoostSeconds = s.medium.ReadByte(offBoostSec)
	s.Settings.MainScreen = s.medium.ReadByte(offMainScreen)
	s.Settings.PIDEnabled = s.medium.ReadByte(offPIDEnabled) != 0
	s.Settings.BeepEnabled = s.medium.ReadByte(offBeep) != 0
	s.Settings.ScreenFlip = s.medium.ReadByte(offScreenFlip) != 0
	s.Settings.EncoderReverse = s.medium.ReadByte(offECReverse) != 0

	s.current = s.medium.ReadByte(offCurrentTip)
	s.count = s.medium.ReadByte(offTipCount)
	if s.count == 0 {
		s.count = 1
		s.tips[0] = types.DefaultTip()
	}
	if int(s.count) > types.TipCapacity {
		s.count = types.TipCapacity
	}
	if s.current >= s.count {
		s.current = 0
	}

	addr := offTips
	for i := 0; i < int(s.count); i++ {
		for j := 0; j < types.TipNameLen; j++ {
			s.tips[i].Name[j] = s.medium.ReadByte(addr)
			addr++
		}
		for j := 0; j < 4; j++ {
			s.tips[i].Cal[j] = uint16(s.medium.ReadByte(addr))<<8 | uint16(s.medium.ReadByte(addr+1))
			addr += 2
		}
	}
}

// Persist writes the whole record through the change guard, so an
// unmodified store costs zero medium writes.
func (s *Store) Persist() {
	s.writeU16(offIdent, Ident)
	s.writeU16(offDefaultTemp, s.Settings.DefaultTemp)
	s.writeU16(offSleepTemp, s.Settings.SleepTemp)
	s.update(offBoostTemp, s.Settings.BoostTemp)
	s.update(offSleepMin, s.Settings.SleepMinutes)
	s.update(offOffMin, s.Settings.OffMinutes)
	s.update(offBoostSec, s.Settings.BoostSeconds)
	s.update(offMainScreen, s.Settings.MainScreen)
	s.update(offPIDEnabled, flag(s.Settings.PIDEnabled))
	s.update(offBeep, flag(s.Settings.BeepEnabled))
	s.update(offScreenFlip, flag(s.Settings.ScreenFlip))
	s.update(offECReverse, flag(s.Settings.EncoderReverse))
	s.update(offCurrentTip, s.current)
	s.update(offTipCount, s.count)

	addr := offTips
	for i := 0; i < int(s.count); i++ {
		for j := 0; j < types.TipNameLen; j++ {
			s.update(addr, s.tips[i].Name[j])
			addr++
		}
		for j := 0; j < 4; j++ {
			s.update(addr, byte(s.tips[i].Cal[j]>>8))
			s.update(addr+1, byte(s.tips[i].Cal[j]))
			addr += 2
		}
	}
}

func (s *Store) readU16(addr int) uint16 {
	return uint16(s.medium.ReadByte(addr))<<8 | uint16(s.medium.ReadByte(addr+1))
}

func (s *Store) writeU16(addr int, v uint16) {
	s.update(addr, byte(v>>8))
	s.update(addr+1, byte(v))
}

// update is the wear guard: only bytes that differ are rewritten.
func (s *Store) update(addr int, b byte) {
	if s.medium.ReadByte(addr) != b {
		s.medium.WriteByte(addr, b)
	}
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
