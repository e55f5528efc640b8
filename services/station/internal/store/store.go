// Package store owns the persisted user record: settings plus the ordered
// tip profile collection. Mutations are in-memory and validated; nothing
// touches the medium until the explicit Persist commit boundary.
package store

import (
	"ironcode-go/errcode"
	"ironcode-go/services/station/internal/halcore"
	"ironcode-go/types"
)

// Store is never empty: it always holds at least one profile and the
// selection index always points inside the live range.
type Store struct {
	medium halcore.Medium

	Settings types.Settings
	tips     [types.TipCapacity]types.TipProfile
	count    uint8
	current  uint8
}

func New(m halcore.Medium) *Store {
	s := &Store{medium: m}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.Settings = types.DefaultSettings()
	s.tips = [types.TipCapacity]types.TipProfile{}
	s.tips[0] = types.DefaultTip()
	s.count = 1
	s.current = 0
}

// TipCount returns the number of live profiles.
func (s *Store) TipCount() int { return int(s.count) }

// CurrentIndex returns the selection index.
func (s *Store) CurrentIndex() int { return int(s.current) }

// CurrentTip returns the selected profile. The pointer stays valid until
// the next Delete compaction; callers must not retain it across mutations.
func (s *Store) CurrentTip() *types.TipProfile { return &s.tips[s.current] }

// TipName returns the display name of profile i, or "" out of range.
func (s *Store) TipName(i int) string {
	if i < 0 || i >= int(s.count) {
		return ""
	}
	return s.tips[i].NameString()
}

// SelectTip switches the selection.
func (s *Store) SelectTip(i int) error {
	if i < 0 || i >= int(s.count) {
		return errcode.UnknownTip
	}
	s.current = uint8(i)
	return nil
}

// AddTip appends a profile seeded with the default calibration constants
// and selects it. The naming flow supplies the name.
func (s *Store) AddTip(name string) error {
	if int(s.count) == types.TipCapacity {
		return errcode.TipStoreFull
	}
	tip := types.DefaultTip()
	tip.SetName(name)
	s.tips[s.count] = tip
	s.current = s.count
	s.count++
	return nil
}

// DeleteTip removes the current selection, compacting later entries
// leftward. Deleting the sole remaining profile is rejected.
func (s *Store) DeleteTip() error {
	if s.count == 1 {
		return errcode.LastTip
	}
	if s.current == s.count-1 {
		s.current--
	} else {
		copy(s.tips[s.current:s.count-1], s.tips[s.current+1:s.count])
	}
	s.count--
	s.tips[s.count] = types.TipProfile{}
	return nil
}

// RenameTip overwrites the current profile's name; only length truncation
// is applied.
func (s *Store) RenameTip(name string) {
	s.tips[s.current].SetName(name)
}

// Calibrate validates the three candidate points (strictly increasing with
// a minimum gap of 10) and, on success, stores them together with the chip
// temperature at calibration time. A rejected candidate leaves the profile
// untouched.
func (s *Store) Calibrate(points [3]uint16, chipTemp uint16) error {
	// Compare widened: near-ceiling points must not wrap the +10 into a
	// small value and slip past the ordering check.
	if int(points[0])+10 >= int(points[1]) || int(points[1])+10 >= int(points[2]) {
		return errcode.InvalidCalibration
	}
	tip := &s.tips[s.current]
	tip.Cal[0] = points[0]
	tip.Cal[1] = points[1]
	tip.Cal[2] = points[2]
	tip.Cal[3] = chipTemp
	return nil
}

// UpdateSettings replaces the settings block in memory. Takes effect on the
// next Persist like every other mutation.
func (s *Store) UpdateSettings(v types.Settings) {
	s.Settings = v
}
