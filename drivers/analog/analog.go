// Package analog provides noise-reduced averaging over a multiplexed ADC.
// The conversion and wait primitives are injected so host tests and the
// simulator can substitute scripted values for real hardware.
package analog

import "time"

// Channel identifies a multiplexer input.
type Channel uint8

const (
	ChanTip      Channel = iota // tip temperature sense
	ChanVin                     // input voltage divider
	ChanColdJ                   // cold junction sense
	ChanPresence                // handle reed switch
	ChanChip                    // internal chip temperature
	ChanVcc                     // 1.1V bandgap against AVcc
)

// Ref selects the conversion reference.
type Ref uint8

const (
	RefSupply   Ref = iota // supply-rail reference (default)
	RefInternal            // internal bandgap reference
)

// Converter is the hardware collaborator: select an input, then run single
// conversions. Convert is expected to suspend the caller in a low-power wait
// until the conversion completes, which is what keeps the samples quiet.
type Converter interface {
	Select(ch Channel, ref Ref)
	Convert() uint16
}

// Request describes one acquisition burst. Count must be a power of two
// (16 or 32 in this system) so the average is a plain right shift.
type Request struct {
	Channel Channel
	Ref     Ref
	Count   uint16
	Settle  time.Duration // wait after Select before the first conversion
}

// Sampler runs acquisition bursts against a Converter.
type Sampler struct {
	conv Converter
	wait func(time.Duration)
}

// New builds a sampler. A nil wait falls back to time.Sleep.
func New(conv Converter, wait func(time.Duration)) *Sampler {
	if wait == nil {
		wait = time.Sleep
	}
	return &Sampler{conv: conv, wait: wait}
}

// Sample blocks for the burst duration and returns the mean reading.
// Deterministic, bounded latency; no cancellation, a burst always runs to
// completion.
func (s *Sampler) Sample(req Request) uint16 {
	count := req.Count
	if count == 0 {
		count = 32
	}
	s.conv.Select(req.Channel, req.Ref)
	if req.Settle > 0 {
		s.wait(req.Settle)
	}
	var sum uint32
	for i := uint16(0); i < count; i++ {
		sum += uint32(s.conv.Convert())
	}
	return uint16(sum >> log2(count))
}

// SampleSum is Sample without the final average, for conversions whose
// calibration formula wants a partially reduced sum (chip temperature).
func (s *Sampler) SampleSum(req Request) uint32 {
	count := req.Count
	if count == 0 {
		count = 32
	}
	s.conv.Select(req.Channel, req.Ref)
	if req.Settle > 0 {
		s.wait(req.Settle)
	}
	var sum uint32
	for i := uint16(0); i < count; i++ {
		sum += uint32(s.conv.Convert())
	}
	return sum
}

func log2(v uint16) uint {
	var n uint
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
