package station

import (
	"time"

	"ironcode-go/drivers/analog"
	"ironcode-go/services/station/internal/thermo"
	"ironcode-go/types"
)

// Acquisition requests. The tip sense shares the heater output stage, so
// the heater is parked and the input left to settle before the burst; the
// other channels tolerate an immediate read.
var (
	reqTip = analog.Request{
		Channel: analog.ChanTip,
		Ref:     analog.RefInternal,
		Count:   32,
		Settle:  types.SettleMicros * time.Microsecond,
	}
	reqPresence = analog.Request{Channel: analog.ChanPresence, Count: 32}
	reqColdJ    = analog.Request{Channel: analog.ChanColdJ, Ref: analog.RefInternal, Count: 32}
	reqVin      = analog.Request{Channel: analog.ChanVin, Count: 32}
	reqChip     = analog.Request{Channel: analog.ChanChip, Ref: analog.RefInternal, Count: 32}
	// Bandgap against the rail wants extra settle for the reference mux.
	reqVcc = analog.Request{
		Channel: analog.ChanVcc,
		Count:   16,
		Settle:  types.SettleMicros * time.Microsecond,
	}
)

// refreshAux re-reads the slow-moving channels: cold junction, supply rail
// and input voltage. Runs on the rollover tick, not every cycle.
func (s *Service) refreshAux() {
	s.coldJC = thermo.ColdJunctionC(s.sampler.Sample(reqColdJ))
	s.vccMilliV = thermo.VccMilliV(s.sampler.Sample(reqVcc))
	s.vinMilliV = thermo.VinMilliV(s.sampler.Sample(reqVin), s.vccMilliV)
}

// chipTempC reads the internal die temperature, used as the cold-junction
// stand-in recorded with a calibration.
func (s *Service) chipTempC() float32 {
	return thermo.ChipTempC(s.sampler.SampleSum(reqChip))
}
