// Package station is the control core: it samples the sensors, derives the
// operating mode, runs the thermostat and publishes its state over the bus.
// Display, buzzer and telemetry are bus collaborators, never direct calls.
package station

import (
	"context"
	"time"

	"ironcode-go/bus"
	"ironcode-go/drivers/analog"
	"ironcode-go/drivers/quadrature"
	"ironcode-go/errcode"
	"ironcode-go/services/station/internal/halcore"
	"ironcode-go/services/station/internal/modes"
	"ironcode-go/services/station/internal/store"
	"ironcode-go/services/station/internal/thermo"
	"ironcode-go/services/station/internal/thermostat"
	"ironcode-go/types"
	"ironcode-go/x/mathx"
	"ironcode-go/x/timex"
)

// tickInterval paces the control loop. Sampling dominates each tick; the
// wait is only there to yield the core.
const tickInterval = 10 * time.Millisecond

// Strategy re-exports the estimator strategy so binaries can pick one
// without reaching into internal packages.
type Strategy = thermo.Strategy

const (
	StrategyLinearFixed         = thermo.StrategyLinearFixed
	StrategyPiecewiseCalibrated = thermo.StrategyPiecewiseCalibrated
)

// Service owns the whole control loop. Single-goroutine: every field below
// is touched only from Run, except the encoder's atomic cells.
type Service struct {
	conn    *bus.Connection
	res     halcore.Resources
	sampler *analog.Sampler

	store      *store.Store
	machine    *modes.Machine
	estimator  *thermo.Estimator
	controller *thermostat.Controller
	encoder    *quadrature.Decoder

	userTemp     uint16
	lastSetpoint uint16
	tick         uint8 // rollover counter gating the slow channels

	coldJC    float32
	vccMilliV uint32
	vinMilliV uint32

	suspended     bool
	faultNotified bool
}

// New loads the persisted record, wires the encoder with the stored
// direction preference and primes the estimator. The heater stays parked
// until the first Run tick.
func New(b *bus.Bus, res halcore.Resources, strategy thermo.Strategy) *Service {
	s := &Service{
		conn:       b.NewConnection("station"),
		res:        res,
		sampler:    analog.New(res.Conv, res.Wait),
		machine:    modes.New(),
		estimator:  thermo.New(strategy),
		controller: thermostat.New(),
	}
	s.store = store.New(res.Medium)
	s.store.Load()

	s.userTemp = mathx.Clamp(s.store.Settings.DefaultTemp, types.TempMin, types.TempMax)

	// The direction preference is baked into the decoder, so it takes
	// effect on the next boot after a settings change.
	s.encoder = quadrature.New(quadrature.Config{Reverse: s.store.Settings.EncoderReverse})
	a, bLevel := res.AttachEncoder(s.encoder.Edge)
	s.encoder.Prime(a, bLevel)
	s.encoder.SetRange(int(types.TempMin), int(types.TempMax), int(types.TempStep), int(s.userTemp))

	s.refreshAux()
	return s
}

// Run drives the control loop until ctx is cancelled. Control messages are
// drained between ticks, so a tick always sees a settled store.
func (s *Service) Run(ctx context.Context) {
	sub := s.conn.Subscribe(topicControlAll)
	defer s.conn.Disconnect()
	defer s.res.Heater.SetDuty(0)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			s.handleControl(msg)
			continue
		default:
		}
		s.step()
		s.res.Wait(tickInterval)
	}
}

// step is one control tick: sample, estimate, derive mode, drive, publish.
func (s *Service) step() {
	now := s.res.Clock.Millis()

	// The tip sense rides the heater output stage: park it and let the
	// input settle before the temperature burst.
	s.res.Heater.SetDuty(0)
	presence := s.sampler.Sample(reqPresence)
	raw := s.sampler.Sample(reqTip)

	s.tick++
	if s.tick == 0 {
		s.refreshAux()
	}

	current := s.estimator.Update(raw, s.coldJC, s.store.CurrentTip())

	if !s.suspended {
		s.userTemp = uint16(s.encoder.Read())
	}

	ev := s.machine.Update(modes.Inputs{
		Presence: presence,
		Button:   s.res.Button.Pressed(),
		NowMs:    now,
	}, &s.store.Settings)
	s.dispatchEvents(ev)

	setpoint := s.machine.Setpoint(s.userTemp, &s.store.Settings)
	if setpoint != s.lastSetpoint {
		s.lastSetpoint = setpoint
		s.controller.Arm()
	}

	duty := uint8(0)
	if !s.suspended {
		duty = s.controller.Duty(thermostat.Inputs{
			Setpoint:   setpoint,
			Current:    current,
			VinMilliV:  s.vinMilliV,
			PIDEnabled: s.store.Settings.PIDEnabled,
			NowMs:      now,
		})
	}
	s.res.Heater.SetDuty(duty)

	shown := s.estimator.Shown(setpoint)
	if setpoint > 0 && s.controller.AtTarget(shown, setpoint) {
		s.notify("worky")
	}
	s.checkFault(current)

	s.conn.Publish(s.conn.NewMessage(TopicState, types.Snapshot{
		Mode:       s.machine.Mode(),
		Setpoint:   setpoint,
		UserTemp:   s.userTemp,
		ShownTemp:  shown,
		RawADC:     s.estimator.Raw(),
		Duty:       duty,
		Worky:      s.controller.Worky(),
		TipPresent: s.machine.TipPresent(),
		TipName:    s.store.CurrentTip().NameString(),
		VinMilliV:  s.vinMilliV,
		VccMilliV:  s.vccMilliV,
		TSms:       timex.NowMs(),
	}, true))
}

func (s *Service) dispatchEvents(ev modes.Events) {
	if ev.ButtonDown && s.store.Settings.BeepEnabled {
		s.notify("button")
	}
	if ev.SetupRequest {
		s.notify("setup")
	}
	if ev.BoostStarted || ev.BoostEnded {
		// Both transitions retarget the thermostat; arriving at the new
		// setpoint deserves a fresh one-shot signal.
		s.controller.Arm()
	}
	if ev.BoostEnded {
		s.notify("boost_end")
	}
}

// checkFault latches a single notification per fault episode. The heater
// gate itself lives in the thermostat; this is only the feedback signal.
func (s *Service) checkFault(current float32) {
	if current > float32(types.FaultTemp) {
		if !s.faultNotified {
			s.faultNotified = true
			s.notify("fault")
		}
		return
	}
	s.faultNotified = false
}

func (s *Service) notify(reason string) {
	s.conn.Publish(s.conn.NewMessage(TopicNotify, types.NotifyEvent{Reason: reason}, false))
}

// ---- Control surface ----

func (s *Service) handleControl(msg *bus.Message) {
	verb := msg.Topic[len(msg.Topic)-1]
	var err error
	switch verb {
	case verbSetpoint:
		err = s.handleSetpoint(msg.Payload)
	case verbSettings:
		err = s.handleSettings(msg.Payload)
	case verbTipAdd:
		err = s.handleTipAdd(msg.Payload)
	case verbTipDelete:
		err = s.store.DeleteTip()
	case verbTipRename:
		err = s.handleTipRename(msg.Payload)
	case verbTipSelect:
		err = s.handleTipSelect(msg.Payload)
	case verbTipCalibrate:
		err = s.handleTipCalibrate(msg.Payload)
	case verbSuspend:
		s.suspended = true
		s.res.Heater.SetDuty(0)
	case verbResume:
		s.suspended = false
	case verbCommit:
		s.store.Persist()
	default:
		err = errcode.Unsupported
	}

	if err != nil {
		s.conn.Reply(msg, types.ErrorReply{Error: err.Error()}, false)
		return
	}
	s.conn.Reply(msg, types.OKReply{OK: true}, false)
}

func (s *Service) handleSetpoint(payload any) error {
	p, ok := payload.(types.SetpointSet)
	if !ok {
		return errcode.InvalidParams
	}
	if p.Temp < types.TempMin || p.Temp > types.TempMax {
		return errcode.InvalidParams
	}
	s.userTemp = p.Temp
	s.encoder.SetRange(int(types.TempMin), int(types.TempMax), int(types.TempStep), int(p.Temp))
	return nil
}

func (s *Service) handleSettings(payload any) error {
	p, ok := payload.(types.SettingsUpdate)
	if !ok {
		return errcode.InvalidParams
	}
	if p.Settings.DefaultTemp < types.TempMin || p.Settings.DefaultTemp > types.TempMax ||
		p.Settings.SleepTemp < 20 || p.Settings.SleepTemp > types.TempMax {
		return errcode.InvalidParams
	}
	s.store.UpdateSettings(p.Settings)
	return nil
}

func (s *Service) handleTipAdd(payload any) error {
	p, ok := payload.(types.TipAdd)
	if !ok || p.Name == "" {
		return errcode.InvalidParams
	}
	if err := s.store.AddTip(p.Name); err != nil {
		return err
	}
	s.estimator.Reset(s.estimator.Raw())
	return nil
}

func (s *Service) handleTipRename(payload any) error {
	p, ok := payload.(types.TipRename)
	if !ok || p.Name == "" {
		return errcode.InvalidParams
	}
	s.store.RenameTip(p.Name)
	return nil
}

func (s *Service) handleTipSelect(payload any) error {
	p, ok := payload.(types.TipSelect)
	if !ok {
		return errcode.InvalidParams
	}
	if err := s.store.SelectTip(int(p.Index)); err != nil {
		return err
	}
	// A different tip means a different thermal history.
	s.estimator.Reset(s.estimator.Raw())
	return nil
}

// handleTipCalibrate records the candidate points together with the die
// temperature measured right now. The mode reads Calibration for the
// duration of the measurement so observers can tell it apart.
func (s *Service) handleTipCalibrate(payload any) error {
	p, ok := payload.(types.TipCalibrate)
	if !ok {
		return errcode.InvalidParams
	}
	s.machine.SetCalibration(true)
	chip := s.chipTempC()
	err := s.store.Calibrate(p.Points, uint16(chip))
	s.machine.SetCalibration(false)
	return err
}

// Store exposes the persisted record for host tooling (simulator menus).
func (s *Service) Store() *store.Store { return s.store }
