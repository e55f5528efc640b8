//go:build !rp2040 && !rp2350

// station-sim runs the control core against simulated hardware, driven by a
// YAML scenario of sensor changes and user actions. Useful for exercising
// mode transitions and control behaviour without a board.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ironcode-go/bus"
	"ironcode-go/drivers/analog"
	"ironcode-go/services/display"
	"ironcode-go/services/station"
	"ironcode-go/services/station/platform"
)

// Step is one timed scenario action. Unset fields are left alone.
type Step struct {
	AtMs     int     `yaml:"at_ms"`
	Presence *uint16 `yaml:"presence,omitempty"`
	TipRaw   *uint16 `yaml:"tip_raw,omitempty"`
	Vin      *uint16 `yaml:"vin,omitempty"`
	ButtonMs *int    `yaml:"button_ms,omitempty"`
	Turn     *int    `yaml:"turn,omitempty"` // encoder detents, signed
}

type Scenario struct {
	DurationMs int    `yaml:"duration_ms"`
	Steps      []Step `yaml:"steps"`
}

func defaultScenario() Scenario {
	hand, stand := uint16(100), uint16(10)
	turn := 2
	press := 100
	return Scenario{
		DurationMs: 15000,
		Steps: []Step{
			{AtMs: 0, Presence: &hand},
			{AtMs: 3000, Turn: &turn},        // 320 -> 340
			{AtMs: 6000, ButtonMs: &press},   // boost
			{AtMs: 10000, Presence: &stand},  // back in the stand
		},
	}
}

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario file (omit for the built-in demo)")
	flag.Parse()

	sc := defaultScenario()
	if *scenarioPath != "" {
		raw, err := os.ReadFile(*scenarioPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "station-sim:", err)
			os.Exit(1)
		}
		sc = Scenario{}
		if err := yaml.Unmarshal(raw, &sc); err != nil {
			fmt.Fprintln(os.Stderr, "station-sim: bad scenario:", err)
			os.Exit(1)
		}
	}

	board := platform.NewSimBoard()
	b := bus.NewBus(16)
	svc := station.New(b, board.Resources(), station.StrategyLinearFixed)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(sc.DurationMs)*time.Millisecond)
	defer cancel()

	go svc.Run(ctx)
	go display.Run(ctx, b.NewConnection("display"), &consoleScreen{})
	go printNotifies(ctx, b)
	go thermalModel(ctx, board)

	start := time.Now()
	for _, step := range sc.Steps {
		wait := time.Duration(step.AtMs)*time.Millisecond - time.Since(start)
		if wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
		apply(board, step)
	}
	<-ctx.Done()
}

func apply(board *platform.SimBoard, s Step) {
	if s.Presence != nil {
		board.Conv.Set(analog.ChanPresence, *s.Presence)
	}
	if s.TipRaw != nil {
		board.Conv.Set(analog.ChanTip, *s.TipRaw)
	}
	if s.Vin != nil {
		board.Conv.Set(analog.ChanVin, *s.Vin)
	}
	if s.Turn != nil {
		board.Encoder.Turn(*s.Turn)
	}
	if s.ButtonMs != nil {
		board.Button.Press()
		go func(hold time.Duration) {
			time.Sleep(hold)
			board.Button.Release()
		}(time.Duration(*s.ButtonMs) * time.Millisecond)
	}
}

// thermalModel moves the scripted tip reading toward the applied power: a
// first-order lag so duty changes show up as plausible temperature ramps.
func thermalModel(ctx context.Context, board *platform.SimBoard) {
	const ambient = 60
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			raw := float32(board.Conv.Get(analog.ChanTip))
			duty := float32(board.Heater.Duty())
			raw += duty*0.05 - (raw-ambient)*0.01
			if raw < 0 {
				raw = 0
			}
			board.Conv.Set(analog.ChanTip, uint16(raw))
		}
	}
}

// consoleScreen prints the four display rows as a single status line.
type consoleScreen struct {
	rows [4]string
	last time.Time
}

func (c *consoleScreen) Clear()                         { c.rows = [4]string{} }
func (c *consoleScreen) WriteLine(row int, text string) { c.rows[row] = text }

func (c *consoleScreen) Flush() {
	if time.Since(c.last) < 200*time.Millisecond {
		return
	}
	c.last = time.Now()
	fmt.Printf("\r%-18s | %-10s | %-14s | %s", c.rows[0], c.rows[1], c.rows[2], c.rows[3])
}

func printNotifies(ctx context.Context, b *bus.Bus) {
	sub := b.NewConnection("notify-printer").Subscribe(station.TopicNotify)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			fmt.Printf("\n[notify] %v\n", msg.Payload)
		}
	}
}
