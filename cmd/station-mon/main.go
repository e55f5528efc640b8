//go:build !rp2040 && !rp2350

// station-mon attaches to a station's telemetry UART, prints the state and
// notify stream, and turns console commands into control frames.
//
// Commands:
//
//	set <temp>        change the working temperature
//	select <index>    switch tip profile
//	add <name>        add a tip profile
//	rename <name>     rename the selected profile
//	cal <p1> <p2> <p3> calibrate the selected profile
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"ironcode-go/services/telemetry"
	"ironcode-go/types"
)

func main() {
	port := flag.String("port", "/dev/ttyACM0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	flag.Parse()

	sp, err := serial.Open(*port, &serial.Mode{BaudRate: *baud})
	if err != nil {
		fmt.Fprintln(os.Stderr, "station-mon:", err)
		os.Exit(1)
	}
	defer sp.Close()

	go readCommands(telemetry.NewFrameWriter(sp))

	rd := telemetry.NewFrameReader(sp)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			fmt.Fprintln(os.Stderr, "station-mon: link:", err)
			os.Exit(1)
		}
		switch f.Type {
		case telemetry.FrameState:
			var snap types.Snapshot
			if json.Unmarshal(f.Payload, &snap) == nil {
				fmt.Printf("\r[%s] set %d°C  tip %d°C  duty %d  vin %dmV   ",
					snap.Mode, snap.Setpoint, snap.ShownTemp, snap.Duty, snap.VinMilliV)
			}
		case telemetry.FrameNotify:
			var ev types.NotifyEvent
			if json.Unmarshal(f.Payload, &ev) == nil {
				fmt.Printf("\n[notify] %s\n", ev.Reason)
			}
		case telemetry.FramePing:
			// keepalive
		}
	}
}

func readCommands(wr interface{ WriteFrame(telemetry.Frame) error }) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		f, err := parseCommand(sc.Text())
		if err != nil {
			fmt.Fprintln(os.Stderr, "station-mon:", err)
			continue
		}
		if f == nil {
			continue
		}
		raw, _ := json.Marshal(f)
		if err := wr.WriteFrame(telemetry.Frame{Type: telemetry.FrameControl, Payload: raw}); err != nil {
			fmt.Fprintln(os.Stderr, "station-mon: write:", err)
			return
		}
	}
}

func parseCommand(line string) (*telemetry.ControlFrame, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case "set":
		v, err := atoiArg(fields, 1)
		if err != nil {
			return nil, err
		}
		return &telemetry.ControlFrame{Verb: "setpoint", Temp: uint16(v)}, nil
	case "select":
		v, err := atoiArg(fields, 1)
		if err != nil {
			return nil, err
		}
		return &telemetry.ControlFrame{Verb: "tip_select", Index: uint8(v)}, nil
	case "add":
		if len(fields) < 2 {
			return nil, fmt.Errorf("add needs a name")
		}
		return &telemetry.ControlFrame{Verb: "tip_add", Name: fields[1]}, nil
	case "rename":
		if len(fields) < 2 {
			return nil, fmt.Errorf("rename needs a name")
		}
		return &telemetry.ControlFrame{Verb: "tip_rename", Name: fields[1]}, nil
	case "cal":
		if len(fields) != 4 {
			return nil, fmt.Errorf("cal needs three points")
		}
		var pts [3]uint16
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, err
			}
			pts[i] = uint16(v)
		}
		return &telemetry.ControlFrame{Verb: "tip_calibrate", Points: pts}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func atoiArg(fields []string, i int) (int, error) {
	if len(fields) <= i {
		return 0, fmt.Errorf("%s needs a value", fields[0])
	}
	return strconv.Atoi(fields[i])
}
