// Package display renders station state snapshots onto a small character
// screen. It is a pure bus consumer: the control core never calls into it.
package display

import (
	"context"
	"strconv"

	"ironcode-go/bus"
	"ironcode-go/services/station"
	"ironcode-go/types"
)

// Screen is the rendering target: four rows of text.
type Screen interface {
	Clear()
	WriteLine(row int, text string)
	Flush()
}

// Rows returns the four display lines for a snapshot.
func Rows(s types.Snapshot) [4]string {
	var rows [4]string
	rows[0] = pad(s.TipName, 10) + s.Mode.String()

	switch {
	case !s.TipPresent:
		rows[1] = "no tip"
	case s.Mode == types.ModeOff:
		rows[1] = "off"
	default:
		rows[1] = "tip " + itoa(int(s.ShownTemp)) + "C"
	}

	rows[2] = "set " + itoa(int(s.Setpoint)) + "C"
	if s.Worky {
		rows[2] += "  ok"
	}

	rows[3] = "in " + milliVolts(s.VinMilliV) + "V  pwr " + itoa(int(s.Duty)*100/255) + "%"
	return rows
}

// Run consumes retained state and redraws on every snapshot. Blocks until
// ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection, screen Screen) {
	sub := conn.Subscribe(station.TopicState)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			snap, ok := msg.Payload.(types.Snapshot)
			if !ok {
				continue
			}
			rows := Rows(snap)
			screen.Clear()
			for i, row := range rows {
				screen.WriteLine(i, row)
			}
			screen.Flush()
		}
	}
}

func itoa(v int) string { return strconv.Itoa(v) }

// milliVolts formats mV with one decimal, e.g. 16791 -> "16.7".
func milliVolts(mv uint32) string {
	return itoa(int(mv/1000)) + "." + itoa(int(mv%1000)/100)
}

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
