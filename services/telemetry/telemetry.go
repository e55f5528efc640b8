// Package telemetry runs the serial link between the station core and an
// external monitor: state snapshots and notify events stream out as framed
// JSON, and control frames coming back are republished onto the local bus.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"ironcode-go/bus"
	"ironcode-go/services/station"
	"ironcode-go/types"
)

// Start runs the link service. It blocks until ctx is cancelled.
func Start(ctx context.Context, conn *bus.Connection, tr Transport) {
	s := &Service{
		conn:       conn,
		tr:         tr,
		stateTopic: bus.T("telemetry", "state"),
	}
	s.run(ctx)
}

type Service struct {
	conn       *bus.Connection
	tr         Transport
	stateTopic bus.Topic
}

func (s *Service) run(ctx context.Context) {
	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rwc, err := s.tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "link_established", nil)
		if err := s.handleLink(ctx, rwc); err != nil {
			_ = rwc.Close()
			delay := backoff()
			s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		_ = rwc.Close()
		return
	}
}

// handleLink owns one link lifetime: outbound snapshots and events, inbound
// control frames, plus a keepalive ping.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser) error {
	stateSub := s.conn.Subscribe(station.TopicState)
	notifySub := s.conn.Subscribe(station.TopicNotify)
	defer stateSub.Unsubscribe()
	defer notifySub.Unsubscribe()

	rd := newFramedReader(rwc)
	wr := newFramedWriter(rwc)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch f.Type {
			case FramePing:
				// Peer keepalive; nothing to route.
			case FrameControl:
				s.routeControl(f.Payload)
			default:
				// Unknown frame types are skipped so the protocol can grow.
			}
		}
	}()

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = wr.WriteFrame(Frame{Type: FrameClose})
			return nil
		case err := <-errCh:
			if err != nil {
				return err
			}
			return nil
		case msg := <-stateSub.Channel():
			if err := writeJSON(wr, FrameState, msg.Payload); err != nil {
				return err
			}
		case msg := <-notifySub.Channel():
			if err := writeJSON(wr, FrameNotify, msg.Payload); err != nil {
				return err
			}
		case <-tick.C:
			if err := wr.WriteFrame(Frame{Type: FramePing}); err != nil {
				return err
			}
		}
	}
}

func writeJSON(wr *framedWriter, typ byte, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return wr.WriteFrame(Frame{Type: typ, Payload: b})
}

// ---- Inbound control ----

// ControlFrame is the wire shape of a remote control request.
type ControlFrame struct {
	Verb     string          `json:"verb"`
	Temp     uint16          `json:"temp,omitempty"`
	Name     string          `json:"name,omitempty"`
	Index    uint8           `json:"index,omitempty"`
	Points   [3]uint16       `json:"points,omitempty"`
	Settings *types.Settings `json:"settings,omitempty"`
}

// routeControl republishes a decoded control frame onto the local bus.
// Undecodable frames are dropped; the serial side gets no feedback channel
// for malformed input.
func (s *Service) routeControl(raw []byte) {
	var f ControlFrame
	if err := json.Unmarshal(raw, &f); err != nil || f.Verb == "" {
		return
	}
	payload := controlPayload(f)
	s.conn.Publish(s.conn.NewMessage(station.ControlTopic(f.Verb), payload, false))
}

func controlPayload(f ControlFrame) any {
	switch f.Verb {
	case "setpoint":
		return types.SetpointSet{Temp: f.Temp}
	case "settings_update":
		if f.Settings != nil {
			return types.SettingsUpdate{Settings: *f.Settings}
		}
		return nil
	case "tip_add":
		return types.TipAdd{Name: f.Name}
	case "tip_rename":
		return types.TipRename{Name: f.Name}
	case "tip_select":
		return types.TipSelect{Index: f.Index}
	case "tip_calibrate":
		return types.TipCalibrate{Points: f.Points}
	default:
		return nil
	}
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level,
		"status": status,
		"ts_ms":  time.Now().UnixMilli(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(s.stateTopic, payload, true))
}

// ---- Transport ----

// Transport is a pluggable link dialler: UART on the board, a serial port
// or pipe on the host.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

// DialFunc adapts a dial function into a Transport.
type DialFunc struct {
	Name string
	Dial func(ctx context.Context) (io.ReadWriteCloser, error)
}

func (d DialFunc) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if d.Dial == nil {
		return nil, errors.New("telemetry: no dialler configured")
	}
	return d.Dial(ctx)
}

func (d DialFunc) String() string { return d.Name }

// ---- Framing ----

// Frame types on the wire.
const (
	FramePing    byte = 0x01
	FrameState   byte = 0x10
	FrameNotify  byte = 0x11
	FrameControl byte = 0x20
	FrameClose   byte = 0x7f
)

// Frame is a length-prefixed unit: type byte, big-endian 16-bit length,
// payload.
type Frame struct {
	Type    byte
	Payload []byte
}

type framedReader struct{ r io.Reader }
type framedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newFramedReader(r io.Reader) *framedReader { return &framedReader{r: r} }
func newFramedWriter(w io.Writer) *framedWriter { return &framedWriter{w: w} }

// NewFrameReader exposes the wire decoding to monitor tooling.
func NewFrameReader(r io.Reader) interface{ ReadFrame() (Frame, error) } {
	return newFramedReader(r)
}

// NewFrameWriter exposes the wire encoding to monitor tooling.
func NewFrameWriter(w io.Writer) interface{ WriteFrame(Frame) error } {
	return newFramedWriter(w)
}

func (fr *framedReader) ReadFrame() (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: hdr[0], Payload: buf}, nil
}

func (fw *framedWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > 0xFFFF {
		return fmt.Errorf("frame too large: %d", len(f.Payload))
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	hdr := []byte{f.Type, byte(len(f.Payload) >> 8), byte(len(f.Payload))}
	if _, err := fw.w.Write(hdr); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		_, err := fw.w.Write(f.Payload)
		return err
	}
	return nil
}

// ---- Utilities ----

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
