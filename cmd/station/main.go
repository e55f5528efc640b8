//go:build rp2040 || rp2350

// Firmware entry point for the RP2-based soldering station.
package main

import (
	"context"
	"io"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/ssd1306"

	"ironcode-go/bus"
	"ironcode-go/services/display"
	"ironcode-go/services/station"
	"ironcode-go/services/station/platform"
	"ironcode-go/services/telemetry"
)

const pinBuzzer = machine.GP14

func main() {
	println("[station] boot …")
	time.Sleep(1500 * time.Millisecond)

	ctx := context.Background()
	b := bus.NewBus(8)

	res := platform.Board()
	svc := station.New(b, res, station.StrategyLinearFixed)

	// The panel shares I2C0 with the settings EEPROM; the board factory
	// already configured the bus.
	oled := ssd1306.NewI2C(machine.I2C0)
	oled.Configure(ssd1306.Config{Width: 128, Height: 64, Address: 0x3C})
	go display.Run(ctx, b.NewConnection("display"), display.NewOLED(&oled))

	pinBuzzer.Configure(machine.PinConfig{Mode: machine.PinOutput})
	go buzzer(ctx, b.NewConnection("buzzer"))

	go telemetry.Start(ctx, b.NewConnection("telemetry"), telemetry.DialFunc{
		Name: "uart0",
		Dial: func(context.Context) (io.ReadWriteCloser, error) {
			u := uartx.UART0
			_ = u.Configure(uartx.UARTConfig{
				BaudRate: 115200,
				TX:       machine.UART0_TX_PIN,
				RX:       machine.UART0_RX_PIN,
			})
			return &uartLink{u: u}, nil
		},
	})

	beep(2) // power-on confirmation
	svc.Run(ctx)
}

// buzzer turns abstract notify events into short beeps.
func buzzer(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(station.TopicNotify)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Channel():
			beep(1)
		}
	}
}

func beep(n int) {
	for i := 0; i < n; i++ {
		pinBuzzer.High()
		time.Sleep(50 * time.Millisecond)
		pinBuzzer.Low()
		time.Sleep(50 * time.Millisecond)
	}
}

// uartLink adapts the uartx port to the telemetry link's stream interface.
type uartLink struct {
	u *uartx.UART
}

func (l *uartLink) Read(p []byte) (int, error) {
	return l.u.RecvSomeContext(context.Background(), p)
}

func (l *uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }
func (l *uartLink) Close() error                { return nil }
