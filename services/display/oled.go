package display

import (
	"image/color"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// Row pitch for the 128x64 panel with the small font.
const rowHeightPx = 16

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// OLED renders the four rows onto a 128x64 SSD1306 panel.
type OLED struct {
	dev *ssd1306.Device
}

func NewOLED(dev *ssd1306.Device) *OLED { return &OLED{dev: dev} }

func (o *OLED) Clear() { o.dev.ClearBuffer() }

func (o *OLED) WriteLine(row int, text string) {
	y := int16(row*rowHeightPx + 12)
	tinyfont.WriteLine(o.dev, &proggy.TinySZ8pt7b, 0, y, text, white)
}

func (o *OLED) Flush() { _ = o.dev.Display() }
