package trace

import (
	"fmt"
	"image/color"

	"rtk/hal"
	"rtk/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorBG     = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	colorFG     = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorDim    = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	colorLane   = color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xff}
	colorHalted = color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}

	palette = []color.RGBA{
		{R: 0x4a, G: 0xdf, B: 0x6a, A: 0xff},
		{R: 0x4a, G: 0x9a, B: 0xff, A: 0xff},
		{R: 0xff, G: 0xdd, B: 0x66, A: 0xff},
		{R: 0xff, G: 0x7a, B: 0xc0, A: 0xff},
		{R: 0x66, G: 0xee, B: 0xee, A: 0xff},
		{R: 0xff, G: 0x99, B: 0x44, A: 0xff},
		{R: 0xb0, G: 0x88, B: 0xff, A: 0xff},
		{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
	}
)

const (
	headerHeight = 14
	laneHeight   = 12
	labelWidth   = 56
	margin       = 2
)

// Renderer draws a Timeline as a chart: one lane per task plus an idle
// lane, one pixel column per tick, most recent tick on the right.
type Renderer struct {
	font       tinyfont.Fonter
	fontHeight int16
}

// NewRenderer returns a renderer using a small proportional font.
func NewRenderer() *Renderer {
	return &Renderer{font: &proggy.TinySZ8pt7b, fontHeight: 8}
}

// Render draws tl into fb and presents it.
func (r *Renderer) Render(fb hal.Framebuffer, tl Timeline) error {
	if fb == nil {
		return nil
	}
	if fb.Format() != hal.PixelFormatRGB565 {
		return fmt.Errorf("trace: unsupported pixel format %d", fb.Format())
	}
	d := &fbDisplay{fb: fb}
	fb.ClearRGB(colorBG.R, colorBG.G, colorBG.B)

	header := fmt.Sprintf("tick %d  sw %d  wake %d", tl.Last(), tl.Switches, tl.Wakes)
	headerColor := colorFG
	if tl.Halt != nil {
		header = fmt.Sprintf("HALT tick %d task %d", tl.Halt.Tick, tl.Halt.Task)
		headerColor = colorHalted
	}
	r.text(d, margin, margin, header, headerColor)

	plotW := fb.Width() - labelWidth - margin
	if plotW <= 0 {
		return d.Display()
	}
	ran := tl.Ran
	if len(ran) > plotW {
		ran = ran[len(ran)-plotW:]
	}
	x0 := labelWidth + plotW - len(ran)

	lanes := append([]TaskRow(nil), tl.Tasks...)
	lanes = append(lanes, TaskRow{ID: kernel.NoTask, Name: "idle"})
	for i, row := range lanes {
		y := headerHeight + i*laneHeight
		if y+laneHeight > fb.Height() {
			break
		}
		c := colorDim
		if row.ID != kernel.NoTask {
			c = palette[i%len(palette)]
		}
		r.text(d, margin, y+1, fitText(row.Name, 9), colorFG)
		_ = d.FillRectangle(int16(labelWidth), int16(y+1), int16(plotW), int16(laneHeight-2), colorLane)
		r.bars(d, ran, row.ID, x0, y+2, laneHeight-4, c)
	}
	return d.Display()
}

// bars fills one rectangle per run of consecutive ticks owned by id.
func (r *Renderer) bars(d *fbDisplay, ran []kernel.TaskID, id kernel.TaskID, x0, y, h int, c color.RGBA) {
	for i := 0; i < len(ran); {
		if ran[i] != id {
			i++
			continue
		}
		j := i + 1
		for j < len(ran) && ran[j] == id {
			j++
		}
		_ = d.FillRectangle(int16(x0+i), int16(y), int16(j-i), int16(h), c)
		i = j
	}
}

func (r *Renderer) text(d *fbDisplay, x, y int, s string, c color.RGBA) {
	tinyfont.WriteLine(d, r.font, int16(x), int16(y)+r.fontHeight, s, c)
}

func fitText(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
