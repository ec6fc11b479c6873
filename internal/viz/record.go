package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	cellW = 8
	cellH = 16
)

// RenderImage rasterizes the canvas dots into a two-color image.
func RenderImage(c *Canvas) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*cellW, c.Height*cellH), color.Palette{color.Black, color.White})
	dotW, dotH := cellW/2, cellH/4
	for y := 0; y < c.DotHeight(); y++ {
		for x := 0; x < c.DotWidth(); x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	return img
}

func (m *Model) captureFrame() {
	m.canvas.PlotParticles(m.gas.Positions(), m.gas.DomainSize())
	m.canvas.DrawBorder()
	m.frames = append(m.frames, RenderImage(m.canvas))
}

func (m *Model) stopRecording() {
	if err := SaveGIF(m.opts.GIFPath, m.frames, 100/m.opts.FPS); err != nil {
		m.err = err
		m.logger.Error("saving recording failed", "path", m.opts.GIFPath, "err", err)
	} else if len(m.frames) > 0 {
		m.logger.Info("recording saved", "path", m.opts.GIFPath, "frames", len(m.frames))
	}
	m.recording = false
	m.frames = nil
}

// SaveGIF writes frames as a looping animation; delay is in 1/100 s.
// No file is created when frames is empty.
func SaveGIF(path string, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
