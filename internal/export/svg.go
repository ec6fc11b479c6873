package export

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotWidth()) * scale
	height := float64(canvas.DotHeight()) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.DotHeight(); y++ {
		for x := 0; x < canvas.DotWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ParticlesToSVG draws the box and every particle inside it, shading each
// dot from blue (slow) to red (fast) relative to vmax. speeds may be nil.
func ParticlesToSVG(positions []r2.Vec, speeds []float64, size float64, pixels int, vmax float64) string {
	if size <= 0 || pixels <= 0 {
		return ""
	}
	k := float64(pixels) / size

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff" stroke="#333333" stroke-width="2"/>
`, pixels, pixels, pixels, pixels)

	for i, p := range positions {
		if p.X < 0 || p.X > size || p.Y < 0 || p.Y > size {
			continue
		}
		fill := "#1f77b4"
		if speeds != nil && i < len(speeds) && vmax > 0 {
			fill = speedColor(speeds[i] / vmax)
		}
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\" fill=\"%s\"/>\n", p.X*k, float64(pixels)-p.Y*k, fill)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func speedColor(t float64) string {
	t = min(max(t, 0), 1)
	r := int(255 * t)
	b := int(255 * (1 - t))
	return fmt.Sprintf("#%02x40%02x", r, b)
}
