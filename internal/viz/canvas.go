package viz

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width x Height grid of braille cells, addressed in dots:
// (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotWidth() int  { return c.Width * 2 }
func (c *Canvas) DotHeight() int { return c.Height * 4 }

// Set turns on the dot at (x, y); out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawBorder outlines the full dot area.
func (c *Canvas) DrawBorder() {
	w, h := c.DotWidth()-1, c.DotHeight()-1
	c.DrawLine(0, 0, w, 0)
	c.DrawLine(0, h, w, h)
	c.DrawLine(0, 0, 0, h)
	c.DrawLine(w, 0, w, h)
}

// Project maps a point of the size x size box to dot coordinates with the
// origin at the bottom left. ok is false for points outside the box.
func (c *Canvas) Project(p r2.Vec, size float64) (x, y int, ok bool) {
	if p.X < 0 || p.X > size || p.Y < 0 || p.Y > size {
		return 0, 0, false
	}
	w, h := c.DotWidth(), c.DotHeight()
	x = int(p.X / size * float64(w-1))
	y = h - 1 - int(p.Y/size*float64(h-1))
	return x, y, true
}

// PlotParticles clears the canvas and draws one dot per particle inside the
// box, returning how many were drawn.
func (c *Canvas) PlotParticles(positions []r2.Vec, size float64) int {
	c.Clear()
	drawn := 0
	for _, p := range positions {
		if x, y, ok := c.Project(p, size); ok {
			c.Set(x, y)
			drawn++
		}
	}
	return drawn
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
